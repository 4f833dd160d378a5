package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auditlog"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// memoryTicketRepository is the in-process fallback used when no Postgres
// DSN is configured, and the backing store for the test suite. The store
// mutex serializes Mutate so concurrent updates to one ticket cannot
// interleave.
type memoryTicketRepository struct {
	mu      sync.Mutex
	tickets map[int64]*domain.Ticket
	nextID  int64
}

// NewMemoryTicketRepository builds an empty in-memory store.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{
		tickets: make(map[int64]*domain.Ticket),
		nextID:  1,
	}
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	ticket.ID = r.nextID
	r.nextID++
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	// Round-trip through the codec so the stored shape matches what a
	// database row would hold.
	blob, err := auditlog.Encode(ticket.Logs)
	if err != nil {
		return err
	}
	stored := ticket.Clone()
	stored.Logs = auditlog.Decode(blob)
	r.tickets[stored.ID] = stored
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ticket.Clone(), nil
}

func (r *memoryTicketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Ticket
	for _, ticket := range r.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.AssignedTo != nil {
			if ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo {
				continue
			}
		}
		matched = append(matched, ticket)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]domain.Ticket, 0, end-offset)
	for _, ticket := range matched[offset:end] {
		page = append(page, *ticket.Clone())
	}
	return page, total, nil
}

func (r *memoryTicketRepository) Mutate(ctx context.Context, id int64, fn TicketMutator) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}

	// fn works on a copy; the store is only replaced after fn succeeds, so
	// a failed mutation leaves no partial state behind.
	working := current.Clone()
	changed, err := fn(working)
	if err != nil {
		return nil, err
	}
	if changed {
		r.tickets[id] = working.Clone()
	}
	return working, nil
}

// memoryUserRepository mirrors the Postgres user store in memory.
type memoryUserRepository struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	byName map[string]int64
	nextID int64
}

// NewMemoryUserRepository builds an empty in-memory user store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users:  make(map[int64]*domain.User),
		byName: make(map[string]int64),
		nextID: 1,
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[user.Username]; taken {
		return util.NewConflict("username already exists", map[string]any{"username": user.Username})
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now().UTC()

	stored := *user
	r.users[user.ID] = &stored
	r.byName[user.Username] = user.ID
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (r *memoryUserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, *user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memoryUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.users[id]
	return ok, nil
}
