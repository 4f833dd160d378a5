package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auditlog"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// SystemActor is attributed to mutations with no explicit actor.
const SystemActor = "system"

// UserDirectory is the user-existence check consumed when validating
// assignment references.
type UserDirectory interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// TicketService owns the ticket lifecycle: it enforces the status
// transition graph and appends one audit log entry per effective mutation.
type TicketService struct {
	tickets    repository.TicketRepository
	users      UserDirectory
	dispatcher events.Dispatcher
	pagination config.PaginationConfig
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Users      UserDirectory
	Dispatcher events.Dispatcher
	Pagination config.PaginationConfig
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	pagination := deps.Pagination
	if pagination.DefaultPageSize <= 0 {
		pagination.DefaultPageSize = 50
	}
	if pagination.MaxPageSize <= 0 {
		pagination.MaxPageSize = 100
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.Users,
		dispatcher: deps.Dispatcher,
		pagination: pagination,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Issue      string
	AssignedTo *int64
}

// AssigneeChange expresses the requested change to a ticket's assignment:
// either set it to a concrete user or clear it. A nil *AssigneeChange on
// the update input means the assignment is untouched.
type AssigneeChange struct {
	UserID int64
	Clear  bool
}

// AssignTo requests assignment to the given user.
func AssignTo(userID int64) *AssigneeChange {
	return &AssigneeChange{UserID: userID}
}

// Unassign requests clearing the assignment.
func Unassign() *AssigneeChange {
	return &AssigneeChange{Clear: true}
}

// TicketUpdateInput carries the optional update fields. Nil fields are
// left untouched.
type TicketUpdateInput struct {
	Issue    *string
	Status   *domain.TicketStatus
	Assignee *AssigneeChange
}

// TicketListInput describes listing filters and pagination.
type TicketListInput struct {
	Status     *domain.TicketStatus
	AssignedTo *int64
	Page       int
	PageSize   int
}

// TicketPage is one page of results plus the pre-pagination total.
type TicketPage struct {
	Tickets  []domain.Ticket
	Total    int64
	Page     int
	PageSize int
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:        {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Create allocates a new NEW ticket with its initial log entry.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput, actor string) (*domain.Ticket, error) {
	issue := strings.TrimSpace(input.Issue)
	if issue == "" {
		return nil, util.NewValidationError("issue is required", nil)
	}
	if input.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
	}

	ticket := &domain.Ticket{
		Issue:      issue,
		Status:     domain.TicketStatusNew,
		AssignedTo: input.AssignedTo,
		Logs: []auditlog.Entry{
			auditlog.NewEntry(actorOrSystem(actor), auditlog.ActionTicketCreated, auditlog.Mapping(map[string]auditlog.Value{
				"issue":       auditlog.String(issue),
				"assigned_to": auditlog.OptionalInt(input.AssignedTo),
			})),
		},
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOrSystem(actor),
		Payload: events.TicketCreatedPayload{
			Issue:      ticket.Issue,
			AssignedTo: ticket.AssignedTo,
		},
	})
	return ticket, nil
}

// Get fetches a ticket by id.
func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketErr(err, id)
	}
	return ticket, nil
}

// List returns a page of tickets ordered by creation time descending.
func (s *TicketService) List(ctx context.Context, input TicketListInput) (*TicketPage, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = s.pagination.DefaultPageSize
	}
	if pageSize > s.pagination.MaxPageSize {
		pageSize = s.pagination.MaxPageSize
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, util.NewValidationError("unknown status filter", map[string]any{"status": string(*input.Status)})
	}

	tickets, total, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Status:     input.Status,
		AssignedTo: input.AssignedTo,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &TicketPage{
		Tickets:  tickets,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Update applies the provided fields to a ticket. All validations run
// before any field is mutated; an effective change appends exactly one
// ticket_updated entry covering every changed field.
func (s *TicketService) Update(ctx context.Context, id int64, input TicketUpdateInput, actor string) (*domain.Ticket, error) {
	if input.Issue != nil && strings.TrimSpace(*input.Issue) == "" {
		return nil, util.NewValidationError("issue cannot be empty", nil)
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, util.NewValidationError("unknown status", map[string]any{"status": string(*input.Status)})
	}

	var changedFields []string
	var changes auditlog.Value

	ticket, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) (bool, error) {
		if input.Assignee != nil && !input.Assignee.Clear {
			if err := s.checkAssignee(ctx, input.Assignee.UserID); err != nil {
				return false, err
			}
		}
		if input.Status != nil && *input.Status != t.Status {
			if !isValidTransition(t.Status, *input.Status) {
				return false, util.NewInvalidTransition(string(t.Status), string(*input.Status))
			}
		}

		fields := map[string]auditlog.Value{}
		if input.Issue != nil {
			issue := strings.TrimSpace(*input.Issue)
			if issue != t.Issue {
				fields["issue"] = auditlog.FromTo(auditlog.String(t.Issue), auditlog.String(issue))
				t.Issue = issue
			}
		}
		if input.Assignee != nil {
			from := auditlog.OptionalInt(t.AssignedTo)
			if input.Assignee.Clear {
				if t.AssignedTo != nil {
					fields["assigned_to"] = auditlog.FromTo(from, auditlog.Null())
					t.AssignedTo = nil
				}
			} else if t.AssignedTo == nil || *t.AssignedTo != input.Assignee.UserID {
				userID := input.Assignee.UserID
				fields["assigned_to"] = auditlog.FromTo(from, auditlog.Int(userID))
				t.AssignedTo = &userID
			}
		}
		if input.Status != nil && *input.Status != t.Status {
			fields["status"] = auditlog.FromTo(auditlog.String(string(t.Status)), auditlog.String(string(*input.Status)))
			t.Status = *input.Status
		}

		if len(fields) == 0 {
			return false, nil
		}
		changes = auditlog.Mapping(fields)
		for name := range fields {
			changedFields = append(changedFields, name)
		}
		t.Logs = append(t.Logs, auditlog.NewEntry(actorOrSystem(actor), auditlog.ActionTicketUpdated, changes))
		t.UpdatedAt = time.Now().UTC()
		return true, nil
	})
	if err != nil {
		return nil, mapTicketErr(err, id)
	}

	if len(changedFields) > 0 {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: ticket.ID,
			Actor:    actorOrSystem(actor),
			Payload: events.TicketUpdatedPayload{
				Fields:  changedFields,
				Changes: changes,
				Status:  ticket.Status,
			},
		})
	}
	return ticket, nil
}

// Close transitions a RESOLVED ticket to CLOSED with a resolution code.
func (s *TicketService) Close(ctx context.Context, id int64, resolutionCode, actor string) (*domain.Ticket, error) {
	resolutionCode = strings.TrimSpace(resolutionCode)
	if resolutionCode == "" {
		return nil, util.NewValidationError("resolution_code is required", nil)
	}

	ticket, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) (bool, error) {
		if t.Status != domain.TicketStatusResolved {
			return false, util.NewInvalidState("can only close resolved tickets")
		}
		t.Status = domain.TicketStatusClosed
		t.Logs = append(t.Logs, auditlog.NewEntry(actorOrSystem(actor), auditlog.ActionTicketClosed, auditlog.Mapping(map[string]auditlog.Value{
			"resolution_code": auditlog.String(resolutionCode),
		})))
		t.UpdatedAt = time.Now().UTC()
		return true, nil
	})
	if err != nil {
		return nil, mapTicketErr(err, id)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		Actor:    actorOrSystem(actor),
		Payload: events.TicketClosedPayload{
			ResolutionCode: resolutionCode,
		},
	})
	return ticket, nil
}

func (s *TicketService) checkAssignee(ctx context.Context, userID int64) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return util.NewUnknownAssignee(userID)
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOrSystem(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return SystemActor
	}
	return actor
}

func mapTicketErr(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return util.NewNotFound("ticket", map[string]any{"id": id})
	}
	return err
}
