package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/auditlog"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. Filters are conjunctive.
type TicketFilter struct {
	Status     *domain.TicketStatus
	AssignedTo *int64
	Limit      int
	Offset     int
}

// TicketMutator applies a validated change to a ticket inside the
// repository's transaction boundary. It returns true when the ticket was
// modified and must be written back; returning an error aborts the whole
// mutation with nothing persisted.
type TicketMutator func(ticket *domain.Ticket) (bool, error)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// ListWithFilter returns one page ordered by creation time descending,
	// plus the total number of rows matching the filter before pagination.
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error)
	// Mutate runs fn under a per-ticket serializing boundary so the
	// read-validate-append-write cycle commits atomically.
	Mutate(ctx context.Context, id int64, fn TicketMutator) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates a Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	logs, err := auditlog.Encode(ticket.Logs)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (issue, status, assigned_to, logs)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Issue,
		ticket.Status,
		ticket.AssignedTo,
		logs,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, issue, status, assigned_to, logs, created_at, updated_at
        FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tickets WHERE %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT id, issue, status, assigned_to, logs, created_at, updated_at
        FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *ticket)
	}
	return result, total, rows.Err()
}

func (r *ticketRepository) Mutate(ctx context.Context, id int64, fn TicketMutator) (*domain.Ticket, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        SELECT id, issue, status, assigned_to, logs, created_at, updated_at
        FROM tickets WHERE id=$1 FOR UPDATE`
	ticket, err := scanTicket(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	changed, err := fn(ticket)
	if err != nil {
		return nil, err
	}
	if !changed {
		return ticket, tx.Commit(ctx)
	}

	logs, err := auditlog.Encode(ticket.Logs)
	if err != nil {
		return nil, err
	}
	const update = `
        UPDATE tickets SET issue=$1, status=$2, assigned_to=$3, logs=$4, updated_at=$5
        WHERE id=$6`
	if _, err := tx.Exec(ctx, update,
		ticket.Issue,
		ticket.Status,
		ticket.AssignedTo,
		logs,
		ticket.UpdatedAt,
		ticket.ID,
	); err != nil {
		return nil, err
	}
	return ticket, tx.Commit(ctx)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var logs *string
	if err := row.Scan(
		&ticket.ID,
		&ticket.Issue,
		&ticket.Status,
		&ticket.AssignedTo,
		&logs,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if logs != nil {
		ticket.Logs = auditlog.Decode(*logs)
	} else {
		ticket.Logs = []auditlog.Entry{}
	}
	return &ticket, nil
}
