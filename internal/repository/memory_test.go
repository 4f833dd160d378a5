package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auditlog"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func seedTicket(t *testing.T, repo TicketRepository, issue string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Issue:  issue,
		Status: domain.TicketStatusNew,
		Logs: []auditlog.Entry{
			auditlog.NewEntry("system", auditlog.ActionTicketCreated, auditlog.Mapping(map[string]auditlog.Value{
				"issue": auditlog.String(issue),
			})),
		},
	}
	require.NoError(t, repo.Create(context.Background(), ticket))
	return ticket
}

func TestMemoryTicketRepositoryCreateAssignsIDs(t *testing.T) {
	repo := NewMemoryTicketRepository()

	first := seedTicket(t, repo, "first")
	second := seedTicket(t, repo, "second")
	require.Equal(t, first.ID+1, second.ID)
	require.False(t, first.CreatedAt.IsZero())
}

func TestMemoryTicketRepositoryGetByIDIsolation(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ticket := seedTicket(t, repo, "isolated")

	got, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, got.Logs, 1)

	// mutating the returned copy must not leak into the store
	got.Issue = "tampered"
	got.Logs = append(got.Logs, auditlog.NewEntry("x", "x", auditlog.Null()))

	fresh, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, "isolated", fresh.Issue)
	require.Len(t, fresh.Logs, 1)
}

func TestMemoryTicketRepositoryMissingID(t *testing.T) {
	repo := NewMemoryTicketRepository()

	_, err := repo.GetByID(context.Background(), 7)
	require.ErrorIs(t, err, pgx.ErrNoRows)

	_, err = repo.Mutate(context.Background(), 7, func(tk *domain.Ticket) (bool, error) { return false, nil })
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryTicketRepositoryMutateRollsBackOnError(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ticket := seedTicket(t, repo, "stable")

	boom := errors.New("validation failed")
	_, err := repo.Mutate(context.Background(), ticket.ID, func(tk *domain.Ticket) (bool, error) {
		tk.Issue = "partially applied"
		tk.Logs = append(tk.Logs, auditlog.NewEntry("x", "x", auditlog.Null()))
		return false, boom
	})
	require.ErrorIs(t, err, boom)

	after, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, "stable", after.Issue)
	require.Len(t, after.Logs, 1)
}

func TestMemoryTicketRepositoryMutatePersistsChanges(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ticket := seedTicket(t, repo, "changeme")

	updated, err := repo.Mutate(context.Background(), ticket.ID, func(tk *domain.Ticket) (bool, error) {
		tk.Status = domain.TicketStatusInProgress
		tk.Logs = append(tk.Logs, auditlog.NewEntry("system", auditlog.ActionTicketUpdated, auditlog.Null()))
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, updated.Status)

	after, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, after.Status)
	require.Len(t, after.Logs, 2)
}

func TestMemoryTicketRepositoryListOrderingAndPaging(t *testing.T) {
	repo := NewMemoryTicketRepository()
	for i := 0; i < 4; i++ {
		seedTicket(t, repo, "ticket")
	}

	page, total, err := repo.ListWithFilter(context.Background(), TicketFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, page, 2)
	require.Greater(t, page[0].ID, page[1].ID) // newest first

	rest, total, err := repo.ListWithFilter(context.Background(), TicketFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, rest, 2)
	require.Greater(t, page[1].ID, rest[0].ID)

	beyond, total, err := repo.ListWithFilter(context.Background(), TicketFilter{Limit: 2, Offset: 10})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Empty(t, beyond)
}

func TestMemoryTicketRepositoryListFilters(t *testing.T) {
	repo := NewMemoryTicketRepository()
	assignee := int64(7)

	assigned := seedTicket(t, repo, "assigned")
	_, err := repo.Mutate(context.Background(), assigned.ID, func(tk *domain.Ticket) (bool, error) {
		tk.AssignedTo = &assignee
		tk.Status = domain.TicketStatusInProgress
		return true, nil
	})
	require.NoError(t, err)
	seedTicket(t, repo, "unassigned")

	status := domain.TicketStatusInProgress
	page, total, err := repo.ListWithFilter(context.Background(), TicketFilter{Status: &status, AssignedTo: &assignee})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	require.Equal(t, assigned.ID, page[0].ID)

	other := int64(8)
	_, total, err = repo.ListWithFilter(context.Background(), TicketFilter{AssignedTo: &other})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestMemoryUserRepository(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user := &domain.User{Username: "alice"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	exists, err := repo.Exists(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, exists)

	dup := &domain.User{Username: "alice"}
	require.Error(t, repo.Create(ctx, dup))

	_, err = repo.GetByID(ctx, 99)
	require.ErrorIs(t, err, pgx.ErrNoRows)
}
