package domain

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auditlog"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// IsValid reports whether the value is a known status.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. Logs is the append-only
// audit trail; entries are kept in insertion order and never rewritten.
type Ticket struct {
	ID         int64
	Issue      string
	Status     TicketStatus
	AssignedTo *int64
	Logs       []auditlog.Entry
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep copy so callers cannot alias the log slice.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	if t.AssignedTo != nil {
		id := *t.AssignedTo
		cp.AssignedTo = &id
	}
	cp.Logs = append([]auditlog.Entry(nil), t.Logs...)
	return &cp
}
