package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auditlog"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventTicketClosed  EventType = "ticket_closed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Issue      string `json:"issue"`
	AssignedTo *int64 `json:"assigned_to,omitempty"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Fields  []string            `json:"fields"`
	Changes auditlog.Value      `json:"changes"`
	Status  domain.TicketStatus `json:"status"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ResolutionCode string `json:"resolution_code"`
}
