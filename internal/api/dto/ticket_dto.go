package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auditlog"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Issue      string `json:"issue"`
	AssignedTo *int64 `json:"assigned_to"`
}

// UpdateTicketRequest payload. Absent fields are untouched; assigned_to=0
// clears the assignment (original wire contract).
type UpdateTicketRequest struct {
	Issue      *string `json:"issue"`
	Status     *string `json:"status"`
	AssignedTo *int64  `json:"assigned_to"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	ResolutionCode string `json:"resolution_code"`
}

// LogEntryResponse is one audit trail entry.
type LogEntryResponse struct {
	Timestamp string         `json:"timestamp"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Details   auditlog.Value `json:"details"`
}

// TicketResponse provides the full ticket representation.
type TicketResponse struct {
	ID         int64               `json:"id"`
	Issue      string              `json:"issue"`
	Status     domain.TicketStatus `json:"status"`
	AssignedTo *int64              `json:"assigned_to"`
	Logs       []LogEntryResponse  `json:"logs"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// TicketListResponse is one page of tickets plus the pre-pagination total.
type TicketListResponse struct {
	Tickets  []TicketResponse `json:"tickets"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
