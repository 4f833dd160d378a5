package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Issue) == "" {
		return apperrors.NewValidationError("issue required", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), service.TicketCreateInput{
		Issue:      req.Issue,
		AssignedTo: req.AssignedTo,
	}, requestActor(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ticketResponse(ticket))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	input := service.TicketListInput{
		Page:     parseIntQuery(c.Query("page"), 1),
		PageSize: parseIntQuery(c.Query("page_size"), 0),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(statusStr)))
		if !status.IsValid() {
			return apperrors.NewValidationError("unknown status filter", map[string]any{"status": statusStr})
		}
		input.Status = &status
	}
	if assignedStr := c.Query("assigned_to"); assignedStr != "" {
		assignedTo, err := strconv.ParseInt(assignedStr, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid assigned_to filter", map[string]any{"assigned_to": assignedStr})
		}
		input.AssignedTo = &assignedTo
	}

	page, err := h.service.List(c.UserContext(), input)
	if err != nil {
		return err
	}

	tickets := make([]dto.TicketResponse, 0, len(page.Tickets))
	for i := range page.Tickets {
		tickets = append(tickets, ticketResponse(&page.Tickets[i]))
	}
	return c.JSON(dto.TicketListResponse{
		Tickets:  tickets,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{Issue: req.Issue}
	if req.Status != nil {
		status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		if !status.IsValid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": *req.Status})
		}
		input.Status = &status
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == 0 {
			input.Assignee = service.Unassign()
		} else {
			input.Assignee = service.AssignTo(*req.AssignedTo)
		}
	}

	ticket, err := h.service.Update(c.UserContext(), id, input, requestActor(c))
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.CloseTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ResolutionCode) == "" {
		return apperrors.NewValidationError("resolution_code required", nil)
	}

	ticket, err := h.service.Close(c.UserContext(), id, req.ResolutionCode, requestActor(c))
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func requestActor(c *fiber.Ctx) string {
	actor := strings.TrimSpace(c.Get("X-Actor"))
	if actor == "" {
		return service.SystemActor
	}
	return actor
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	logs := make([]dto.LogEntryResponse, 0, len(ticket.Logs))
	for _, entry := range ticket.Logs {
		logs = append(logs, dto.LogEntryResponse{
			Timestamp: entry.Timestamp,
			Actor:     entry.Actor,
			Action:    entry.Action,
			Details:   entry.Details,
		})
	}
	return dto.TicketResponse{
		ID:         ticket.ID,
		Issue:      ticket.Issue,
		Status:     ticket.Status,
		AssignedTo: ticket.AssignedTo,
		Logs:       logs,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}
