package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	userService := service.NewUserService(repository.NewMemoryUserRepository())
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		Users:      userService,
		Dispatcher: events.NewInMemoryDispatcher(),
		Pagination: config.PaginationConfig{DefaultPageSize: 50, MaxPageSize: 100},
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("helpdesk-test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Users:   handlers.NewUsersHandler(userService),
		Tickets: handlers.NewTicketsHandler(ticketService),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (*nethttp.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	return body.Error.Code
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)

	resp, data := doJSON(t, app, nethttp.MethodPost, "/users", map[string]any{"username": "alice"})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	var user dto.UserResponse
	require.NoError(t, json.Unmarshal(data, &user))

	resp, data = doJSON(t, app, nethttp.MethodPost, "/tickets", map[string]any{
		"issue":       "VPN not working",
		"assigned_to": user.ID,
	})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	var ticket dto.TicketResponse
	require.NoError(t, json.Unmarshal(data, &ticket))
	require.Equal(t, domain.TicketStatusNew, ticket.Status)
	require.Len(t, ticket.Logs, 1)
	require.Equal(t, "ticket_created", ticket.Logs[0].Action)

	// skipping IN_PROGRESS is rejected
	resp, data = doJSON(t, app, nethttp.MethodPatch, "/tickets/1", map[string]any{"status": "RESOLVED"})
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "INVALID_TRANSITION", errorCode(t, data))

	for _, status := range []string{"IN_PROGRESS", "RESOLVED"} {
		resp, data = doJSON(t, app, nethttp.MethodPatch, "/tickets/1", map[string]any{"status": status})
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	}

	resp, data = doJSON(t, app, nethttp.MethodPost, "/tickets/1/close", map[string]any{"resolution_code": "VPN-RESET-OK"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &ticket))
	require.Equal(t, domain.TicketStatusClosed, ticket.Status)
	require.Len(t, ticket.Logs, 4)
	require.Equal(t, "ticket_closed", ticket.Logs[3].Action)
	code, ok := ticket.Logs[3].Details.Get("resolution_code")
	require.True(t, ok)
	require.Equal(t, "VPN-RESET-OK", code.StringVal())
}

func TestUpdateWithZeroUnassigns(t *testing.T) {
	app := newTestApp(t)

	_, data := doJSON(t, app, nethttp.MethodPost, "/users", map[string]any{"username": "bob"})
	var user dto.UserResponse
	require.NoError(t, json.Unmarshal(data, &user))

	_, _ = doJSON(t, app, nethttp.MethodPost, "/tickets", map[string]any{
		"issue":       "slow laptop",
		"assigned_to": user.ID,
	})

	resp, data := doJSON(t, app, nethttp.MethodPatch, "/tickets/1", map[string]any{"assigned_to": 0})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var ticket dto.TicketResponse
	require.NoError(t, json.Unmarshal(data, &ticket))
	require.Nil(t, ticket.AssignedTo)
}

func TestErrorResponses(t *testing.T) {
	app := newTestApp(t)

	resp, data := doJSON(t, app, nethttp.MethodGet, "/tickets/42", nil)
	require.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", errorCode(t, data))

	resp, data = doJSON(t, app, nethttp.MethodPost, "/tickets", map[string]any{"issue": ""})
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "VALIDATION_FAILED", errorCode(t, data))

	resp, data = doJSON(t, app, nethttp.MethodPost, "/tickets", map[string]any{
		"issue":       "no such user",
		"assigned_to": 99,
	})
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "UNKNOWN_ASSIGNEE", errorCode(t, data))

	resp, data = doJSON(t, app, nethttp.MethodGet, "/tickets?status=BOGUS", nil)
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "VALIDATION_FAILED", errorCode(t, data))
}

func TestListTicketsOverHTTP(t *testing.T) {
	app := newTestApp(t)

	for _, issue := range []string{"one", "two", "three"} {
		resp, _ := doJSON(t, app, nethttp.MethodPost, "/tickets", map[string]any{"issue": issue})
		require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	}
	resp, _ := doJSON(t, app, nethttp.MethodPatch, "/tickets/1", map[string]any{"status": "IN_PROGRESS"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, data := doJSON(t, app, nethttp.MethodGet, "/tickets?status=NEW&page=1&page_size=1", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var list dto.TicketListResponse
	require.NoError(t, json.Unmarshal(data, &list))
	require.Equal(t, int64(2), list.Total)
	require.Len(t, list.Tickets, 1)
	require.Equal(t, 1, list.Page)
	require.Equal(t, 1, list.PageSize)
	require.Equal(t, "three", list.Tickets[0].Issue)
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, nethttp.MethodGet, "/health/live", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	// no postgres configured still counts as ready (in-memory mode)
	resp, _ = doJSON(t, app, nethttp.MethodGet, "/health/ready", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
}
