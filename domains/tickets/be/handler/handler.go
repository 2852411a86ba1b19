package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	ticketsservice "github.com/opsfloor/helpdesk/domains/tickets/be/service"
	platformlogging "github.com/opsfloor/helpdesk/platform/go/logging"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// Handler exposes the ticket operations over HTTP. The middleware chain has
// already resolved the tenant and authenticated the user by the time these
// handlers run; they only read the access off the request scope.
type Handler struct {
	tickets ticketsservice.Service
	logger  *zap.Logger
}

// New constructs a Handler instance.
func New(tickets ticketsservice.Service, logger *zap.Logger) *Handler {
	if tickets == nil {
		panic("tickets service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{tickets: tickets, logger: logger}
}

// Register mounts the ticket routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tickets", h.list)
	r.Post("/tickets", h.create)
	r.Get("/tickets/{ticketID}", h.get)
	r.Post("/tickets/{ticketID}/close", h.close)
	r.Delete("/tickets/{ticketID}", h.delete)
}

// createTicketPayload deliberately has no tenant or creator fields; any such
// keys in the request body are dropped by the decoder and the stamped values
// come from the request scope alone.
type createTicketPayload struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
}

type ticketPayload struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatorID   uuid.UUID `json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	access, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	filter := ticketsservice.ListFilter{Status: r.URL.Query().Get("status")}

	tickets, err := h.tickets.List(r.Context(), access, filter)
	if err != nil {
		var validationErr *ticketsservice.ValidationError
		if errors.As(err, &validationErr) {
			writeValidationError(w, validationErr.Fields)
			return
		}
		h.loggerFrom(r.Context()).Error("list tickets failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	payload := make([]ticketPayload, 0, len(tickets))
	for _, ticket := range tickets {
		payload = append(payload, toTicketPayload(ticket))
	}

	writeSuccess(w, http.StatusOK, payload, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	access, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	var payload createTicketPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := h.tickets.Create(ctx, access, ticketsservice.CreateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Priority:    payload.Priority,
		Status:      payload.Status,
	})
	if err != nil {
		var validationErr *ticketsservice.ValidationError
		if errors.As(err, &validationErr) {
			h.loggerFrom(ctx).Warn("ticket rejected",
				zap.String("tenant_id", access.TenantID().String()),
				zap.String("user_id", access.UserID().String()),
			)
			writeValidationError(w, validationErr.Fields)
			return
		}
		h.loggerFrom(ctx).Error("create ticket failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.loggerFrom(ctx).Info("ticket created",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("tenant_id", ticket.TenantID.String()),
		zap.String("user_id", ticket.CreatorID.String()),
		zap.String("priority", ticket.Priority),
	)

	writeSuccess(w, http.StatusCreated, toTicketPayload(ticket), "Ticket created")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	access, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	ticket, err := h.tickets.Get(r.Context(), access, id)
	if err != nil {
		h.writeTicketError(w, r, err, "get ticket failed")
		return
	}

	writeSuccess(w, http.StatusOK, toTicketPayload(ticket), "")
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	access, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	ticket, err := h.tickets.Close(r.Context(), access, id)
	if err != nil {
		h.writeTicketError(w, r, err, "close ticket failed")
		return
	}

	writeSuccess(w, http.StatusOK, toTicketPayload(ticket), "Ticket closed")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	access, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	if err := h.tickets.Delete(r.Context(), access, id); err != nil {
		h.writeTicketError(w, r, err, "delete ticket failed")
		return
	}

	writeSuccess(w, http.StatusOK, nil, "Ticket deleted")
}

func (h *Handler) writeTicketError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	if errors.Is(err, ticketsservice.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Ticket not found")
		return
	}
	h.loggerFrom(r.Context()).Error(logMsg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (h *Handler) ticketID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "ticketID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Ticket not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) requireAccess(w http.ResponseWriter, r *http.Request) (requestscope.Access, bool) {
	scope, ok := requestscope.FromContext(r.Context())
	if !ok {
		h.loggerFrom(r.Context()).Error("request scope missing from context")
		writeError(w, http.StatusInternalServerError, "internal error")
		return requestscope.Access{}, false
	}

	access, err := scope.Access()
	if err != nil {
		h.loggerFrom(r.Context()).Error("request scope has no tenant", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return requestscope.Access{}, false
	}

	return access, true
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}

func toTicketPayload(ticket ticketsservice.Ticket) ticketPayload {
	return ticketPayload{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		CreatorID:   ticket.CreatorID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   any  `json:"error"`
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Success: false, Error: message})
}

func writeValidationError(w http.ResponseWriter, fields ticketsservice.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, errorEnvelope{Success: false, Error: fields})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
