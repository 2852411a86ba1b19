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

	authservice "github.com/opsfloor/helpdesk/domains/auth/be/service"
	usersservice "github.com/opsfloor/helpdesk/domains/users/be/service"
	platformlogging "github.com/opsfloor/helpdesk/platform/go/logging"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// CookieConfig controls how the session credential is written to the client.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Handler exposes login, logout and signup over HTTP. It owns the session
// cookie; everything else about the request (tenant, scope) is prepared by
// the middleware chain before these handlers run.
type Handler struct {
	auth   *authservice.Service
	users  usersservice.Service
	cookie CookieConfig
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(auth *authservice.Service, users usersservice.Service, cookie CookieConfig, logger *zap.Logger) *Handler {
	if auth == nil {
		panic("auth service is required")
	}
	if users == nil {
		panic("users service is required")
	}
	if cookie.Name == "" {
		panic("session cookie name is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{auth: auth, users: users, cookie: cookie, logger: logger}
}

// Register mounts the public authentication routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/session", h.login)
	r.Delete("/session", h.logout)
	r.Post("/signup", h.signup)
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupPayload struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

type userPayload struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	TenantID uuid.UUID `json:"tenantId"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	access, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.auth.Login(ctx, access, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			h.loggerFrom(ctx).Warn("login rejected", zap.String("tenant_id", access.TenantID().String()))
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.loggerFrom(ctx).Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.establishSession(w, r, session)

	h.loggerFrom(ctx).Info("login succeeded",
		zap.String("tenant_id", session.User.TenantID.String()),
		zap.String("user_id", session.User.ID.String()),
	)

	writeSuccess(w, http.StatusCreated, toUserPayload(session.User), "Logged in successfully")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		token = cookie.Value
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.loggerFrom(r.Context()).Error("logout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.clearSessionCookie(w)
	writeSuccess(w, http.StatusOK, nil, "Logged out")
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	access, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	var payload signupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := h.users.Register(ctx, access, usersservice.RegisterInput{
		Email:                payload.Email,
		Password:             payload.Password,
		PasswordConfirmation: payload.PasswordConfirmation,
	})
	if err != nil {
		var validationErr *usersservice.ValidationError
		if errors.As(err, &validationErr) {
			writeValidationError(w, validationErr.Fields)
			return
		}
		h.loggerFrom(ctx).Error("signup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Sign the fresh account in, matching the signup-then-redirect flow.
	session, err := h.auth.Login(ctx, access, payload.Email, payload.Password)
	if err != nil {
		h.loggerFrom(ctx).Error("post-signup login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.establishSession(w, r, session)
	writeSuccess(w, http.StatusCreated, toUserPayload(session.User), "Account created and signed in!")
}

func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, session authservice.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	if scope, ok := requestscope.FromContext(r.Context()); ok {
		// Best effort: the scope may stay anonymous if already bound.
		_ = scope.BindUser(session.User.ID)
	}
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
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

func toUserPayload(user usersservice.User) userPayload {
	return userPayload{ID: user.ID, Email: user.Email, Role: user.Role, TenantID: user.TenantID}
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

func writeValidationError(w http.ResponseWriter, fields usersservice.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, errorEnvelope{Success: false, Error: fields})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
