// Package server also carries the REST surface around the realtime core:
// account signup/signin, room creation and lookup, and the chat and shape
// history endpoints clients use outside the socket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sketchdeck/sketchdeck/internal/auth"
	"github.com/sketchdeck/sketchdeck/internal/store"
)

type contextKey string

// userIDKey carries the authenticated user id through request contexts.
const userIDKey contextKey = "userID"

// API implements the HTTP endpoints backed by the store.
type API struct {
	store    *store.Store
	tokens   *auth.TokenManager
	validate *validator.Validate
}

// NewAPI creates the REST handler set.
func NewAPI(st *store.Store, tokens *auth.TokenManager) *API {
	return &API{
		store:    st,
		tokens:   tokens,
		validate: validator.New(),
	}
}

type signupRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type createRoomRequest struct {
	Name string `json:"name" validate:"required,min=3,max=20"`
}

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Signup creates a new account with a bcrypt-hashed password.
func (a *API) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !a.readJSON(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := a.store.CreateUser(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		slog.Error("signup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User signed up successfully",
		"userId":  user.ID,
	})
}

// Signin verifies credentials and issues a bearer token.
func (a *API) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !a.readJSON(w, r, &req) {
		return
	}

	user, err := a.store.UserByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(req.Password, user.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		slog.Error("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Sign in successful",
		"token":   token,
	})
}

// CreateRoom creates a room owned by the authenticated user.
func (a *API) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createRoomRequest
	if !a.readJSON(w, r, &req) {
		return
	}

	room, err := a.store.CreateRoom(r.Context(), req.Name, userID)
	if err != nil {
		slog.Error("room creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"roomId": room.ID,
		"userId": userID,
	})
}

// RoomBySlug retrieves room info by slug.
func (a *API) RoomBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	room, err := a.store.RoomBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"room": nil})
			return
		}
		slog.Error("room lookup failed", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"room": room})
}

// ChatHistory returns the most recent entries of a room's log, newest first.
func (a *API) ChatHistory(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	entries, err := a.store.ListChatHistory(r.Context(), roomID)
	if err != nil {
		slog.Error("chat history fetch failed", "roomId", roomID, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"messages": []store.Chat{}})
		return
	}
	if entries == nil {
		entries = []store.Chat{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": entries})
}

// ShapeHistory returns the room's shape payloads in creation order.
func (a *API) ShapeHistory(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	shapes, err := a.store.ListShapeHistory(r.Context(), roomID)
	if err != nil {
		slog.Error("shape history fetch failed", "roomId", roomID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch shapes")
		return
	}
	if shapes == nil {
		shapes = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, shapes)
}

// RequireAuth wraps a handler with bearer-token authentication: 401 when the
// header is missing, 403 when the token does not verify.
func (a *API) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := a.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}

		next(w, r.WithContext(withUserID(r.Context(), userID)))
	}
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// readJSON decodes and validates a request body, writing the 400 response
// itself on failure.
func (a *API) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
