package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/internal/services"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// UserService is the part of the user service the handler drives
type UserService interface {
	Register(ctx context.Context, req *models.RegisterUserRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id int64) error
}

// APIError represents a standardized API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RegisterResponse is returned for a new user
type RegisterResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Algorithm string    `json:"algorithm"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeleteUserResponse is returned when a user is removed
type DeleteUserResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// Handler serves user registration and login
type Handler struct {
	users UserService
}

// NewHandler creates a new auth handler
func NewHandler(users UserService) *Handler {
	return &Handler{users: users}
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "VALIDATION_ERROR", "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		sendServiceError(w, "register user", err)
		return
	}
	sendJSON(w, http.StatusCreated, RegisterResponse{
		ID:        user.ID,
		Username:  user.Username,
		Algorithm: user.Algorithm,
		CreatedAt: user.CreatedAt,
	})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "VALIDATION_ERROR", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		sendError(w, "VALIDATION_ERROR", "Missing credentials", http.StatusBadRequest)
		return
	}

	result, err := h.users.Login(r.Context(), &req)
	if err != nil {
		sendServiceError(w, "log in", err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// ListUsers handles GET /api/auth/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		sendServiceError(w, "list users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	sendJSON(w, http.StatusOK, users)
}

// DeleteUser handles DELETE /api/auth/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		sendError(w, "VALIDATION_ERROR", "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		sendServiceError(w, "delete user", err)
		return
	}
	sendJSON(w, http.StatusOK, DeleteUserResponse{Message: "User deleted successfully", ID: id})
}

func sendServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		sendError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrUserExists):
		sendError(w, "CONFLICT", "Username already exists", http.StatusConflict)
	case errors.Is(err, services.ErrUnknownUser):
		sendError(w, "NOT_FOUND", "User not found", http.StatusNotFound)
	default:
		debug.Error("Failed to %s: %v", action, err)
		sendError(w, "INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
	}
}

// sendError sends a standardized error response
func sendError(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
	})
}

func sendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		debug.Error("Failed to encode response: %v", err)
	}
}
