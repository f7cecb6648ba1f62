package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lissants/berkaraoke/config"
	"github.com/lissants/berkaraoke/core/auth"
	"github.com/lissants/berkaraoke/core/pipeline"
	"github.com/lissants/berkaraoke/logger"
	"github.com/lissants/berkaraoke/model"
	"github.com/lissants/berkaraoke/repository"
)

type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxUsername contextKey = "username"
)

// APIHandler holds dependencies for HTTP handlers.
type APIHandler struct {
	cfg           *config.Config
	pipeline      *pipeline.Pipeline
	userRepo      repository.UserRepository
	trackRepo     repository.TrackRepository
	recordingRepo repository.RecordingRepository
	store         pipeline.ObjectStore
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(cfg *config.Config, pl *pipeline.Pipeline, userRepo repository.UserRepository,
	trackRepo repository.TrackRepository, recordingRepo repository.RecordingRepository,
	store pipeline.ObjectStore) *APIHandler {
	return &APIHandler{
		cfg:           cfg,
		pipeline:      pl,
		userRepo:      userRepo,
		trackRepo:     trackRepo,
		recordingRepo: recordingRepo,
		store:         store,
	}
}

// contextIdentity resolves the current user from the request context
// populated by AuthMiddleware. A request without claims is simply not
// authenticated, not an error.
type contextIdentity struct {
	users repository.UserRepository
}

func (c *contextIdentity) CurrentUser(ctx context.Context) (*model.User, error) {
	userID, ok := ctx.Value(ctxUserID).(int64)
	if !ok {
		return nil, nil
	}
	user, err := c.users.GetUserByID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Username string `json:"username"` // Username or email
	Password string `json:"password"`
}

// RegisterRequest is the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler handles user login requests.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username/email and password are required", http.StatusBadRequest)
		return
	}

	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(req.Username)
	} else {
		user, err = h.userRepo.GetUserByUsername(req.Username)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		} else {
			logger.Error("Failed to query user", logger.ErrorField(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("Password verification failed", logger.String("username", req.Username))
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// RegisterHandler handles user registration requests.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "Username, email and password are required", http.StatusBadRequest)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
	}
	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		logger.Error("Failed to create user", logger.ErrorField(err))
		http.Error(w, "Failed to create user", http.StatusConflict)
		return
	}
	user.ID = userID

	token, err := auth.GenerateToken(userID, user.Username)
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// AuthMiddleware checks for a valid JWT token and stores the claims in the
// request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxUsername, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(ctxUserID).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// GetUsernameFromContext extracts the username from the request context.
func GetUsernameFromContext(ctx context.Context) (string, error) {
	username, ok := ctx.Value(ctxUsername).(string)
	if !ok {
		return "", fmt.Errorf("username not found in context")
	}
	return username, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writePipelineError maps pipeline failures to HTTP responses. Every failure
// is surfaced; none crash the process.
func writePipelineError(w http.ResponseWriter, err error) {
	var rejected *pipeline.ProcessingRejectedError
	var incomplete *pipeline.IncompleteError

	switch {
	case errors.Is(err, pipeline.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, pipeline.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, pipeline.ErrNoActiveSession),
		errors.Is(err, pipeline.ErrRecordingURIMissing):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, pipeline.ErrFileNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, pipeline.ErrStorageRejected),
		errors.Is(err, pipeline.ErrNoArtifactID),
		errors.Is(err, pipeline.ErrServiceUnreachable):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "detail": rejected.Detail})
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     err.Error(),
			"completed": incomplete.Completed,
			"required":  incomplete.Required,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
