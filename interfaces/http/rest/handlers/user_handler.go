package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/application/services"
	"github.com/sarychlabs/sarychdb/pkg/common"
)

// UserHandler handles user and database registration requests
type UserHandler struct {
	auth   *services.AuthService
	logger *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(auth *services.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{auth: auth, logger: logger}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req services.CreateUserRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondError(w, err, start)
		return
	}

	if err := h.auth.CreateUser(req); err != nil {
		h.logger.Warn("user creation failed",
			zap.String("username", req.Username),
			zap.Error(err),
		)
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusCreated, common.Body{
		"message": "User '" + req.Username + "' created successfully",
	}, start)
}

// CreateDatabase handles POST /databases
func (h *UserHandler) CreateDatabase(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req services.CreateDatabaseRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondError(w, err, start)
		return
	}

	if err := h.auth.CreateDatabase(req); err != nil {
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusCreated, common.Body{
		"message": "Database '" + req.DBName + "' created successfully",
	}, start)
}

// ListDatabases handles GET /databases
func (h *UserHandler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	username := r.URL.Query().Get("username")
	password := r.URL.Query().Get("password")

	databases, err := h.auth.ListDatabases(username, password)
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusOK, common.Body{
		"user":      username,
		"databases": databases,
	}, start)
}
