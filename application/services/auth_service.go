package services

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sarychlabs/sarychdb/infrastructure/config"
	"github.com/sarychlabs/sarychdb/infrastructure/persistence/file"
	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
	"github.com/sarychlabs/sarychdb/pkg/utils"
)

// AuthService owns the user registry: account creation, credential checks,
// database registration and per-user database visibility.
type AuthService struct {
	cfg      *config.Config
	registry *file.Registry
	store    *file.Store
	logger   *zap.Logger
}

// NewAuthService creates an auth service
func NewAuthService(cfg *config.Config, registry *file.Registry, store *file.Store, logger *zap.Logger) *AuthService {
	return &AuthService{cfg: cfg, registry: registry, store: store, logger: logger}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// CreateDatabaseRequest represents the request body for creating a database
type CreateDatabaseRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	DBName   string `json:"db_name" validate:"required,min=1,max=64"`
}

// CreateUser registers a user, hashes the password and creates the user's
// directory.
func (s *AuthService) CreateUser(req CreateUserRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.NewBadRequestError(err.Error())
	}
	if !isValidName(req.Username) {
		return apperrors.NewBadRequestError("Invalid username. Cannot contain spaces or path separators")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password")
	}

	if err := s.registry.CreateUser(req.Username, string(hash)); err != nil {
		return err
	}

	if err := os.MkdirAll(s.cfg.UserDir(req.Username), 0o755); err != nil {
		return apperrors.NewIOError("create user directory", err)
	}

	s.logger.Info("user created", zap.String("username", req.Username))
	return nil
}

// Authenticate verifies a username/password pair. Unknown users and
// password mismatches are indistinguishable to the caller.
func (s *AuthService) Authenticate(username, password string) error {
	if username == "" || password == "" {
		return apperrors.NewAuthFailedError("")
	}

	entry, err := s.registry.User(username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewAuthFailedError("")
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(password)); err != nil {
		return apperrors.NewAuthFailedError("")
	}
	return nil
}

// CreateDatabase registers a database for an authenticated user and
// creates its empty file.
func (s *AuthService) CreateDatabase(req CreateDatabaseRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.NewBadRequestError(err.Error())
	}
	if !isValidName(req.DBName) {
		return apperrors.NewBadRequestError("Invalid database name. Cannot contain spaces or path separators")
	}

	if err := s.Authenticate(req.Username, req.Password); err != nil {
		return err
	}

	path := s.cfg.DatabasePath(req.Username, req.DBName)
	if _, err := os.Stat(path); err == nil {
		return apperrors.NewConflictError("Database file already exists")
	}

	if err := s.registry.AddDatabase(req.Username, req.DBName); err != nil {
		return err
	}

	if err := os.MkdirAll(s.cfg.UserDir(req.Username), 0o755); err != nil {
		return apperrors.NewIOError("create user directory", err)
	}
	if err := s.store.Save(path, nil); err != nil {
		return err
	}

	s.logger.Info("database created",
		zap.String("username", req.Username),
		zap.String("database", req.DBName),
	)
	return nil
}

// ListDatabases returns the database names owned by an authenticated user.
func (s *AuthService) ListDatabases(username, password string) ([]string, error) {
	if err := s.Authenticate(username, password); err != nil {
		return nil, err
	}

	entry, err := s.registry.User(username)
	if err != nil {
		return nil, err
	}
	return entry.Databases, nil
}

// Authorize authenticates the caller and confirms the database belongs to
// them. Databases owned by other users are off limits no matter the name.
func (s *AuthService) Authorize(username, password, dbName string) error {
	if err := s.Authenticate(username, password); err != nil {
		return err
	}

	has, err := s.registry.HasDatabase(username, dbName)
	if err != nil {
		return err
	}
	if !has {
		return apperrors.NewForbiddenError("Database access denied")
	}
	return nil
}

// isValidName rejects names that would escape the per-user directory.
func isValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, " /\\")
}
