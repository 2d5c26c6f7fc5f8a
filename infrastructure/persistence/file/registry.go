package file

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

// UserEntry is one user's registry record: the credential hash and the
// names of the databases the user owns.
type UserEntry struct {
	PasswordHash string   `json:"password_hash"`
	Databases    []string `json:"databases"`
}

// Registry persists the process-global user registry as a single JSON
// object keyed by username. All writes serialize under one lock and land
// atomically, mirroring the database file store.
type Registry struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewRegistry creates a registry backed by the given file
func NewRegistry(path string, logger *zap.Logger) *Registry {
	return &Registry{path: path, logger: logger}
}

// Init creates an empty registry file if none exists yet.
func (r *Registry) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return apperrors.NewIOError("stat registry", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return apperrors.NewIOError("create data directory", err)
	}
	return r.save(map[string]*UserEntry{})
}

// CreateUser adds a user with the given password hash.
func (r *Registry) CreateUser(username, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}
	if _, exists := users[username]; exists {
		return apperrors.NewConflictError("User already exists")
	}

	users[username] = &UserEntry{PasswordHash: passwordHash, Databases: []string{}}
	return r.save(users)
}

// User returns a copy of the registry entry for username.
func (r *Registry) User(username string) (*UserEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}
	entry, exists := users[username]
	if !exists {
		return nil, apperrors.NewNotFoundError("user")
	}

	dbs := make([]string, len(entry.Databases))
	copy(dbs, entry.Databases)
	return &UserEntry{PasswordHash: entry.PasswordHash, Databases: dbs}, nil
}

// AddDatabase records a new database name under username.
func (r *Registry) AddDatabase(username, dbName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}
	entry, exists := users[username]
	if !exists {
		return apperrors.NewNotFoundError("user")
	}
	for _, existing := range entry.Databases {
		if existing == dbName {
			return apperrors.NewConflictError("Database already exists for this user")
		}
	}

	entry.Databases = append(entry.Databases, dbName)
	return r.save(users)
}

// HasDatabase reports whether username owns dbName.
func (r *Registry) HasDatabase(username, dbName string) (bool, error) {
	entry, err := r.User(username)
	if err != nil {
		return false, err
	}
	for _, existing := range entry.Databases {
		if existing == dbName {
			return true, nil
		}
	}
	return false, nil
}

// load must run under r.mu.
func (r *Registry) load() (map[string]*UserEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*UserEntry{}, nil
		}
		return nil, apperrors.NewIOError("read registry", err)
	}

	var users map[string]*UserEntry
	if err := json.Unmarshal(data, &users); err != nil {
		r.logger.Error("user registry failed to parse",
			zap.String("path", r.path),
			zap.Error(err),
		)
		return nil, apperrors.NewCorruptError(r.path, err)
	}
	if users == nil {
		users = map[string]*UserEntry{}
	}
	return users, nil
}

// save must run under r.mu.
func (r *Registry) save(users map[string]*UserEntry) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return apperrors.NewIOError("serialize registry", err)
	}
	if err := atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return apperrors.NewIOError("write registry", err)
	}
	return nil
}
