package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/application/services"
	"github.com/sarychlabs/sarychdb/infrastructure/cache"
	"github.com/sarychlabs/sarychdb/infrastructure/config"
	"github.com/sarychlabs/sarychdb/infrastructure/persistence/file"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Port:                  3030,
		Environment:           "test",
		DataDir:               t.TempDir(),
		FileCacheTTL:          time.Minute,
		SearchCacheTTL:        time.Minute,
		SearchCacheMaxEntries: 100,
		ParallelThreshold:     1000,
	}
	logger := zap.NewNop()

	store := file.NewStore(logger)
	registry := file.NewRegistry(cfg.UsersFile(), logger)
	require.NoError(t, registry.Init())

	files := cache.NewFileCache(store, cfg.FileCacheTTL, logger)
	searches := cache.NewSearchCache(cfg.SearchCacheTTL, cfg.SearchCacheMaxEntries)

	auth := services.NewAuthService(cfg, registry, store, logger)
	db := services.NewDatabaseService(cfg, store, files, searches, logger)
	lists := services.NewListService(cfg, files, logger)

	return NewRouter(auth, db, lists, logger, true).Setup()
}

// do sends a request through the router and decodes the JSON response.
func do(t *testing.T, router http.Handler, method, path string, headers map[string]string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded),
		"response was not JSON: %s", rec.Body.String())
	return rec.Code, decoded
}

func sarychPath(target string) string {
	return "/sarych?url=" + url.QueryEscape(target)
}

func registerUserAndDatabase(t *testing.T, router http.Handler) map[string]string {
	t.Helper()

	code, body := do(t, router, http.MethodPost, "/users", nil,
		map[string]string{"username": "alice", "password": "secret"})
	require.Equal(t, http.StatusCreated, code, "create user: %v", body)

	code, body = do(t, router, http.MethodPost, "/databases", nil,
		map[string]string{"username": "alice", "password": "secret", "db_name": "inventory"})
	require.Equal(t, http.StatusCreated, code, "create database: %v", body)

	return map[string]string{"username": "alice", "password": "secret"}
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(t)

	code, body := do(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestUserAndDatabaseRegistration(t *testing.T) {
	router := setupRouter(t)
	registerUserAndDatabase(t, router)

	code, body := do(t, router, http.MethodGet,
		"/databases?username=alice&password=secret", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", body["user"])
	assert.Equal(t, []interface{}{"inventory"}, body["databases"])

	code, body = do(t, router, http.MethodPost, "/users", nil,
		map[string]string{"username": "alice", "password": "again"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body["error"], "already exists")
}

func TestSarychCRUDFlow(t *testing.T) {
	router := setupRouter(t)
	creds := registerUserAndDatabase(t, router)

	code, body := do(t, router, http.MethodPost, sarychPath("/inventory/post"), creds,
		map[string]interface{}{"sku": "P1605", "price": 49})
	require.Equal(t, http.StatusCreated, code, "%v", body)
	record := body["record"].(map[string]interface{})
	id := record["_id"].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, record["_created_at"])

	code, body = do(t, router, http.MethodGet, sarychPath("/inventory/get?query=P1605"), creds, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	assert.NotNil(t, body["time"], "every response carries its elapsed time")

	// Update by id via the idUpdate header.
	headers := map[string]string{"username": "alice", "password": "secret", "idUpdate": id}
	code, body = do(t, router, http.MethodPut, sarychPath("/inventory/put"), headers,
		map[string]interface{}{"status": "discounted"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["updated"])

	code, body = do(t, router, http.MethodGet, sarychPath("/inventory/get?query=discounted"), creds, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, body = do(t, router, http.MethodGet, sarychPath("/inventory/stats"), creds, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total_records"])

	code, body = do(t, router, http.MethodDelete, sarychPath("/inventory/delete?query=P1605"), creds, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["deleted"])

	code, body = do(t, router, http.MethodGet, sarychPath("/inventory/get?query=P1605"), creds, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
}

func TestSarychURLCredentials(t *testing.T) {
	router := setupRouter(t)
	registerUserAndDatabase(t, router)

	// Credentials inline in the sarychdb:// URL, no headers.
	code, _ := do(t, router, http.MethodGet,
		sarychPath("sarychdb://alice@secret/inventory/get?query=x"), nil, nil)
	assert.Equal(t, http.StatusOK, code)

	// Header credentials take precedence over the URL's.
	headers := map[string]string{"username": "alice", "password": "wrong"}
	code, body := do(t, router, http.MethodGet,
		sarychPath("sarychdb://alice@secret/inventory/get?query=x"), headers, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, body["error"])
}

func TestSarychAuthFailures(t *testing.T) {
	router := setupRouter(t)
	registerUserAndDatabase(t, router)

	code, _ := do(t, router, http.MethodGet, sarychPath("/inventory/get"), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "no credentials at all")

	headers := map[string]string{"username": "alice", "password": "wrong"}
	code, _ = do(t, router, http.MethodGet, sarychPath("/inventory/get"), headers, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// An authenticated user cannot reach a database they do not own.
	_, _ = do(t, router, http.MethodPost, "/users", nil,
		map[string]string{"username": "bob", "password": "hunter2"})
	headers = map[string]string{"username": "bob", "password": "hunter2"}
	code, _ = do(t, router, http.MethodGet, sarychPath("/inventory/get"), headers, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestSarychBadRequests(t *testing.T) {
	router := setupRouter(t)
	creds := registerUserAndDatabase(t, router)

	code, body := do(t, router, http.MethodGet, "/sarych", creds, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing 'url' parameter", body["error"])

	code, _ = do(t, router, http.MethodGet, sarychPath("/inventory/teleport"), creds, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	headers := map[string]string{"username": "alice", "password": "secret", "queryType": "fuzzy"}
	code, _ = do(t, router, http.MethodGet, sarychPath("/inventory/get"), headers, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, http.MethodPut, sarychPath("/inventory/put"), creds,
		map[string]interface{}{"price": 1})
	assert.Equal(t, http.StatusBadRequest, code, "put needs a query or an idUpdate header")

	code, _ = do(t, router, http.MethodDelete, sarychPath("/inventory/delete"), creds, nil)
	assert.Equal(t, http.StatusBadRequest, code, "delete needs a query")
}

func TestSarychBrowseAndList(t *testing.T) {
	router := setupRouter(t)
	creds := registerUserAndDatabase(t, router)

	for _, row := range []map[string]interface{}{
		{"sku": "P0001", "category": "tools", "price": 30},
		{"sku": "P0002", "category": "toys", "price": 10},
		{"sku": "P0003", "category": "tools", "price": 20},
	} {
		code, body := do(t, router, http.MethodPost, sarychPath("/inventory/post"), creds, row)
		require.Equal(t, http.StatusCreated, code, "%v", body)
	}

	headers := map[string]string{"username": "alice", "password": "secret", "limit": "2", "page": "1"}
	code, body := do(t, router, http.MethodGet, sarychPath("/inventory/browse"), headers, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 2)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, "paginated", pagination["mode"])
	assert.Equal(t, float64(3), pagination["total_records"])

	headers = map[string]string{
		"username": "alice", "password": "secret",
		"filters": `{"category":"tools"}`,
		"sortBy":  "price", "sortOrder": "asc",
		"limit": "10",
	}
	code, body = do(t, router, http.MethodGet, sarychPath("/inventory/list"), headers, nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "P0003", data[0].(map[string]interface{})["sku"])
	assert.Equal(t, "P0001", data[1].(map[string]interface{})["sku"])

	headers = map[string]string{"username": "alice", "password": "secret", "filters": "not json"}
	code, _ = do(t, router, http.MethodGet, sarychPath("/inventory/list"), headers, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	headers = map[string]string{"username": "alice", "password": "secret", "page": "2"}
	code, body = do(t, router, http.MethodGet, sarychPath("/inventory/browse"), headers, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot use 'page' without 'limit'.", body["error"])
}
