package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/application/services"
	"github.com/sarychlabs/sarychdb/domain/search"
	"github.com/sarychlabs/sarychdb/pkg/common"
	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

// SarychHandler serves the /sarych endpoint: it resolves the target,
// authorizes the caller and dispatches to the engine operation.
type SarychHandler struct {
	auth   *services.AuthService
	db     *services.DatabaseService
	lists  *services.ListService
	logger *zap.Logger
}

// NewSarychHandler creates a sarych protocol handler
func NewSarychHandler(
	auth *services.AuthService,
	db *services.DatabaseService,
	lists *services.ListService,
	logger *zap.Logger,
) *SarychHandler {
	return &SarychHandler{auth: auth, db: db, lists: lists, logger: logger}
}

// Handle processes ANY /sarych?url=<target>
func (h *SarychHandler) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	target, err := ParseTarget(r.URL.Query().Get("url"))
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	// Header credentials win; the URL form's are a fallback.
	username := r.Header.Get("username")
	password := r.Header.Get("password")
	if username == "" && password == "" {
		username, password = target.Username, target.Password
	}

	if err := h.auth.Authorize(username, password, target.Database); err != nil {
		common.RespondError(w, err, start)
		return
	}

	mode, err := search.ParseMode(r.Header.Get("queryType"))
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	switch strings.ToLower(target.Operation) {
	case "get":
		h.handleGet(w, r, start, username, target, mode)
	case "post":
		h.handlePost(w, r, start, username, target)
	case "put":
		h.handlePut(w, r, start, username, target, mode)
	case "delete":
		h.handleDelete(w, r, start, username, target, mode)
	case "stats":
		h.handleStats(w, start, username, target)
	case "browse":
		h.handleBrowse(w, r, start, username, target)
	case "list":
		h.handleList(w, r, start, username, target)
	default:
		common.RespondError(w, apperrors.NewBadRequestError(
			"Unsupported operation. Use: get, post, put, delete, stats, browse, list"), start)
	}
}

func (h *SarychHandler) handleGet(w http.ResponseWriter, r *http.Request, start time.Time, username string, target *Target, mode search.Mode) {
	results, err := h.db.Search(username, target.Database, target.Query, mode)
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusOK, common.Body{
		"operation": "get",
		"database":  target.Database,
		"query":     target.Query,
		"count":     len(results),
		"results":   results,
	}, start)
}

func (h *SarychHandler) handlePost(w http.ResponseWriter, r *http.Request, start time.Time, username string, target *Target) {
	var fields map[string]interface{}
	if err := common.DecodeJSONBody(r, &fields); err != nil {
		common.RespondError(w, err, start)
		return
	}

	rec, err := h.db.Insert(username, target.Database, fields)
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusCreated, common.Body{
		"operation": "post",
		"database":  target.Database,
		"record":    rec,
	}, start)
}

func (h *SarychHandler) handlePut(w http.ResponseWriter, r *http.Request, start time.Time, username string, target *Target, mode search.Mode) {
	var patch map[string]interface{}
	if err := common.DecodeJSONBody(r, &patch); err != nil {
		common.RespondError(w, err, start)
		return
	}

	var updated int
	var err error
	if id := r.Header.Get("idUpdate"); id != "" {
		updated, err = h.db.UpdateByID(username, target.Database, id, patch)
	} else if target.Query == "" {
		err = apperrors.NewBadRequestError("Query or idUpdate header required for put operation")
	} else {
		updated, err = h.db.UpdateByQuery(username, target.Database, target.Query, mode, patch)
	}
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusOK, common.Body{
		"operation": "put",
		"database":  target.Database,
		"updated":   updated,
	}, start)
}

func (h *SarychHandler) handleDelete(w http.ResponseWriter, r *http.Request, start time.Time, username string, target *Target, mode search.Mode) {
	if target.Query == "" {
		common.RespondError(w, apperrors.NewBadRequestError("Query required for delete operation"), start)
		return
	}

	deleted, err := h.db.DeleteByQuery(username, target.Database, target.Query, mode)
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusOK, common.Body{
		"operation": "delete",
		"database":  target.Database,
		"deleted":   deleted,
	}, start)
}

func (h *SarychHandler) handleStats(w http.ResponseWriter, start time.Time, username string, target *Target) {
	stats, err := h.db.Stats(username, target.Database)
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusOK, common.Body{
		"operation":     "stats",
		"database":      target.Database,
		"total_records": stats.TotalRecords,
		"size_bytes":    stats.SizeBytes,
		"read_time_ms":  stats.ReadTimeMs,
		"cached":        stats.Cached,
	}, start)
}

func (h *SarychHandler) handleBrowse(w http.ResponseWriter, r *http.Request, start time.Time, username string, target *Target) {
	page, err := parsePageHeaders(r)
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	result, err := h.lists.Browse(username, target.Database, page)
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusOK, common.Body{
		"operation":  "browse",
		"database":   target.Database,
		"data":       result.Data,
		"pagination": result.Pagination,
	}, start)
}

func (h *SarychHandler) handleList(w http.ResponseWriter, r *http.Request, start time.Time, username string, target *Target) {
	page, err := parsePageHeaders(r)
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	filters, err := parseFiltersHeader(r.Header.Get("filters"))
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	opts := services.ListOptions{
		Page:      page,
		SortBy:    r.Header.Get("sortBy"),
		SortOrder: r.Header.Get("sortOrder"),
		Filters:   filters,
	}

	result, err := h.lists.List(username, target.Database, opts)
	if err != nil {
		common.RespondError(w, err, start)
		return
	}

	common.RespondJSON(w, http.StatusOK, common.Body{
		"operation":  "list",
		"database":   target.Database,
		"data":       result.Data,
		"pagination": result.Pagination,
	}, start)
}

func parsePageHeaders(r *http.Request) (common.PageRequest, error) {
	var page common.PageRequest

	if raw := r.Header.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, apperrors.NewBadRequestError("'limit' must be an integer")
		}
		page.Limit = &n
	}
	if raw := r.Header.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, apperrors.NewBadRequestError("'page' must be an integer")
		}
		page.Page = &n
	}
	return page, nil
}

func parseFiltersHeader(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, nil
	}

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var filters map[string]interface{}
	if err := decoder.Decode(&filters); err != nil {
		return nil, apperrors.NewBadRequestError("Invalid 'filters' header: must be a JSON object")
	}
	return filters, nil
}
