package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alloro/taskhub/internal/model"
	"github.com/alloro/taskhub/internal/store"
	"github.com/alloro/taskhub/internal/task"
)

// TasksHandler handles the action item endpoints.
type TasksHandler struct {
	DB *sql.DB
}

type createTaskRequest struct {
	OrganizationID int64           `json:"organization_id"`
	LocationID     *int64          `json:"location_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Status         string          `json:"status"`
	IsApproved     bool            `json:"is_approved"`
	AgentType      string          `json:"agent_type"`
	Metadata       *model.Metadata `json:"metadata"`
	DueDate        *time.Time      `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	IsApproved  *bool           `json:"is_approved"`
	AgentType   *string         `json:"agent_type"`
	Metadata    *model.Metadata `json:"metadata"`
	DueDate     *time.Time      `json:"due_date"`
}

type recategorizeRequest struct {
	Category string `json:"category"`
}

type bulkDeleteRequest struct {
	TaskIDs []int64 `json:"taskIds"`
}

type bulkStatusRequest struct {
	TaskIDs []int64 `json:"taskIds"`
	Status  string  `json:"status"`
}

type bulkApproveRequest struct {
	TaskIDs    []int64 `json:"taskIds"`
	IsApproved bool    `json:"is_approved"`
}

// Health handles GET /api/tasks/health.
func (h *TasksHandler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// List handles GET /api/tasks: the caller's own tasks, grouped by category.
// The organization is resolved from the auth claims, never from the request.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var f model.TaskFilter
	if claims.OrganizationID > 0 {
		orgID := claims.OrganizationID
		f.OrganizationID = &orgID
	}
	if v := r.URL.Query().Get("locationId"); v != "" {
		locID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid locationId")
			return
		}
		f.LocationID = &locID
	}
	f.Limit, f.Offset = pageParams(r)

	grouped, _, err := task.Grouped(r.Context(), h.DB, f)
	if err != nil {
		taskError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"tasks": grouped})
}

// AdminList handles GET /api/tasks/admin/all: a flat filtered list across all
// organizations plus the total match count.
func (h *TasksHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, total, err := task.List(r.Context(), h.DB, f)
	if err != nil {
		taskError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"tasks": tasks, "total": total})
}

// Get handles GET /api/tasks/{id}.
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	t, err := task.Get(r.Context(), h.DB, id)
	if err != nil {
		taskError(w, err)
		return
	}

	// Non-admin callers only see their own organization's tasks.
	claims := GetClaims(r.Context())
	if claims.Role != model.RoleAdmin && t.OrganizationID != claims.OrganizationID {
		jsonError(w, http.StatusNotFound, "task not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"task": t})
}

// Create handles POST /api/tasks.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := task.Create(r.Context(), h.DB, actorFrom(r.Context()), task.CreateInput{
		OrganizationID: req.OrganizationID,
		LocationID:     req.LocationID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Status:         req.Status,
		IsApproved:     req.IsApproved,
		AgentType:      req.AgentType,
		Metadata:       req.Metadata,
		DueDate:        req.DueDate,
	})
	if err != nil {
		taskError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("task created", "user", claims.Username, "task", t.ID, "category", t.Category)
	jsonResponse(w, http.StatusCreated, map[string]any{"task": t, "message": "task created"})
}

// Update handles PATCH /api/tasks/{id}: the generic field update. Setting
// status to pending here is also the unarchive path.
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := task.Update(r.Context(), h.DB, actorFrom(r.Context()), id, task.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		IsApproved:  req.IsApproved,
		AgentType:   req.AgentType,
		Metadata:    req.Metadata,
		DueDate:     req.DueDate,
	})
	if err != nil {
		taskError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"task": t, "message": "task updated"})
}

// Complete handles PATCH /api/tasks/{id}/complete.
func (h *TasksHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	t, err := task.Complete(r.Context(), h.DB, actorFrom(r.Context()), id)
	if err != nil {
		taskError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"task": t, "message": "task completed"})
}

// Recategorize handles PATCH /api/tasks/{id}/category.
func (h *TasksHandler) Recategorize(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req recategorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := task.SetCategory(r.Context(), h.DB, actorFrom(r.Context()), id, req.Category)
	if err != nil {
		taskError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("task recategorized", "user", claims.Username, "task", t.ID, "category", t.Category)
	jsonResponse(w, http.StatusOK, map[string]any{"task": t, "message": "task recategorized"})
}

// Delete handles DELETE /api/tasks/{id}: soft delete via the archived status.
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if _, err := task.Archive(r.Context(), h.DB, actorFrom(r.Context()), id); err != nil {
		taskError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"message": "task archived"})
}

// BulkDelete handles POST /api/tasks/bulk/delete.
func (h *TasksHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := task.BulkArchive(r.Context(), h.DB, actorFrom(r.Context()), req.TaskIDs)
	if err != nil {
		taskError(w, err)
		return
	}

	writeBulkResult(w, res, "tasks archived")
}

// BulkStatus handles POST /api/tasks/bulk/status. Passing status "pending"
// bulk-unarchives.
func (h *TasksHandler) BulkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := task.BulkSetStatus(r.Context(), h.DB, actorFrom(r.Context()), req.TaskIDs, req.Status)
	if err != nil {
		taskError(w, err)
		return
	}

	writeBulkResult(w, res, "task statuses updated")
}

// BulkApprove handles POST /api/tasks/bulk/approve.
func (h *TasksHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	var req bulkApproveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := task.BulkSetApproval(r.Context(), h.DB, actorFrom(r.Context()), req.TaskIDs, req.IsApproved)
	if err != nil {
		taskError(w, err)
		return
	}

	writeBulkResult(w, res, "task approvals updated")
}

// Clients handles GET /api/tasks/clients: assignable organizations.
func (h *TasksHandler) Clients(w http.ResponseWriter, r *http.Request) {
	orgs, err := store.ListOrganizations(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list organizations", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list clients")
		return
	}
	if orgs == nil {
		orgs = []model.Organization{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"clients": orgs})
}

func writeBulkResult(w http.ResponseWriter, res task.BulkResult, message string) {
	fields := map[string]any{"message": message, "count": res.Count}
	if len(res.Failures) > 0 {
		fields["failures"] = res.Failures
	}
	jsonResponse(w, http.StatusOK, fields)
}

func taskID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func pageParams(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, _ = strconv.Atoi(v)
	}
	return limit, offset
}

// filterFromQuery parses the admin list filters.
func filterFromQuery(r *http.Request) (model.TaskFilter, error) {
	var f model.TaskFilter
	q := r.URL.Query()

	if v := q.Get("organizationId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("invalid organizationId")
		}
		f.OrganizationID = &id
	}
	if v := q.Get("locationId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("invalid locationId")
		}
		f.LocationID = &id
	}
	if v := q.Get("category"); v != "" {
		if !model.ValidCategory(v) {
			return f, fmt.Errorf("invalid category")
		}
		f.Category = v
	}
	if v := q.Get("status"); v != "" {
		if !model.ValidStatus(v) {
			return f, fmt.Errorf("invalid status")
		}
		f.Status = v
	}
	if v := q.Get("isApproved"); v != "" {
		approved, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid isApproved")
		}
		f.IsApproved = &approved
	}
	if v := q.Get("agentType"); v != "" {
		if !model.ValidAgentType(v) {
			return f, fmt.Errorf("invalid agentType")
		}
		f.AgentType = v
	}
	if v := q.Get("dateFrom"); v != "" {
		ts, err := parseTimeParam(v)
		if err != nil {
			return f, fmt.Errorf("invalid dateFrom")
		}
		f.DateFrom = &ts
	}
	if v := q.Get("dateTo"); v != "" {
		ts, err := parseTimeParam(v)
		if err != nil {
			return f, fmt.Errorf("invalid dateTo")
		}
		f.DateTo = &ts
	}
	f.Limit, f.Offset = pageParams(r)

	return f, nil
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates.
func parseTimeParam(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts, nil
	}
	return time.Parse(time.DateOnly, v)
}
