package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alloro/taskhub/internal/model"
)

const taskColumns = `id, organization_id, location_id, title, description, category, status,
	is_approved, created_by_admin, agent_type, metadata, due_date, completed_at, created_at, updated_at`

// sqliteTime is the layout CURRENT_TIMESTAMP produces, used for range
// comparisons against created_at.
const sqliteTime = "2006-01-02 15:04:05"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	t := &model.Task{}
	var description, agentType, metadata sql.NullString
	var locationID sql.NullInt64
	err := row.Scan(
		&t.ID, &t.OrganizationID, &locationID, &t.Title, &description, &t.Category, &t.Status,
		&t.IsApproved, &t.CreatedByAdmin, &agentType, &metadata, &t.DueDate, &t.CompletedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.AgentType = agentType.String
	if locationID.Valid {
		t.LocationID = &locationID.Int64
	}
	if metadata.Valid && metadata.String != "" {
		m := &model.Metadata{}
		if err := json.Unmarshal([]byte(metadata.String), m); err != nil {
			return nil, fmt.Errorf("decoding task metadata: %w", err)
		}
		t.Metadata = m
	}
	return t, nil
}

func encodeMetadata(m *model.Metadata) (any, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding task metadata: %w", err)
	}
	return string(data), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateTask inserts a new task and returns the stored row.
func CreateTask(ctx context.Context, db *sql.DB, t *model.Task) (*model.Task, error) {
	metadata, err := encodeMetadata(t.Metadata)
	if err != nil {
		return nil, err
	}

	var locationID any
	if t.LocationID != nil {
		locationID = *t.LocationID
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO tasks (organization_id, location_id, title, description, category, status,
		     is_approved, created_by_admin, agent_type, metadata, due_date, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OrganizationID, locationID, t.Title, nullString(t.Description), t.Category, t.Status,
		t.IsApproved, t.CreatedByAdmin, nullString(t.AgentType), metadata, t.DueDate, t.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting task id: %w", err)
	}

	return GetTask(ctx, db, id)
}

// GetTask returns a task by ID, or nil if it doesn't exist.
func GetTask(ctx context.Context, db *sql.DB, id int64) (*model.Task, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// buildTaskWhere translates a filter into WHERE clauses and bind args.
func buildTaskWhere(f model.TaskFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.OrganizationID != nil {
		clauses = append(clauses, "organization_id = ?")
		args = append(args, *f.OrganizationID)
	}
	if f.LocationID != nil {
		clauses = append(clauses, "location_id = ?")
		args = append(args, *f.LocationID)
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.IsApproved != nil {
		clauses = append(clauses, "is_approved = ?")
		args = append(args, *f.IsApproved)
	}
	if f.AgentType != "" {
		clauses = append(clauses, "agent_type = ?")
		args = append(args, f.AgentType)
	}
	if f.DateFrom != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.DateFrom.UTC().Format(sqliteTime))
	}
	if f.DateTo != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.DateTo.UTC().Format(sqliteTime))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListTasks returns the page of tasks matching the filter, most recent first,
// plus the total number of matching rows.
func ListTasks(ctx context.Context, db *sql.DB, f model.TaskFilter) ([]model.Task, int, error) {
	where, args := buildTaskWhere(f)

	var total int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting tasks: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = model.DefaultPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, total, rows.Err()
}

// SetTaskStatus updates a task's status and completed_at in one atomic row
// update. Pass a nil completedAt to clear the column.
func SetTaskStatus(ctx context.Context, db *sql.DB, id int64, status string, completedAt *time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("updating task status: %w", err)
	}
	return nil
}

// SetTaskApproval overwrites a task's approval flag. Nothing else changes
// besides updated_at.
func SetTaskApproval(ctx context.Context, db *sql.DB, id int64, approved bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE tasks SET is_approved = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		approved, id,
	)
	if err != nil {
		return fmt.Errorf("updating task approval: %w", err)
	}
	return nil
}

// SetTaskCategory overwrites a task's category. Nothing else changes besides
// updated_at.
func SetTaskCategory(ctx context.Context, db *sql.DB, id int64, category string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE tasks SET category = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		category, id,
	)
	if err != nil {
		return fmt.Errorf("updating task category: %w", err)
	}
	return nil
}

// TaskPatch carries the optional field updates of the generic task update.
// Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	AgentType   *string
	Metadata    *model.Metadata
	DueDate     *time.Time
}

// UpdateTaskFields applies a patch of non-lifecycle fields in one row update.
func UpdateTaskFields(ctx context.Context, db *sql.DB, id int64, patch TaskPatch) error {
	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*patch.Description))
	}
	if patch.AgentType != nil {
		sets = append(sets, "agent_type = ?")
		args = append(args, nullString(*patch.AgentType))
	}
	if patch.Metadata != nil {
		metadata, err := encodeMetadata(patch.Metadata)
		if err != nil {
			return err
		}
		sets = append(sets, "metadata = ?")
		args = append(args, metadata)
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *patch.DueDate)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, append(args, id)...); err != nil {
		return fmt.Errorf("updating task fields: %w", err)
	}
	return nil
}
