// Package task implements the action item lifecycle engine: the status state
// machine, the approval gate, the category partition, and the bulk operation
// coordinator. Every mutating call takes an explicit Actor; role policy is
// never read from ambient state.
package task

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alloro/taskhub/internal/model"
	"github.com/alloro/taskhub/internal/store"
)

// Actor identifies the caller of a mutating operation.
type Actor struct {
	UserID         int64
	Role           string
	OrganizationID int64 // 0 means no organization (global admin)
}

// IsAdmin reports whether the actor has administrative privilege.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// Get returns a task by ID, or ErrNotFound.
func Get(ctx context.Context, db *sql.DB, id int64) (*model.Task, error) {
	t, err := store.GetTask(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return t, nil
}

// List returns the page of tasks matching the filter plus the total match
// count. The returned slice is never nil.
func List(ctx context.Context, db *sql.DB, f model.TaskFilter) ([]model.Task, int, error) {
	tasks, total, err := store.ListTasks(ctx, db, f)
	if err != nil {
		return nil, 0, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, total, nil
}

// Grouped is the client read path: the matching page partitioned by category.
func Grouped(ctx context.Context, db *sql.DB, f model.TaskFilter) (model.GroupedTasks, int, error) {
	tasks, total, err := List(ctx, db, f)
	if err != nil {
		return model.GroupedTasks{}, 0, err
	}
	return Partition(tasks), total, nil
}

// CreateInput holds the fields of a new task. Category defaults to USER and
// status to pending when empty.
type CreateInput struct {
	OrganizationID int64
	LocationID     *int64
	Title          string
	Description    string
	Category       string
	Status         string
	IsApproved     bool
	AgentType      string
	Metadata       *model.Metadata
	DueDate        *time.Time
}

// Create validates and inserts a new task. Admin only. createdByAdmin is
// derived once here: true unless the task comes from a non-manual agent.
func Create(ctx context.Context, db *sql.DB, actor Actor, in CreateInput) (*model.Task, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("creating tasks requires admin: %w", ErrUnauthorized)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	if in.Category == "" {
		in.Category = model.CategoryUser
	}
	if !model.ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w %q", ErrInvalidCategory, in.Category)
	}
	if in.Status == "" {
		in.Status = model.StatusPending
	}
	if !model.ValidStatus(in.Status) {
		return nil, fmt.Errorf("%w %q", ErrInvalidStatus, in.Status)
	}
	if !model.ValidAgentType(in.AgentType) {
		return nil, fmt.Errorf("%w: unknown agent type %q", ErrValidation, in.AgentType)
	}
	if err := in.Metadata.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	org, err := store.GetOrganization(ctx, db, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("%w: unknown organization %d", ErrValidation, in.OrganizationID)
	}

	t := &model.Task{
		OrganizationID: in.OrganizationID,
		LocationID:     in.LocationID,
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		Status:         in.Status,
		IsApproved:     in.IsApproved,
		CreatedByAdmin: in.AgentType == "" || in.AgentType == model.AgentManual,
		AgentType:      in.AgentType,
		Metadata:       in.Metadata,
		DueDate:        in.DueDate,
	}
	if t.Status == model.StatusComplete {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}

	return store.CreateTask(ctx, db, t)
}

// UpdateInput is the generic patch applied by the admin update path. Nil
// fields are left untouched. Category is excluded; it changes only through
// SetCategory.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	IsApproved  *bool
	AgentType   *string
	Metadata    *model.Metadata
	DueDate     *time.Time
}

// Update applies a generic field update. Admin only: the dedicated Complete
// operation is the single mutation open to non-admin callers. A status in the
// patch goes through the state machine, so {status: "pending"} on an archived
// task is the unarchive path.
func Update(ctx context.Context, db *sql.DB, actor Actor, id int64, in UpdateInput) (*model.Task, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("updating tasks requires admin: %w", ErrUnauthorized)
	}
	if in.Title != nil && *in.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	if in.Status != nil && !model.ValidStatus(*in.Status) {
		return nil, fmt.Errorf("%w %q", ErrInvalidStatus, *in.Status)
	}
	if in.AgentType != nil && !model.ValidAgentType(*in.AgentType) {
		return nil, fmt.Errorf("%w: unknown agent type %q", ErrValidation, *in.AgentType)
	}
	if in.Metadata != nil {
		if err := in.Metadata.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	cur, err := Get(ctx, db, id)
	if err != nil {
		return nil, err
	}

	patch := store.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		AgentType:   in.AgentType,
		Metadata:    in.Metadata,
		DueDate:     in.DueDate,
	}
	if err := store.UpdateTaskFields(ctx, db, id, patch); err != nil {
		return nil, err
	}

	if in.IsApproved != nil {
		if err := store.SetTaskApproval(ctx, db, id, *in.IsApproved); err != nil {
			return nil, err
		}
	}

	if in.Status != nil {
		if err := transition(ctx, db, cur, *in.Status); err != nil {
			return nil, err
		}
	}

	return Get(ctx, db, id)
}
