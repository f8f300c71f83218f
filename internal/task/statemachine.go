package task

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alloro/taskhub/internal/model"
	"github.com/alloro/taskhub/internal/store"
)

// transition applies one status change to a loaded task and persists it as a
// single row update. Rules:
//
//   - every status is reachable from every other, except that an archived
//     task may only be restored to pending (or stay archived);
//   - completed_at is set exactly when entering complete and cleared when
//     leaving it;
//   - re-completing a complete task is a no-op (completed_at is untouched).
func transition(ctx context.Context, db *sql.DB, cur *model.Task, newStatus string) error {
	if cur.Status == model.StatusArchived &&
		newStatus != model.StatusPending && newStatus != model.StatusArchived {
		return fmt.Errorf("%w: archived tasks must be restored to pending first", ErrInvalidStatus)
	}

	var completedAt *time.Time
	switch {
	case newStatus == model.StatusComplete && cur.Status == model.StatusComplete:
		// Idempotent: keep the original completion time.
		return nil
	case newStatus == model.StatusComplete:
		now := time.Now().UTC()
		completedAt = &now
	}

	return store.SetTaskStatus(ctx, db, cur.ID, newStatus, completedAt)
}

// SetStatus validates and applies a status transition for a single task and
// returns the updated row. Admin only: non-admin staff may only complete USER
// tasks, through Complete.
func SetStatus(ctx context.Context, db *sql.DB, actor Actor, id int64, status string) (*model.Task, error) {
	if !model.ValidStatus(status) {
		return nil, fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}

	cur, err := Get(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("changing task status requires admin: %w", ErrUnauthorized)
	}

	if err := transition(ctx, db, cur, status); err != nil {
		return nil, err
	}
	return Get(ctx, db, id)
}

// Complete marks a task complete. This is the one mutation open to non-admin
// callers: a manager may complete staff-assigned (USER) tasks. System
// (ALLORO) tasks stay admin-only.
func Complete(ctx context.Context, db *sql.DB, actor Actor, id int64) (*model.Task, error) {
	cur, err := Get(ctx, db, id)
	if err != nil {
		return nil, err
	}

	allowed := actor.IsAdmin() ||
		(cur.Category == model.CategoryUser && model.RoleAtLeast(actor.Role, model.RoleManager))
	if !allowed {
		return nil, fmt.Errorf("completing this task requires edit privilege: %w", ErrUnauthorized)
	}

	if err := transition(ctx, db, cur, model.StatusComplete); err != nil {
		return nil, err
	}
	return Get(ctx, db, id)
}

// Archive soft-deletes a task. Category, approval, and metadata are untouched.
func Archive(ctx context.Context, db *sql.DB, actor Actor, id int64) (*model.Task, error) {
	return SetStatus(ctx, db, actor, id, model.StatusArchived)
}
