package task

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alloro/taskhub/internal/model"
	"github.com/alloro/taskhub/internal/store"
)

// SetApproval overwrites a task's approval flag. Approval is orthogonal to
// status: no timestamps, status, or category change as a side effect. Admin
// only.
func SetApproval(ctx context.Context, db *sql.DB, actor Actor, id int64, approved bool) (*model.Task, error) {
	cur, err := Get(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("setting approval requires admin: %w", ErrUnauthorized)
	}

	if err := store.SetTaskApproval(ctx, db, cur.ID, approved); err != nil {
		return nil, err
	}
	return Get(ctx, db, id)
}
