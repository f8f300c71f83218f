package task

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alloro/taskhub/internal/model"
	"github.com/alloro/taskhub/internal/store"
)

// Partition groups tasks into the ALLORO (system-generated) and USER
// (staff-assigned) lanes. Pure and order-preserving; both groups are non-nil.
func Partition(tasks []model.Task) model.GroupedTasks {
	g := model.GroupedTasks{
		Alloro: []model.Task{},
		User:   []model.Task{},
	}
	for _, t := range tasks {
		if t.Category == model.CategoryAlloro {
			g.Alloro = append(g.Alloro, t)
		} else {
			g.User = append(g.User, t)
		}
	}
	return g
}

// SetCategory is the single operation allowed to change a task's category.
// Admin only; status, approval, and completion time are untouched.
func SetCategory(ctx context.Context, db *sql.DB, actor Actor, id int64, category string) (*model.Task, error) {
	if !model.ValidCategory(category) {
		return nil, fmt.Errorf("%w %q", ErrInvalidCategory, category)
	}

	cur, err := Get(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("recategorizing requires admin: %w", ErrUnauthorized)
	}

	if err := store.SetTaskCategory(ctx, db, cur.ID, category); err != nil {
		return nil, err
	}
	return Get(ctx, db, id)
}
