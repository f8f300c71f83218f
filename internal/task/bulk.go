package task

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alloro/taskhub/internal/model"
)

// BulkFailure records one item that could not be updated.
type BulkFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult aggregates a bulk operation: how many items were updated and
// which ones failed, per item.
type BulkResult struct {
	Count    int           `json:"count"`
	Failures []BulkFailure `json:"failures,omitempty"`
}

// applyToEach runs the per-item operation over every ID independently. One
// item's failure never aborts the rest; there is deliberately no transaction
// around the batch and no rollback of already-applied updates. Items already
// in the target state count as successes, so re-running a bulk operation is
// safe.
func applyToEach(ids []int64, apply func(id int64) error) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, fmt.Errorf("%w: no task ids given", ErrValidation)
	}

	var res BulkResult
	for _, id := range ids {
		if err := apply(id); err != nil {
			res.Failures = append(res.Failures, BulkFailure{ID: id, Reason: Kind(err)})
			continue
		}
		res.Count++
	}
	return res, nil
}

// BulkSetStatus applies one status transition across many tasks. An invalid
// target status fails the whole call; per-item problems (unknown ID, archived
// task asked to move forward) are recorded as failures.
func BulkSetStatus(ctx context.Context, db *sql.DB, actor Actor, ids []int64, status string) (BulkResult, error) {
	if !model.ValidStatus(status) {
		return BulkResult{}, fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	return applyToEach(ids, func(id int64) error {
		_, err := SetStatus(ctx, db, actor, id, status)
		return err
	})
}

// BulkSetApproval applies one approval overwrite across many tasks.
func BulkSetApproval(ctx context.Context, db *sql.DB, actor Actor, ids []int64, approved bool) (BulkResult, error) {
	return applyToEach(ids, func(id int64) error {
		_, err := SetApproval(ctx, db, actor, id, approved)
		return err
	})
}

// BulkArchive soft-deletes many tasks at once.
func BulkArchive(ctx context.Context, db *sql.DB, actor Actor, ids []int64) (BulkResult, error) {
	return BulkSetStatus(ctx, db, actor, ids, model.StatusArchived)
}
