package task

import (
	"context"
	"errors"
	"testing"

	"github.com/alloro/taskhub/internal/db"
	"github.com/alloro/taskhub/internal/model"
)

func TestSetApprovalTogglesOnlyApproval(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	orgID := newTestOrg(t, database)
	created := newTestTask(t, database, orgID, model.CategoryAlloro)

	updated, err := SetApproval(ctx, database, adminActor(), created.ID, true)
	if err != nil {
		t.Fatalf("SetApproval: %v", err)
	}
	if !updated.IsApproved {
		t.Error("expected approved")
	}
	if updated.Status != created.Status || updated.Category != created.Category {
		t.Errorf("approval changed status or category: %s/%s", updated.Status, updated.Category)
	}
	if updated.CompletedAt != nil {
		t.Error("approval must not touch completed_at")
	}

	// Overwriting with the same value is fine.
	again, err := SetApproval(ctx, database, adminActor(), created.ID, true)
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if !again.IsApproved {
		t.Error("expected still approved")
	}

	revoked, err := SetApproval(ctx, database, adminActor(), created.ID, false)
	if err != nil {
		t.Fatalf("unapprove: %v", err)
	}
	if revoked.IsApproved {
		t.Error("expected unapproved")
	}
}

func TestSetApprovalUnknownTask(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := SetApproval(context.Background(), database, adminActor(), 404, true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetApprovalRequiresAdmin(t *testing.T) {
	database := db.NewTestDB(t)
	orgID := newTestOrg(t, database)
	created := newTestTask(t, database, orgID, model.CategoryUser)

	_, err := SetApproval(context.Background(), database, managerActor(orgID), created.ID, true)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
