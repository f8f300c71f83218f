package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alloro/taskhub/internal/model"
)

// CreateOrganization creates a new organization.
func CreateOrganization(ctx context.Context, db *sql.DB, name string) (*model.Organization, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO organizations (name) VALUES (?)`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating organization: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting organization id: %w", err)
	}

	return GetOrganization(ctx, db, id)
}

// GetOrganization returns an organization by ID.
func GetOrganization(ctx context.Context, db *sql.DB, id int64) (*model.Organization, error) {
	o := &model.Organization{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM organizations WHERE id = ?`, id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting organization: %w", err)
	}
	return o, nil
}

// ListOrganizations returns all non-deleted organizations ordered by name.
func ListOrganizations(ctx context.Context, db *sql.DB) ([]model.Organization, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM organizations
		 WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt, &o.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}
