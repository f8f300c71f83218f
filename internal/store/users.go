package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alloro/taskhub/internal/model"
)

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var orgID sql.NullInt64
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &orgID, &u.CreatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	if orgID.Valid {
		u.OrganizationID = &orgID.Int64
	}
	return u, nil
}

// CreateUser creates a new user. orgID may be nil for global admins.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, role string, orgID *int64) (*model.User, error) {
	var org any
	if orgID != nil {
		org = *orgID
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, organization_id) VALUES (?, ?, ?, ?)`,
		username, passwordHash, role, org,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, organization_id, created_at, deleted_at
		 FROM users WHERE id = ?`, id,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a non-deleted user by username.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, organization_id, created_at, deleted_at
		 FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, password_hash, role, organization_id, created_at, deleted_at
		 FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's role and organization.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, role string, orgID *int64) error {
	var org any
	if orgID != nil {
		org = *orgID
	}
	_, err := db.ExecContext(ctx,
		`UPDATE users SET role = ?, organization_id = ? WHERE id = ? AND deleted_at IS NULL`,
		role, org, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
