package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

const userColumns = `
	id, username, email, name, password_hash, role, status,
	must_reset_password, login_attempts, last_login_attempt,
	last_login_at, last_password_change_at, created_at, updated_at, deleted_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, username, email, name, password_hash, role, status,
			must_reset_password, last_password_change_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastPasswordChangeAt = &now

	_, err := r.conn(ctx).ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.MustResetPassword,
		user.LastPasswordChangeAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapError(err, "failed to create user")
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	var user model.User
	if err := r.conn(ctx).GetContext(ctx, &user, query, id); err != nil {
		return nil, mapError(err, "failed to get user")
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1) AND deleted_at IS NULL`

	var user model.User
	if err := r.conn(ctx).GetContext(ctx, &user, query, username); err != nil {
		return nil, mapError(err, "failed to get user by username")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND deleted_at IS NULL`

	var user model.User
	if err := r.conn(ctx).GetContext(ctx, &user, query, email); err != nil {
		return nil, mapError(err, "failed to get user by email")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			email = $1,
			name = $2,
			role = $3,
			status = $4,
			login_attempts = $5,
			updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`

	user.UpdatedAt = time.Now()
	result, err := r.conn(ctx).ExecContext(ctx, query,
		user.Email,
		user.Name,
		user.Role,
		user.Status,
		user.LoginAttempts,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapError(err, "failed to update user")
	}
	return expectRows(result, "failed to update user")
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, mustReset bool) error {
	query := `
		UPDATE users SET
			password_hash = $1,
			must_reset_password = $2,
			last_password_change_at = NOW(),
			login_attempts = 0,
			updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := r.conn(ctx).ExecContext(ctx, query, passwordHash, mustReset, id)
	if err != nil {
		return mapError(err, "failed to update password")
	}
	return expectRows(result, "failed to update password")
}

func (r *userRepository) RecordLoginAttempt(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			status = $1,
			login_attempts = $2,
			last_login_attempt = $3,
			last_login_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`

	result, err := r.conn(ctx).ExecContext(ctx, query,
		user.Status,
		user.LoginAttempts,
		user.LastLoginAttempt,
		user.LastLoginAt,
		user.ID,
	)
	if err != nil {
		return mapError(err, "failed to record login attempt")
	}
	return expectRows(result, "failed to record login attempt")
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET deleted_at = NOW(), status = 'inactive'
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return mapError(err, "failed to delete user")
	}
	return expectRows(result, "failed to delete user")
}

func (r *userRepository) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []interface{}{}

	if filters.Role != "" {
		query += fmt.Sprintf(" AND role = $%d", len(args)+1)
		args = append(args, filters.Role)
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filters.Status)
	}

	page := filters.Page.Normalize()
	query += fmt.Sprintf(" ORDER BY username LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)

	var users []*model.User
	if err := r.conn(ctx).SelectContext(ctx, &users, query, args...); err != nil {
		return nil, mapError(err, "failed to list users")
	}
	return users, nil
}
