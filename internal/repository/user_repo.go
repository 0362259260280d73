package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidtube/internal/model"
	"vidtube/pkg/apierror"
)

const userColumns = `id, username, email, full_name, avatar, cover_image,
		        password_hash, refresh_token, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage,
		&u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apierror.NotFound("user not found")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username)))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apierror.NotFound("user not found")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// FindByEmailOrUsername resolves a login identifier: it matches either
// column, case-insensitively.
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, identifier string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE lower(email) = lower($1) OR lower(username) = lower($1)`,
		strings.TrimSpace(identifier)))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apierror.NotFound("user does not exist")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by identifier: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM users
			WHERE lower(username) = lower($1) OR lower(email) = lower($2)
		)`,
		strings.TrimSpace(username), strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, full_name, avatar, cover_image,
		                    password_hash, refresh_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.FullName, u.Avatar, u.CoverImage,
		u.PasswordHash, u.RefreshToken, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID string, refreshToken string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1`,
		userID, refreshToken, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.NotFound("user not found")
	}
	return nil
}

// RotateRefreshToken is a compare-and-overwrite: the stored token is
// replaced only if it still equals current. The row-level write
// serialization of the store makes this the only ordering guarantee the
// refresh flow needs; of two racing refreshes with the same stale token,
// at most one sees rotated == true.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, userID string, current string, next string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $3, updated_at = $4
		 WHERE id = $1 AND refresh_token = $2`,
		userID, current, next, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = '', updated_at = $2 WHERE id = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.NotFound("user not found")
	}
	return nil
}

func (r *UserRepository) UpdateAccountDetails(ctx context.Context, userID string, fullName string, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET full_name = $2, email = lower($3), updated_at = $4 WHERE id = $1`,
		userID, fullName, email, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update account details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.NotFound("user not found")
	}
	return nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, userID string, avatarURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET avatar = $2, updated_at = $3 WHERE id = $1`,
		userID, avatarURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.NotFound("user not found")
	}
	return nil
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, userID string, coverURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET cover_image = $2, updated_at = $3 WHERE id = $1`,
		userID, coverURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update cover image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.NotFound("user not found")
	}
	return nil
}
