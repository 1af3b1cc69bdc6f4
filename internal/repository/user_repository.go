package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
)

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		u.Username, u.PasswordHash, u.Role, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return appErrors.ErrDuplicate
		}
		return errors.Wrap(err, "insert user")
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.get(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE username=$1`, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE id=$1`, id)
}

func (r *UserRepository) get(ctx context.Context, query string, key any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, key).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("user", key)
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
