package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"order-service/internal/model"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByID returns model.ErrUserNotFound when no row matches. Malformed ids
// are reported the same way so token subjects never surface as query errors.
func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	if !isUUID(id) {
		return model.User{}, model.ErrUserNotFound
	}

	var (
		u    model.User
		role string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, phone_number, role, created_at, updated_at
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.PhoneNumber, &role, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}

	u.Role, err = model.ParseRole(role)
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}
