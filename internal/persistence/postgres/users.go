package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/workoutlog/internal/identity"
)

const uniqueViolation = "23505"

// UserRepository stores accounts in the users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByUsername returns the user, or nil when the username is unknown.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	const query = `SELECT username, password_hash, guest, created_at FROM users WHERE username=$1`

	var user identity.User
	err := r.pool.QueryRow(ctx, query, username).Scan(&user.Username, &user.PasswordHash, &user.Guest, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts the user, mapping a duplicate username to ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, user identity.User) error {
	const stmt = `INSERT INTO users (username, password_hash, guest, created_at) VALUES ($1,$2,$3,$4)`

	_, err := r.pool.Exec(ctx, stmt, user.Username, user.PasswordHash, user.Guest, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return identity.ErrUsernameTaken
		}
		return err
	}
	return nil
}

// CreateIfAbsent inserts the user unless the username exists, then returns
// the stored row. Two concurrent guest logins with the same id both land on
// the row that won the insert.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, user identity.User) (*identity.User, error) {
	const stmt = `INSERT INTO users (username, password_hash, guest, created_at)
        VALUES ($1,$2,$3,$4) ON CONFLICT (username) DO NOTHING`

	if _, err := r.pool.Exec(ctx, stmt, user.Username, user.PasswordHash, user.Guest, user.CreatedAt); err != nil {
		return nil, err
	}
	return r.FindByUsername(ctx, user.Username)
}
