package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/tablemate/internal/db"
	"github.com/example/tablemate/internal/domain/user"
)

const uniqueViolation = "23505"

// PGUsers keeps staff accounts in the staff_users table.
type PGUsers struct{ db *db.DB }

func NewPGUsers(d *db.DB) *PGUsers { return &PGUsers{db: d} }

func (p *PGUsers) Create(ctx context.Context, u user.User) (user.User, error) {
	err := p.db.QueryRow(ctx,
		`INSERT INTO staff_users (username, password_bcrypt) VALUES ($1,$2) RETURNING id, created_at`,
		u.Username, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return user.User{}, fmt.Errorf("%s: %w", u.Username, ErrUserExists)
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (p *PGUsers) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	err := p.db.QueryRow(ctx,
		`SELECT id, username, password_bcrypt, created_at FROM staff_users WHERE username=$1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return user.User{}, db.WrapNotFound(err)
	}
	return u, nil
}
