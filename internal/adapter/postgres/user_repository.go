package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

const userColumns = `idusers, username, name, phone, rol, password_hash, COALESCE(token, '')`

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) interfaces.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, name, phone, rol, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING idusers
	`
	err := r.db.QueryRow(ctx, query,
		user.Username, user.Name, user.Phone, int(user.Role), user.PasswordHash,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
}

func (r *userRepository) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE token = $1`, token)
}

func (r *userRepository) SetToken(ctx context.Context, userID int64, token string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET token = NULLIF($1, '') WHERE idusers = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Name, &user.Phone, &user.Role, &user.PasswordHash, &user.Token,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}
