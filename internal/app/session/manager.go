package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

// Storage keeps the single current session. Load returns domain.ErrNoSession
// when nothing is stored.
type Storage interface {
	Save(ctx context.Context, sess domain.Session) error
	Load(ctx context.Context) (*domain.Session, error)
	Clear(ctx context.Context) error
}

// Manager owns the session lifecycle. It is written at sign-in, profile
// update and sign-out only; every reader goes through Current.
type Manager struct {
	storage Storage
	logger  logger.Logger
}

func NewManager(storage Storage, logger logger.Logger) *Manager {
	return &Manager{storage: storage, logger: logger}
}

var _ interfaces.SessionReader = (*Manager)(nil)

func (m *Manager) SignIn(ctx context.Context, auth interfaces.Authenticator, username, password string) (*domain.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, &domain.ValidationError{Field: "username", Message: "username and password are required"}
	}

	sess, err := auth.SignIn(ctx, username, password)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "sign in", Err: err}
	}
	if sess.Token == "" {
		sess.Token = sess.User.Token
	}

	if err := m.storage.Save(ctx, *sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	m.logger.Info("signed_in", "Session created", "", map[string]interface{}{
		"user_id": sess.User.ID,
		"role":    int(sess.User.Role),
	})
	return sess, nil
}

// Current reads the stored session on every call.
func (m *Manager) Current(ctx context.Context) (*domain.Session, error) {
	return m.storage.Load(ctx)
}

// UpdateProfile changes the display name and phone of the stored user.
func (m *Manager) UpdateProfile(ctx context.Context, name, phone string) error {
	sess, err := m.storage.Load(ctx)
	if err != nil {
		return err
	}
	sess.User.Name = name
	sess.User.Phone = phone
	if err := m.storage.Save(ctx, *sess); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.storage.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.logger.Info("signed_out", "Session cleared", "", nil)
	return nil
}
