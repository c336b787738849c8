package interfaces

import (
	"context"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

// Repositories return domain.ErrNotFound for missing rows.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	// UpdateStatusWithLog writes order's status only if the stored status is
	// still from, and returns domain.ErrStaleStatus otherwise.
	UpdateStatusWithLog(ctx context.Context, order *domain.Order, from domain.Status, changedBy int64) error
	GetStatusHistory(ctx context.Context, orderID int64) ([]domain.StatusLog, error)
}

type FavoriteRepository interface {
	// Toggle flips membership and reports whether the product is now a favorite.
	Toggle(ctx context.Context, userID, productID int64) (bool, error)
	List(ctx context.Context, userID int64) ([]int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindByToken(ctx context.Context, token string) (*domain.User, error)
	SetToken(ctx context.Context, userID int64, token string) error
}
