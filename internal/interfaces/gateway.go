package interfaces

import (
	"context"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

// Gateways are the client side of the REST contract.
type OrderGateway interface {
	CreateOrder(ctx context.Context, order domain.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status domain.Status, actorID int64) error
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
}

type FavoriteGateway interface {
	ToggleFavorite(ctx context.Context, userID, productID int64) error
	ListFavorites(ctx context.Context, userID int64) ([]int64, error)
}

// SessionReader returns the signed-in viewer, or domain.ErrNoSession.
type SessionReader interface {
	Current(ctx context.Context) (*domain.Session, error)
}

type Authenticator interface {
	SignIn(ctx context.Context, username, password string) (*domain.Session, error)
}
