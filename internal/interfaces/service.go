package interfaces

import (
	"context"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

// BackofficeService is what the REST handlers call. Rejections come back as
// *domain.APIError carrying the envelope error code.
type BackofficeService interface {
	CreateOrder(ctx context.Context, order domain.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status domain.Status, actorID int64) error
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	StatusHistory(ctx context.Context, orderID int64) ([]domain.StatusLog, error)

	ToggleFavorite(ctx context.Context, userID, productID int64) (bool, error)
	ListFavorites(ctx context.Context, userID int64) ([]int64, error)

	SignUp(ctx context.Context, cmd SignUpCommand) (*domain.User, error)
	SignIn(ctx context.Context, username, password string) (*domain.Session, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type SignUpCommand struct {
	Username string
	Name     string
	Phone    string
	Password string
	Role     domain.Role
}
