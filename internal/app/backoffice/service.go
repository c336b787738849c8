package backoffice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

// Service holds the server-side rules behind the REST API. The state
// machine is enforced here as well, since clients only validate against
// the status they last saw.
type Service struct {
	orders    interfaces.OrderRepository
	favorites interfaces.FavoriteRepository
	users     interfaces.UserRepository
	logger    logger.Logger
	now       func() time.Time
	newToken  func() string
}

func NewService(
	orders interfaces.OrderRepository,
	favorites interfaces.FavoriteRepository,
	users interfaces.UserRepository,
	logger logger.Logger,
) *Service {
	return &Service{
		orders:    orders,
		favorites: favorites,
		users:     users,
		logger:    logger,
		now:       time.Now,
		newToken:  uuid.NewString,
	}
}

var _ interfaces.BackofficeService = (*Service)(nil)

func reject(code, message string) error {
	return &domain.APIError{Code: code, Message: message}
}

func (s *Service) CreateOrder(ctx context.Context, order domain.Order) (int64, error) {
	o := order.Clone()
	claimed := o.Total
	o.ApplySubmitDefaults(s.now())

	if err := o.Validate(); err != nil {
		s.logger.Debug("validation_failed", "Order validation failed", "", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, reject(domain.CodeEmptyParams, err.Error())
	}
	if o.UserID == 0 {
		return 0, reject(domain.CodeEmptyParams, "users_idusers is required")
	}

	o.RecalculateTotal()
	if !claimed.Equal(o.Total) {
		return 0, reject(domain.CodeTotalMismatch, fmt.Sprintf("total %s does not match items %s", claimed, o.Total))
	}

	if err := s.orders.Create(ctx, &o); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return 0, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order_received", "Order created", "", map[string]interface{}{
		"order_id": o.ID,
		"user_id":  o.UserID,
		"total":    o.Total.String(),
	})
	return o.ID, nil
}

// UpdateStatus moves an order along the state machine and records who did
// it. Entering preparation stamps start_order; entering ready stamps finish_order.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status domain.Status, actorID int64) error {
	if orderID == 0 {
		return reject(domain.CodeEmptyParams, "idorder is required")
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(status) {
		tErr := &domain.InvalidTransitionError{From: order.Status, To: status}
		s.logger.Debug("transition_rejected", tErr.Error(), "", map[string]interface{}{"order_id": orderID})
		return reject(domain.CodeInvalidTransition, tErr.Error())
	}

	from := order.Status
	now := s.now()
	switch status {
	case domain.StatusInPreparation:
		order.StartedAt = &now
	case domain.StatusReady:
		order.FinishedAt = &now
	}
	order.Status = status

	if err := s.orders.UpdateStatusWithLog(ctx, order, from, actorID); err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			s.logger.Debug("transition_rejected", "Order changed status concurrently", "", map[string]interface{}{
				"order_id": orderID,
				"from":     from.String(),
				"to":       status.String(),
			})
			return reject(domain.CodeInvalidTransition, fmt.Sprintf("order %d is no longer %s", orderID, from))
		}
		s.logger.Error("status_update_failed", "Failed to update order status", "", map[string]interface{}{
			"order_id": orderID,
		}, err)
		return fmt.Errorf("update order status: %w", err)
	}

	s.logger.Info("status_changed", "Order status changed", "", map[string]interface{}{
		"order_id": orderID,
		"status":   status.String(),
		"actor_id": actorID,
	})
	return nil
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

func (s *Service) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	if userID == 0 {
		return nil, reject(domain.CodeEmptyParams, "idusers is required")
	}
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	if orderID == 0 {
		return nil, reject(domain.CodeEmptyParams, "idorder is required")
	}
	return s.findOrder(ctx, orderID)
}

func (s *Service) StatusHistory(ctx context.Context, orderID int64) ([]domain.StatusLog, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.GetStatusHistory(ctx, orderID)
}

func (s *Service) findOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, reject(domain.CodeOrderNotFound, fmt.Sprintf("order %d not found", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, userID, productID int64) (bool, error) {
	if userID == 0 || productID == 0 {
		return false, reject(domain.CodeEmptyParams, "idusers and idproducts are required")
	}
	added, err := s.favorites.Toggle(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	return added, nil
}

func (s *Service) ListFavorites(ctx context.Context, userID int64) ([]int64, error) {
	if userID == 0 {
		return nil, reject(domain.CodeEmptyParams, "idusers is required")
	}
	return s.favorites.List(ctx, userID)
}

func (s *Service) SignUp(ctx context.Context, cmd interfaces.SignUpCommand) (*domain.User, error) {
	cmd.Username = strings.TrimSpace(cmd.Username)
	cmd.Phone = strings.TrimSpace(cmd.Phone)
	if cmd.Username == "" || cmd.Password == "" || cmd.Phone == "" || strings.TrimSpace(cmd.Name) == "" {
		return nil, reject(domain.CodeEmptyParams, "username, name, phone and password are required")
	}
	if !cmd.Role.Valid() {
		return nil, reject(domain.CodeInvalidRole, fmt.Sprintf("unknown role %d", cmd.Role))
	}

	if taken, err := s.exists(s.users.FindByUsername(ctx, cmd.Username)); err != nil {
		return nil, err
	} else if taken {
		return nil, reject(domain.CodeUsernameTaken, "username already in use")
	}
	if taken, err := s.exists(s.users.FindByPhone(ctx, cmd.Phone)); err != nil {
		return nil, err
	} else if taken {
		return nil, reject(domain.CodePhoneTaken, "phone already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     cmd.Username,
		Name:         cmd.Name,
		Phone:        cmd.Phone,
		Role:         cmd.Role,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user_registered", "User signed up", "", map[string]interface{}{
		"user_id": user.ID,
		"role":    int(user.Role),
	})
	return user, nil
}

func (s *Service) exists(_ *domain.User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("find user: %w", err)
	}
}

// SignIn checks the password and issues a fresh token, invalidating the previous one.
func (s *Service) SignIn(ctx context.Context, username, password string) (*domain.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, reject(domain.CodeEmptyParams, "username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, reject(domain.CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, reject(domain.CodeBadCredentials, "invalid credentials")
	}

	token := s.newToken()
	if err := s.users.SetToken(ctx, user.ID, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	user.Token = token

	s.logger.Info("user_signed_in", "User signed in", "", map[string]interface{}{"user_id": user.ID})
	return &domain.Session{User: *user, Token: token}, nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, reject(domain.CodeTokenMissing, "token not sent")
	}
	user, err := s.users.FindByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, reject(domain.CodeBadCredentials, "invalid token")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
