package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

// Client talks to the POS REST API. Every response is wrapped in
// {error, msg, error_code}; error=true becomes a *domain.APIError and a
// failure to reach or understand the server wraps domain.ErrUnreachable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    interfaces.SessionReader
	logger     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, session interfaces.SessionReader, logger logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		session:    session,
		logger:     logger,
	}
}

var (
	_ interfaces.OrderGateway    = (*Client)(nil)
	_ interfaces.FavoriteGateway = (*Client)(nil)
	_ interfaces.Authenticator   = (*Client)(nil)
)

type envelope struct {
	Error     bool            `json:"error"`
	Msg       json.RawMessage `json:"msg"`
	ErrorCode string          `json:"error_code,omitempty"`
}

type createOrderResponse struct {
	OrderID int64 `json:"idorder"`
}

type updateStatusRequest struct {
	Status  domain.Status `json:"status"`
	OrderID int64         `json:"idorder"`
	UserID  int64         `json:"users_idusers"`
}

type favoriteRequest struct {
	UserID    int64 `json:"idusers"`
	ProductID int64 `json:"idproducts"`
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Phone    string      `json:"phone"`
	Password string      `json:"password"`
	Role     domain.Role `json:"rol"`
}

func (c *Client) CreateOrder(ctx context.Context, order domain.Order) (int64, error) {
	var resp createOrderResponse
	if err := c.do(ctx, http.MethodPost, "/order/createOrder", nil, order, &resp, true); err != nil {
		return 0, err
	}
	return resp.OrderID, nil
}

func (c *Client) UpdateStatus(ctx context.Context, orderID int64, status domain.Status, actorID int64) error {
	body := updateStatusRequest{Status: status, OrderID: orderID, UserID: actorID}
	return c.do(ctx, http.MethodPut, "/order/updateStatus", nil, body, nil, true)
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/order/viewOrders", nil, nil, &orders, true); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	q := url.Values{"idusers": {strconv.FormatInt(userID, 10)}}
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/order/viewOrdersByUser", q, nil, &orders, true); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	q := url.Values{"idorder": {strconv.FormatInt(orderID, 10)}}
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, "/order/viewOrder", q, nil, &order, true); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) StatusHistory(ctx context.Context, orderID int64) ([]domain.StatusLog, error) {
	q := url.Values{"idorder": {strconv.FormatInt(orderID, 10)}}
	var logs []domain.StatusLog
	if err := c.do(ctx, http.MethodGet, "/order/statusHistory", q, nil, &logs, true); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) ToggleFavorite(ctx context.Context, userID, productID int64) error {
	body := favoriteRequest{UserID: userID, ProductID: productID}
	return c.do(ctx, http.MethodPost, "/favorites/toggle", nil, body, nil, true)
}

func (c *Client) ListFavorites(ctx context.Context, userID int64) ([]int64, error) {
	q := url.Values{"idusers": {strconv.FormatInt(userID, 10)}}
	var ids []int64
	if err := c.do(ctx, http.MethodGet, "/favorites/get", q, nil, &ids, true); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) SignIn(ctx context.Context, username, password string) (*domain.Session, error) {
	var user domain.User
	body := signInRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/user/signIn", nil, body, &user, false); err != nil {
		return nil, err
	}
	return &domain.Session{User: user, Token: user.Token}, nil
}

func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodPost, "/user/signUp", nil, req, &user, false); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, auth bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if auth {
		sess, err := c.session.Current(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("authorization", sess.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", domain.ErrUnreachable, path, err)
	}

	c.logger.Debug("api_call", fmt.Sprintf("%s %s", method, path), "", map[string]interface{}{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %s %s returned %d with an unreadable body: %w", domain.ErrUnreachable, method, path, resp.StatusCode, err)
	}

	if env.Error {
		return &domain.APIError{Code: env.ErrorCode, Message: messageText(env.Msg)}
	}

	if out != nil && len(env.Msg) > 0 {
		if err := json.Unmarshal(env.Msg, out); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", path, err)
		}
	}
	return nil
}

// messageText renders msg as text whether the server sent a string or an object.
func messageText(msg json.RawMessage) string {
	if len(msg) == 0 || string(msg) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return string(msg)
}
