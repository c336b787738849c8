package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/adapter/memory"
	"github.com/YelzhanWeb/comandas/internal/app/backoffice"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

type testEnvelope struct {
	Error     bool            `json:"error"`
	Msg       json.RawMessage `json:"msg"`
	ErrorCode string          `json:"error_code"`
}

func setupServer(t *testing.T) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	lgr := logger.NewWithWriter("test", io.Discard, logger.LevelDebug)
	svc := backoffice.NewService(
		memory.NewOrderRepository(store),
		memory.NewFavoriteRepository(store),
		memory.NewUserRepository(store),
		lgr,
	)

	ctx := context.Background()
	_, err := svc.SignUp(ctx, interfaces.SignUpCommand{Username: "cook", Name: "Cook", Phone: "1", Password: "pw", Role: domain.RoleCook})
	require.NoError(t, err)
	sess, err := svc.SignIn(ctx, "cook", "pw")
	require.NoError(t, err)

	return NewServer(svc, lgr), sess.Token
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("authorization", token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestAuth_MissingTokenIs006(t *testing.T) {
	s, _ := setupServer(t)

	w, env := doJSON(t, s, http.MethodGet, "/order/viewOrders", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, env.Error)
	assert.Equal(t, domain.CodeTokenMissing, env.ErrorCode)
}

func TestRouting_WrongMethodAndUnknownRoute(t *testing.T) {
	s, token := setupServer(t)

	w, env := doJSON(t, s, http.MethodGet, "/order/createOrder", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, domain.CodeWrongMethod, env.ErrorCode)

	w, env = doJSON(t, s, http.MethodGet, "/order/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.CodeUnknownMethod, env.ErrorCode)
}

func TestOrderFlow(t *testing.T) {
	s, token := setupServer(t)

	order := map[string]any{
		"client": "Ana",
		"total":  "60",
		"order_details": []map[string]any{{
			"products_idproducts": 1,
			"unit_price":          "50",
			"not_ingredient": []map[string]any{
				{"ingredients_idingredients": 2, "type": 1, "price": "10"},
			},
		}},
	}
	w, env := doJSON(t, s, http.MethodPost, "/order/createOrder", token, order)
	require.Equal(t, http.StatusCreated, w.Code, string(env.Msg))

	var created struct {
		OrderID int64 `json:"idorder"`
	}
	require.NoError(t, json.Unmarshal(env.Msg, &created))
	require.NotZero(t, created.OrderID)

	w, env = doJSON(t, s, http.MethodPut, "/order/updateStatus", token, map[string]any{
		"status": 3, "idorder": created.OrderID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.CodeInvalidTransition, env.ErrorCode)

	w, _ = doJSON(t, s, http.MethodPut, "/order/updateStatus", token, map[string]any{
		"status": 1, "idorder": created.OrderID,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	_, env = doJSON(t, s, http.MethodGet, "/order/viewOrder?idorder=1", token, nil)
	var got domain.Order
	require.NoError(t, json.Unmarshal(env.Msg, &got))
	assert.Equal(t, domain.StatusInPreparation, got.Status)
	assert.NotNil(t, got.StartedAt)
	assert.NotZero(t, got.UserID)

	_, env = doJSON(t, s, http.MethodGet, "/order/statusHistory?idorder=1", token, nil)
	var history []domain.StatusLog
	require.NoError(t, json.Unmarshal(env.Msg, &history))
	assert.Len(t, history, 2)

	w, env = doJSON(t, s, http.MethodGet, "/order/viewOrder?idorder=42", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.CodeOrderNotFound, env.ErrorCode)

	w, env = doJSON(t, s, http.MethodGet, "/order/viewOrdersByUser", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeEmptyParams, env.ErrorCode)
}

func TestCreateOrder_TotalMismatch(t *testing.T) {
	s, token := setupServer(t)

	w, env := doJSON(t, s, http.MethodPost, "/order/createOrder", token, map[string]any{
		"client":        "Ana",
		"total":         "1",
		"order_details": []map[string]any{{"products_idproducts": 1, "unit_price": "50"}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeTotalMismatch, env.ErrorCode)
}

func TestFavoritesFlow(t *testing.T) {
	s, token := setupServer(t)

	_, env := doJSON(t, s, http.MethodPost, "/favorites/toggle", token, map[string]any{"idusers": 1, "idproducts": 8})
	assert.False(t, env.Error)

	_, env = doJSON(t, s, http.MethodGet, "/favorites/get?idusers=1", token, nil)
	var ids []int64
	require.NoError(t, json.Unmarshal(env.Msg, &ids))
	assert.Equal(t, []int64{8}, ids)
}

func TestUserRoutes(t *testing.T) {
	s, _ := setupServer(t)

	w, env := doJSON(t, s, http.MethodPost, "/user/signUp", "", map[string]any{
		"username": "ana", "name": "Ana", "phone": "2", "password": "pw", "rol": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, string(env.Msg), "pw")

	_, env = doJSON(t, s, http.MethodPost, "/user/signUp", "", map[string]any{
		"username": "ana", "name": "Ana", "phone": "3", "password": "pw", "rol": 3,
	})
	assert.Equal(t, domain.CodeUsernameTaken, env.ErrorCode)

	_, env = doJSON(t, s, http.MethodPost, "/user/signIn", "", map[string]any{"username": "ana", "password": "nope"})
	assert.Equal(t, domain.CodeBadCredentials, env.ErrorCode)

	w, env = doJSON(t, s, http.MethodPost, "/user/signIn", "", map[string]any{"username": "ana", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(env.Msg, &user))
	assert.NotEmpty(t, user.Token)
	assert.Equal(t, domain.RoleClient, user.Role)
}
