package http_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/YelzhanWeb/comandas/internal/adapter/http"
	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/adapter/memory"
	"github.com/YelzhanWeb/comandas/internal/adapter/rest"
	"github.com/YelzhanWeb/comandas/internal/app/backoffice"
	"github.com/YelzhanWeb/comandas/internal/app/composer"
	"github.com/YelzhanWeb/comandas/internal/app/lifecycle"
	"github.com/YelzhanWeb/comandas/internal/app/orderstore"
	"github.com/YelzhanWeb/comandas/internal/app/session"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
	"github.com/YelzhanWeb/comandas/internal/realtime"
)

// terminal is one signed-in POS client: its own session, REST client,
// notifier connection, controller and order store.
type terminal struct {
	user       domain.User
	controller *lifecycle.Controller
	store      *orderstore.Store
}

func openTerminal(t *testing.T, ctx context.Context, baseURL string, hub *realtime.Hub, username string) *terminal {
	t.Helper()
	lgr := logger.NewWithWriter(username, io.Discard, logger.LevelDebug)

	sessions := session.NewManager(memory.NewSessionStore(), lgr)
	client := rest.NewClient(baseURL, 2*time.Second, sessions, lgr)
	sess, err := sessions.SignIn(ctx, client, username, "pw")
	require.NoError(t, err)

	notifier := memory.NewNotifier(hub)
	store := orderstore.NewStore(client, notifier, sessions, lgr)
	require.NoError(t, store.StartSync(ctx, sess.User.ID))
	t.Cleanup(store.Stop)

	return &terminal{
		user:       sess.User,
		controller: lifecycle.NewController(client, notifier, sessions, lgr),
		store:      store,
	}
}

func find(orders []domain.Order, id int64) (domain.Order, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

func TestScenario_ClientOrderReachesStaffAndCancellationMovesToHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	lgr := logger.NewWithWriter("api-server", io.Discard, logger.LevelDebug)

	store := memory.NewStore()
	svc := backoffice.NewService(
		memory.NewOrderRepository(store),
		memory.NewFavoriteRepository(store),
		memory.NewUserRepository(store),
		lgr,
	)
	for _, cmd := range []interfaces.SignUpCommand{
		{Username: "u1", Name: "Client", Phone: "100", Password: "pw", Role: domain.RoleClient},
		{Username: "u2", Name: "Cashier", Phone: "200", Password: "pw", Role: domain.RoleCashier},
		{Username: "u3", Name: "Other client", Phone: "300", Password: "pw", Role: domain.RoleClient},
	} {
		_, err := svc.SignUp(ctx, cmd)
		require.NoError(t, err)
	}

	ts := httptest.NewServer(httpadapter.NewServer(svc, lgr).Engine())
	defer ts.Close()

	hub := realtime.NewHub(16)
	u1 := openTerminal(t, ctx, ts.URL, hub, "u1")
	u2 := openTerminal(t, ctx, ts.URL, hub, "u2")
	u3 := openTerminal(t, ctx, ts.URL, hub, "u3")

	b := composer.NewBuilder()
	b.SetClient("Client")
	b.AddLineItem(domain.Product{ID: 1, Name: "Burger", Price: decimal.NewFromInt(50)})
	require.NoError(t, b.ToggleIngredientModification(0, domain.Ingredient{ID: 5, Name: "Bacon", Price: decimal.NewFromInt(10)}, domain.ModificationAddedExtra))
	require.True(t, decimal.NewFromInt(60).Equal(b.ComputeTotal()))

	created, err := u1.controller.Submit(ctx, b.Order())
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	assert.Eventually(t, func() bool {
		o, ok := find(u1.store.Snapshot(), created.ID)
		return ok && o.Status == domain.StatusPending
	}, 2*time.Second, 10*time.Millisecond, "owner sees the order")

	assert.Eventually(t, func() bool {
		_, ok := find(u2.store.Snapshot(), created.ID)
		return ok
	}, 2*time.Second, 10*time.Millisecond, "staff sees the order after the signal")

	assert.Never(t, func() bool {
		_, ok := find(u3.store.Snapshot(), created.ID)
		return ok
	}, 100*time.Millisecond, 10*time.Millisecond, "another client never sees it")

	current := *created
	for _, next := range []domain.Status{domain.StatusInPreparation, domain.StatusReady} {
		require.NoError(t, u2.controller.Transition(ctx, current, next, u2.user.ID))
		current.Status = next
	}
	require.NoError(t, u2.controller.Transition(ctx, current, domain.StatusCancelled, u2.user.ID))

	assert.Eventually(t, func() bool {
		snap := u1.store.Snapshot()
		_, inHistory := find(orderstore.History(snap), created.ID)
		_, inActive := find(orderstore.Active(snap), created.ID)
		return inHistory && !inActive
	}, 2*time.Second, 10*time.Millisecond, "client store moves the order to history")

	o, ok := find(u1.store.Snapshot(), created.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.True(t, decimal.NewFromInt(60).Equal(o.Total))
}
