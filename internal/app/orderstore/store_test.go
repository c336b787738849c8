package orderstore

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/adapter/memory"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/realtime"
)

type fakeGateway struct {
	mu        sync.Mutex
	all       []domain.Order
	byUser    map[int64][]domain.Order
	err       error
	allCalls  int
	userCalls []int64
}

func (g *fakeGateway) CreateOrder(context.Context, domain.Order) (int64, error) { return 0, nil }

func (g *fakeGateway) UpdateStatus(context.Context, int64, domain.Status, int64) error { return nil }

func (g *fakeGateway) GetOrder(context.Context, int64) (*domain.Order, error) { return nil, nil }

func (g *fakeGateway) ListOrders(context.Context) ([]domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.allCalls++
	if g.err != nil {
		return nil, g.err
	}
	return domain.CloneOrders(g.all), nil
}

func (g *fakeGateway) ListOrdersByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.userCalls = append(g.userCalls, userID)
	if g.err != nil {
		return nil, g.err
	}
	return domain.CloneOrders(g.byUser[userID]), nil
}

func (g *fakeGateway) set(all []domain.Order, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.all = all
	g.err = err
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allCalls
}

type session struct{ user domain.User }

func (s session) Current(context.Context) (*domain.Session, error) {
	return &domain.Session{User: s.user, Token: "t"}, nil
}

func quiet() logger.Logger {
	return logger.NewWithWriter("test", io.Discard, logger.LevelDebug)
}

func orders(ids ...int64) []domain.Order {
	out := make([]domain.Order, len(ids))
	for i, id := range ids {
		out[i] = domain.Order{ID: id}
	}
	return out
}

func ids(list []domain.Order) []int64 {
	out := make([]int64, len(list))
	for i, o := range list {
		out[i] = o.ID
	}
	return out
}

func TestRefresh_ScopesByRole(t *testing.T) {
	g := &fakeGateway{all: orders(1, 2, 3), byUser: map[int64][]domain.Order{9: orders(2)}}
	n := memory.NewNotifier(realtime.NewHub(4))

	staff := NewStore(g, n, session{user: domain.User{ID: 1, Role: domain.RoleCook}}, quiet())
	staff.Refresh(context.Background())
	assert.Equal(t, []int64{1, 2, 3}, ids(staff.Snapshot()))

	client := NewStore(g, n, session{user: domain.User{ID: 9, Role: domain.RoleClient}}, quiet())
	client.Refresh(context.Background())
	assert.Equal(t, []int64{2}, ids(client.Snapshot()))
	assert.Equal(t, []int64{9}, g.userCalls)
}

func TestRefresh_ApplicationErrorClearsSnapshot(t *testing.T) {
	g := &fakeGateway{all: orders(1, 2)}
	s := NewStore(g, memory.NewNotifier(realtime.NewHub(1)), session{user: domain.User{ID: 1}}, quiet())
	ctx := context.Background()

	s.Refresh(ctx)
	require.Len(t, s.Snapshot(), 2)

	g.set(nil, &domain.APIError{Code: domain.CodeTokenMissing, Message: "Token not sent"})
	s.Refresh(ctx)
	assert.Empty(t, s.Snapshot())
}

func TestRefresh_TransportErrorKeepsSnapshot(t *testing.T) {
	g := &fakeGateway{all: orders(1, 2)}
	s := NewStore(g, memory.NewNotifier(realtime.NewHub(1)), session{user: domain.User{ID: 1}}, quiet())
	ctx := context.Background()

	s.Refresh(ctx)
	g.set(nil, errors.Join(domain.ErrUnreachable, errors.New("connection refused")))
	s.Refresh(ctx)

	assert.Equal(t, []int64{1, 2}, ids(s.Snapshot()))
}

func TestStartSync_RefetchesOnEverySignal(t *testing.T) {
	hub := realtime.NewHub(8)
	n := memory.NewNotifier(hub)
	g := &fakeGateway{all: orders(1)}
	s := NewStore(g, n, session{user: domain.User{ID: 1, Role: domain.RoleAdmin}}, quiet())
	ctx := context.Background()

	require.NoError(t, s.StartSync(ctx, 1))
	defer s.Stop()
	assert.Equal(t, 1, g.calls())
	assert.ErrorIs(t, s.StartSync(ctx, 1), ErrAlreadySyncing)

	g.set(orders(1, 2), nil)
	require.NoError(t, n.Send(ctx, domain.ChannelOrderChanged, map[string]string{"anything": "ignored"}))
	assert.Eventually(t, func() bool { return len(s.Snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	g.set(orders(1, 2, 3), nil)
	require.NoError(t, n.Send(ctx, domain.ChannelStatusChanged, nil))
	assert.Eventually(t, func() bool { return len(s.Snapshot()) == 3 }, time.Second, 5*time.Millisecond)

	g.set(orders(4), nil)
	n.SetConnected(false)
	n.SetConnected(true)
	assert.Eventually(t, func() bool {
		snap := s.Snapshot()
		return len(snap) == 1 && snap[0].ID == 4
	}, time.Second, 5*time.Millisecond)

	before := g.calls()
	require.NoError(t, n.Send(ctx, domain.ChannelCharts, 1))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, g.calls(), "charts channel is not a refetch trigger")
}

func TestStop_ReleasesSubscriptions(t *testing.T) {
	hub := realtime.NewHub(4)
	s := NewStore(&fakeGateway{}, memory.NewNotifier(hub), session{user: domain.User{ID: 1}}, quiet())

	require.NoError(t, s.StartSync(context.Background(), 1))
	assert.Equal(t, 1, hub.Subscribers(domain.ChannelOrderChanged))
	assert.Equal(t, 1, hub.Subscribers(domain.ChannelStatusChanged))
	assert.Equal(t, 1, hub.Subscribers(domain.ChannelReconnected))

	s.Stop()
	s.Stop()
	assert.Equal(t, 0, hub.Subscribers(domain.ChannelOrderChanged))
	assert.Equal(t, 0, hub.Subscribers(domain.ChannelStatusChanged))
	assert.Equal(t, 0, hub.Subscribers(domain.ChannelReconnected))

	require.NoError(t, s.StartSync(context.Background(), 1), "can restart after stop")
	s.Stop()
}

// pendingGateway parks every ListOrders call until the test answers it.
type pendingGateway struct {
	fakeGateway
	pending chan chan []domain.Order
}

func (g *pendingGateway) ListOrders(ctx context.Context) ([]domain.Order, error) {
	reply := make(chan []domain.Order)
	g.pending <- reply
	select {
	case list := <-reply:
		return list, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefresh_ConcurrentFetchesLastCompletionWins(t *testing.T) {
	for _, secondFinishesFirst := range []bool{true, false} {
		g := &pendingGateway{pending: make(chan chan []domain.Order, 2)}
		s := NewStore(g, memory.NewNotifier(realtime.NewHub(1)), session{user: domain.User{ID: 1}}, quiet())

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Refresh(context.Background())
			}()
		}
		first, second := <-g.pending, <-g.pending

		listA, listB := orders(1, 2, 3), orders(7, 8)
		if secondFinishesFirst {
			second <- listB
			assert.Eventually(t, func() bool { return len(s.Snapshot()) == 2 }, time.Second, time.Millisecond)
			first <- listA
			wg.Wait()
			assert.Equal(t, ids(listA), ids(s.Snapshot()))
		} else {
			first <- listA
			assert.Eventually(t, func() bool { return len(s.Snapshot()) == 3 }, time.Second, time.Millisecond)
			second <- listB
			wg.Wait()
			assert.Equal(t, ids(listB), ids(s.Snapshot()))
		}
	}
}

func TestWatch_StartsWithCurrentAndKeepsLatest(t *testing.T) {
	g := &fakeGateway{all: orders(1)}
	s := NewStore(g, memory.NewNotifier(realtime.NewHub(1)), session{user: domain.User{ID: 1}}, quiet())
	ctx := context.Background()

	s.Refresh(ctx)
	ch, cancel := s.Watch()

	assert.Equal(t, []int64{1}, ids(<-ch))

	g.set(orders(1, 2), nil)
	s.Refresh(ctx)
	g.set(orders(1, 2, 3), nil)
	s.Refresh(ctx)

	assert.Equal(t, []int64{1, 2, 3}, ids(<-ch))

	latest := s.Snapshot()
	latest[0].Client = "mutated"
	assert.Equal(t, "", s.Snapshot()[0].Client)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestViews(t *testing.T) {
	list := []domain.Order{
		{ID: 1, Status: domain.StatusPending},
		{ID: 2, Status: domain.StatusInPreparation},
		{ID: 3, Status: domain.StatusReady},
		{ID: 4, Status: domain.StatusCompleted},
		{ID: 5, Status: domain.StatusCancelled},
	}

	assert.Equal(t, []int64{1, 2, 3}, ids(Active(list)))
	assert.Equal(t, []int64{4, 5}, ids(History(list)))
	assert.Equal(t, []int64{3}, ids(ByStatus(list, domain.StatusReady)))
	assert.Empty(t, ByStatus(nil, domain.StatusReady))
}
