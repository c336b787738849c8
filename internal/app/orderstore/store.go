package orderstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

var ErrAlreadySyncing = errors.New("order store is already syncing")

// Store keeps the viewer's order list fresh. Every realtime signal triggers
// a full scoped refetch; event payloads are never applied as patches.
type Store struct {
	gateway  interfaces.OrderGateway
	notifier interfaces.Notifier
	session  interfaces.SessionReader
	logger   logger.Logger

	mu       sync.RWMutex
	viewerID int64
	snapshot []domain.Order
	watchers map[chan []domain.Order]struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	subs   []interfaces.Subscription
	wg     sync.WaitGroup
}

func NewStore(
	gateway interfaces.OrderGateway,
	notifier interfaces.Notifier,
	session interfaces.SessionReader,
	logger logger.Logger,
) *Store {
	return &Store{
		gateway:  gateway,
		notifier: notifier,
		session:  session,
		logger:   logger,
		watchers: make(map[chan []domain.Order]struct{}),
	}
}

// StartSync fetches once, then refetches on every order-changed or
// status-changed signal and after every reconnection until ctx ends or Stop
// is called.
func (s *Store) StartSync(ctx context.Context, viewerUserID int64) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel != nil {
		return ErrAlreadySyncing
	}

	s.mu.Lock()
	s.viewerID = viewerUserID
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.subs = []interfaces.Subscription{
		s.notifier.Listen(domain.ChannelOrderChanged),
		s.notifier.Listen(domain.ChannelStatusChanged),
		s.notifier.ListenReconnect(),
	}

	s.Refresh(runCtx)

	for _, sub := range s.subs {
		s.wg.Add(1)
		go s.listen(runCtx, sub)
	}

	s.logger.Info("sync_started", "Order sync started", "", map[string]interface{}{
		"viewer_id": viewerUserID,
	})
	return nil
}

func (s *Store) listen(ctx context.Context, sub interfaces.Subscription) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			s.logger.Debug("refetch_signal", "Realtime signal received", "", map[string]interface{}{
				"channel": string(ev.Channel),
			})
			s.Refresh(ctx)
		}
	}
}

// Stop releases every subscription and waits for in-flight refetches.
func (s *Store) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.wg.Wait()

	s.cancel = nil
	s.subs = nil
	s.logger.Info("sync_stopped", "Order sync stopped", "", nil)
}

// Refresh performs one scoped full fetch and replaces the snapshot. It never
// fails: an application error empties the snapshot, anything else keeps it.
func (s *Store) Refresh(ctx context.Context) {
	orders, err := s.fetch(ctx)
	if err == nil {
		s.replace(orders)
		s.logger.Debug("orders_refetched", "Order snapshot replaced", "", map[string]interface{}{
			"count": len(orders),
		})
		return
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		s.replace(nil)
		s.logger.Error("orders_fetch_rejected", "Server rejected order fetch, snapshot cleared", "", map[string]interface{}{
			"error_code": apiErr.Code,
		}, err)
		return
	}

	s.logger.Warn("orders_fetch_failed", "Order fetch failed, keeping previous snapshot", "", nil, err)
}

// fetch reads the role fresh from the session so a sign-out or role change
// is honored on the next signal.
func (s *Store) fetch(ctx context.Context) ([]domain.Order, error) {
	sess, err := s.session.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	s.mu.RLock()
	viewerID := s.viewerID
	s.mu.RUnlock()
	if viewerID == 0 {
		viewerID = sess.User.ID
	}

	if sess.User.Role.IsStaff() {
		return s.gateway.ListOrders(ctx)
	}
	return s.gateway.ListOrdersByUser(ctx, viewerID)
}

func (s *Store) replace(orders []domain.Order) {
	snap := domain.CloneOrders(orders)
	if snap == nil {
		snap = []domain.Order{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snap
	for w := range s.watchers {
		offer(w, domain.CloneOrders(snap))
	}
}

// offer keeps only the latest value in a one-slot channel.
func offer(w chan []domain.Order, orders []domain.Order) {
	select {
	case <-w:
	default:
	}
	select {
	case w <- orders:
	default:
	}
}

// Snapshot returns a copy of the current order list.
func (s *Store) Snapshot() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneOrders(s.snapshot)
}

// Watch streams snapshots, starting with the current one. Slow readers only
// ever see the latest. Call the returned func to stop watching.
func (s *Store) Watch() (<-chan []domain.Order, func()) {
	w := make(chan []domain.Order, 1)

	s.mu.Lock()
	s.watchers[w] = struct{}{}
	if s.snapshot != nil {
		w <- domain.CloneOrders(s.snapshot)
	}
	s.mu.Unlock()

	var once sync.Once
	return w, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, w)
			close(w)
			s.mu.Unlock()
		})
	}
}
