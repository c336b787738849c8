package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

// Store is the shared in-memory state behind the repositories. It is used
// when the server runs without Postgres and in tests.
type Store struct {
	mu          sync.RWMutex
	nextOrderID int64
	nextItemID  int64
	nextLogID   int64
	nextUserID  int64
	orders      map[int64]domain.Order
	logs        map[int64][]domain.StatusLog
	favorites   map[int64]map[int64]struct{}
	users       map[int64]domain.User
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		nextOrderID: 1,
		nextItemID:  1,
		nextLogID:   1,
		nextUserID:  1,
		orders:      make(map[int64]domain.Order),
		logs:        make(map[int64][]domain.StatusLog),
		favorites:   make(map[int64]map[int64]struct{}),
		users:       make(map[int64]domain.User),
		now:         time.Now,
	}
}

type Orders struct{ s *Store }

func NewOrderRepository(s *Store) *Orders { return &Orders{s: s} }

var _ interfaces.OrderRepository = (*Orders)(nil)

func (r *Orders) Create(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order.ID = r.s.nextOrderID
	r.s.nextOrderID++
	for i := range order.Items {
		order.Items[i].ID = r.s.nextItemID
		order.Items[i].OrderID = order.ID
		r.s.nextItemID++
		for j := range order.Items[i].Modifications {
			order.Items[i].Modifications[j].LineItemID = order.Items[i].ID
		}
	}

	r.s.orders[order.ID] = order.Clone()
	r.s.appendLogLocked(order.ID, order.Status, order.UserID)
	return nil
}

func (r *Orders) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := o.Clone()
	return &cp, nil
}

func (r *Orders) List(_ context.Context) ([]domain.Order, error) {
	return r.s.listOrders(func(domain.Order) bool { return true }), nil
}

func (r *Orders) ListByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	return r.s.listOrders(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (r *Orders) UpdateStatusWithLog(_ context.Context, order *domain.Order, from domain.Status, changedBy int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Status != from {
		return domain.ErrStaleStatus
	}
	stored.Status = order.Status
	stored.StartedAt = order.StartedAt
	stored.FinishedAt = order.FinishedAt
	r.s.orders[order.ID] = stored.Clone()
	r.s.appendLogLocked(order.ID, order.Status, changedBy)
	return nil
}

func (r *Orders) GetStatusHistory(_ context.Context, orderID int64) ([]domain.StatusLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.StatusLog(nil), r.s.logs[orderID]...), nil
}

func (s *Store) appendLogLocked(orderID int64, status domain.Status, changedBy int64) {
	s.logs[orderID] = append(s.logs[orderID], domain.StatusLog{
		ID:        s.nextLogID,
		OrderID:   orderID,
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: s.now(),
	})
	s.nextLogID++
}

// listOrders returns matching orders newest first.
func (s *Store) listOrders(match func(domain.Order) bool) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if match(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

type Favorites struct{ s *Store }

func NewFavoriteRepository(s *Store) *Favorites { return &Favorites{s: s} }

var _ interfaces.FavoriteRepository = (*Favorites)(nil)

func (r *Favorites) Toggle(_ context.Context, userID, productID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	set := r.s.favorites[userID]
	if set == nil {
		set = make(map[int64]struct{})
		r.s.favorites[userID] = set
	}
	if _, ok := set[productID]; ok {
		delete(set, productID)
		return false, nil
	}
	set[productID] = struct{}{}
	return true, nil
}

func (r *Favorites) List(_ context.Context, userID int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]int64, 0, len(r.s.favorites[userID]))
	for id := range r.s.favorites[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type Users struct{ s *Store }

func NewUserRepository(s *Store) *Users { return &Users{s: s} }

var _ interfaces.UserRepository = (*Users)(nil)

func (r *Users) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.ID = r.s.nextUserID
	r.s.nextUserID++
	r.s.users[user.ID] = *user
	return nil
}

func (r *Users) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.s.findUser(func(u domain.User) bool { return u.Username == username })
}

func (r *Users) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	return r.s.findUser(func(u domain.User) bool { return u.Phone == phone })
}

func (r *Users) FindByToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	return r.s.findUser(func(u domain.User) bool { return u.Token == token })
}

func (r *Users) SetToken(_ context.Context, userID int64, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Token = token
	r.s.users[userID] = u
	return nil
}

func (s *Store) findUser(match func(domain.User) bool) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}
