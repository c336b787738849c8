package favorites

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

// Toggle is the local favorites cache of the signed-in user. Mutations are
// applied before the network call and undone when it fails.
type Toggle struct {
	gateway interfaces.FavoriteGateway
	session interfaces.SessionReader
	logger  logger.Logger

	mu  sync.RWMutex
	set map[int64]struct{}
}

func NewToggle(gateway interfaces.FavoriteGateway, session interfaces.SessionReader, logger logger.Logger) *Toggle {
	return &Toggle{
		gateway: gateway,
		session: session,
		logger:  logger,
		set:     make(map[int64]struct{}),
	}
}

// flip is its own inverse: applying it twice leaves set unchanged.
func flip(set map[int64]struct{}, productID int64) bool {
	if _, ok := set[productID]; ok {
		delete(set, productID)
		return false
	}
	set[productID] = struct{}{}
	return true
}

// Toggle flips membership of productID and persists it. On failure the flip
// is reverted and a *domain.PersistenceError is returned.
func (t *Toggle) Toggle(ctx context.Context, productID int64) error {
	sess, err := t.session.Current(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	added := flip(t.set, productID)
	t.mu.Unlock()

	if err := t.gateway.ToggleFavorite(ctx, sess.User.ID, productID); err != nil {
		t.mu.Lock()
		flip(t.set, productID)
		t.mu.Unlock()

		t.logger.Error("favorite_toggle_failed", "Favorite toggle rolled back", "", map[string]interface{}{
			"product_id": productID,
			"added":      added,
		}, err)
		return &domain.PersistenceError{Op: "toggle favorite", Err: err}
	}

	t.logger.Debug("favorite_toggled", "Favorite toggled", "", map[string]interface{}{
		"product_id": productID,
		"added":      added,
	})
	return nil
}

// Remove drops productID from the favorites page. When the call fails the
// set is recovered by reloading it from the server.
func (t *Toggle) Remove(ctx context.Context, productID int64) error {
	sess, err := t.session.Current(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if _, ok := t.set[productID]; !ok {
		t.mu.Unlock()
		return nil
	}
	delete(t.set, productID)
	t.mu.Unlock()

	if err := t.gateway.ToggleFavorite(ctx, sess.User.ID, productID); err != nil {
		t.logger.Error("favorite_remove_failed", "Favorite removal failed, reloading", "", map[string]interface{}{
			"product_id": productID,
		}, err)

		if loadErr := t.Load(ctx, sess.User.ID); loadErr != nil {
			// The server state is unknown. Put the product back rather than
			// show it as removed.
			t.mu.Lock()
			t.set[productID] = struct{}{}
			t.mu.Unlock()
		}
		return &domain.PersistenceError{Op: "remove favorite", Err: err}
	}
	return nil
}

// Load replaces the whole set with the server's list for userID.
func (t *Toggle) Load(ctx context.Context, userID int64) error {
	ids, err := t.gateway.ListFavorites(ctx, userID)
	if err != nil {
		t.logger.Error("favorites_load_failed", "Failed to load favorites", "", map[string]interface{}{
			"user_id": userID,
		}, err)
		return fmt.Errorf("load favorites: %w", err)
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	t.mu.Lock()
	t.set = set
	t.mu.Unlock()
	return nil
}

func (t *Toggle) Contains(productID int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.set[productID]
	return ok
}

// List returns the favorite product ids in ascending order.
func (t *Toggle) List() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int64, 0, len(t.set))
	for id := range t.set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
