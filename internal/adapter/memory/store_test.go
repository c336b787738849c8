package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

func TestOrders_CreateAssignsIDsAndLogsStatus(t *testing.T) {
	store := NewStore()
	repo := NewOrderRepository(store)
	ctx := context.Background()

	o := &domain.Order{
		Client: "Ana",
		UserID: 3,
		Items: []domain.LineItem{{
			ProductID:     1,
			UnitPrice:     decimal.NewFromInt(5),
			Modifications: []domain.IngredientModification{{IngredientID: 9}},
		}},
	}
	require.NoError(t, repo.Create(ctx, o))
	assert.Equal(t, int64(1), o.ID)
	assert.Equal(t, int64(1), o.Items[0].ID)
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.Equal(t, o.Items[0].ID, o.Items[0].Modifications[0].LineItemID)

	history, err := repo.GetStatusHistory(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusPending, history[0].Status)
	assert.Equal(t, int64(3), history[0].ChangedBy)

	o.Items[0].Name = "mutated after create"
	found, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "", found.Items[0].Name)
}

func TestOrders_ListNewestFirstAndByUser(t *testing.T) {
	repo := NewOrderRepository(NewStore())
	ctx := context.Background()

	for _, uid := range []int64{1, 2, 1} {
		require.NoError(t, repo.Create(ctx, &domain.Order{UserID: uid}))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)

	mine, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, int64(1), o.UserID)
	}
}

func TestOrders_UpdateStatusWithLog(t *testing.T) {
	repo := NewOrderRepository(NewStore())
	ctx := context.Background()

	o := &domain.Order{UserID: 1}
	require.NoError(t, repo.Create(ctx, o))

	started := time.Now()
	o.Status = domain.StatusInPreparation
	o.StartedAt = &started
	require.NoError(t, repo.UpdateStatusWithLog(ctx, o, domain.StatusPending, 8))

	found, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInPreparation, found.Status)
	require.NotNil(t, found.StartedAt)

	history, _ := repo.GetStatusHistory(ctx, o.ID)
	assert.Len(t, history, 2)
	assert.Equal(t, int64(8), history[1].ChangedBy)

	assert.ErrorIs(t, repo.UpdateStatusWithLog(ctx, &domain.Order{ID: 99}, domain.StatusPending, 1), domain.ErrNotFound)
	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrders_UpdateStatusRejectsStaleStatus(t *testing.T) {
	repo := NewOrderRepository(NewStore())
	ctx := context.Background()

	o := &domain.Order{UserID: 1, Status: domain.StatusReady}
	require.NoError(t, repo.Create(ctx, o))

	cancelled := o.Clone()
	cancelled.Status = domain.StatusCancelled
	require.NoError(t, repo.UpdateStatusWithLog(ctx, &cancelled, domain.StatusReady, 2))

	completed := o.Clone()
	completed.Status = domain.StatusCompleted
	err := repo.UpdateStatusWithLog(ctx, &completed, domain.StatusReady, 3)
	assert.ErrorIs(t, err, domain.ErrStaleStatus)

	found, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, found.Status)

	history, _ := repo.GetStatusHistory(ctx, o.ID)
	assert.Len(t, history, 2)
}

func TestFavorites_Toggle(t *testing.T) {
	repo := NewFavoriteRepository(NewStore())
	ctx := context.Background()

	added, err := repo.Toggle(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, added)
	_, _ = repo.Toggle(ctx, 1, 2)

	ids, _ := repo.List(ctx, 1)
	assert.Equal(t, []int64{2, 5}, ids)

	added, _ = repo.Toggle(ctx, 1, 5)
	assert.False(t, added)
	ids, _ = repo.List(ctx, 1)
	assert.Equal(t, []int64{2}, ids)

	ids, _ = repo.List(ctx, 2)
	assert.Empty(t, ids)
}

func TestUsers_Lookup(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx := context.Background()

	u := &domain.User{Username: "ana", Phone: "555"}
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.SetToken(ctx, u.ID, "tok"))

	byName, err := repo.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byToken, err := repo.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "ana", byToken.Username)

	_, err = repo.FindByToken(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.FindByPhone(ctx, "000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
