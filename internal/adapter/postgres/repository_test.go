package postgres

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

type execCall struct {
	sql  string
	args []any
}

type fakeTag int64

func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type fakeRows struct {
	rows []fakeRow
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.pos-1].Scan(dest...) }

func (r *fakeRows) Close() {}

// fakeDB answers Exec with scripted affected-row counts, in call order.
type fakeDB struct {
	execs     []execCall
	affected  []int64
	row       fakeRow
	rows      []fakeRow
	committed bool
}

func (db *fakeDB) Query(_ context.Context, _ string, _ ...any) (Rows, error) {
	return &fakeRows{rows: db.rows}, nil
}

func (db *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) Row { return db.row }

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (CommandTag, error) {
	db.execs = append(db.execs, execCall{sql: sql, args: args})
	var n int64 = 1
	if len(db.affected) > 0 {
		n, db.affected = db.affected[0], db.affected[1:]
	}
	return fakeTag(n), nil
}

func (db *fakeDB) Begin(context.Context) (Tx, error) { return &fakeTx{db: db}, nil }

func (db *fakeDB) Close() {}

type fakeTx struct{ db *fakeDB }

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return tx.db.Query(ctx, sql, args...)
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return tx.db.QueryRow(ctx, sql, args...)
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return tx.db.Exec(ctx, sql, args...)
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.db.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error { return nil }

func TestAttachDetails_GroupsRowsUnderParents(t *testing.T) {
	orders := []domain.Order{{ID: 2}, {ID: 1}, {ID: 3}}
	items := []domain.LineItem{
		{ID: 10, OrderID: 1, ProductID: 7},
		{ID: 11, OrderID: 2, ProductID: 8},
		{ID: 12, OrderID: 1, ProductID: 9},
	}
	mods := []domain.IngredientModification{
		{LineItemID: 10, IngredientID: 1, Kind: domain.ModificationRemoved},
		{LineItemID: 10, IngredientID: 2, Kind: domain.ModificationAddedExtra, Price: decimal.NewFromInt(5)},
	}

	attachDetails(orders, items, mods)

	require.Len(t, orders[1].Items, 2)
	assert.Equal(t, int64(7), orders[1].Items[0].ProductID)
	assert.Equal(t, int64(9), orders[1].Items[1].ProductID)
	require.Len(t, orders[1].Items[0].Modifications, 2)
	assert.Equal(t, int64(2), orders[1].Items[0].Modifications[1].IngredientID)
	assert.Empty(t, orders[1].Items[1].Modifications)
	require.Len(t, orders[0].Items, 1)
	assert.Empty(t, orders[2].Items)
}

func TestOrderRepository_UpdateStatusMissingOrder(t *testing.T) {
	db := &fakeDB{affected: []int64{0}, row: fakeRow{values: []any{false}}}
	repo := NewOrderRepository(db)

	err := repo.UpdateStatusWithLog(context.Background(), &domain.Order{ID: 99, Status: domain.StatusReady}, domain.StatusInPreparation, 1)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, db.committed)
	assert.Len(t, db.execs, 1)
}

func TestOrderRepository_UpdateStatusLostRace(t *testing.T) {
	db := &fakeDB{affected: []int64{0}, row: fakeRow{values: []any{true}}}
	repo := NewOrderRepository(db)

	order := &domain.Order{ID: 5, Status: domain.StatusCompleted}
	err := repo.UpdateStatusWithLog(context.Background(), order, domain.StatusReady, 3)

	assert.ErrorIs(t, err, domain.ErrStaleStatus)
	assert.False(t, db.committed)
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0].sql, "AND status = $5")
	assert.Equal(t, int(domain.StatusReady), db.execs[0].args[4])
}

func TestOrderRepository_UpdateStatusWritesLog(t *testing.T) {
	db := &fakeDB{}
	repo := NewOrderRepository(db)

	err := repo.UpdateStatusWithLog(context.Background(), &domain.Order{ID: 5, Status: domain.StatusInPreparation}, domain.StatusPending, 4)

	require.NoError(t, err)
	assert.True(t, db.committed)
	require.Len(t, db.execs, 2)
	assert.Contains(t, db.execs[1].sql, "order_status_log")
	assert.Equal(t, []any{int64(5), 1, int64(4)}, db.execs[1].args[:3])
}

func TestOrderRepository_FindByIDMissing(t *testing.T) {
	repo := NewOrderRepository(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := repo.FindByID(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFavoriteRepository_Toggle(t *testing.T) {
	t.Run("adds when nothing was deleted", func(t *testing.T) {
		db := &fakeDB{affected: []int64{0, 1}}
		added, err := NewFavoriteRepository(db).Toggle(context.Background(), 1, 2)

		require.NoError(t, err)
		assert.True(t, added)
		require.Len(t, db.execs, 2)
		assert.True(t, strings.HasPrefix(db.execs[1].sql, "INSERT"))
		assert.True(t, db.committed)
	})

	t.Run("removes an existing favorite", func(t *testing.T) {
		db := &fakeDB{affected: []int64{1}}
		added, err := NewFavoriteRepository(db).Toggle(context.Background(), 1, 2)

		require.NoError(t, err)
		assert.False(t, added)
		assert.Len(t, db.execs, 1)
	})
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := repo.FindByUsername(context.Background(), "ana")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.FindByToken(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_CreateScansID(t *testing.T) {
	repo := NewUserRepository(&fakeDB{row: fakeRow{values: []any{int64(42)}}})
	user := &domain.User{Username: "ana", Role: domain.RoleClient}

	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(42), user.ID)
}

func TestEnsureSchema_AppliesEveryStatement(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.Len(t, db.execs, len(schema))
}

func TestUserRepository_SetTokenUnknownUser(t *testing.T) {
	db := &fakeDB{affected: []int64{0}}
	err := NewUserRepository(db).SetToken(context.Background(), 3, "tok")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
