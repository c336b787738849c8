package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

const orderColumns = `idorder, client, total, comments, origin, date, status,
	users_idusers, start_order, finish_order`

type orderRepository struct {
	db  DB
	now func() time.Time
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db, now: time.Now}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return inTx(ctx, r.db, func(tx Tx) error {
		query := `
			INSERT INTO orders (client, total, comments, origin, date, status, users_idusers)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING idorder
		`
		err := tx.QueryRow(ctx, query,
			order.Client, order.Total, order.Comments, order.Origin, order.CreatedAt, int(order.Status), order.UserID,
		).Scan(&order.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range order.Items {
			if err := insertLineItem(ctx, tx, order.ID, &order.Items[i]); err != nil {
				return err
			}
		}

		return insertStatusLog(ctx, tx, order.ID, order.Status, order.UserID, r.now())
	})
}

func insertLineItem(ctx context.Context, tx Tx, orderID int64, item *domain.LineItem) error {
	query := `
		INSERT INTO order_details (order_idorder, products_idproducts, name, name_category,
		                           amount, unit_price, comments, order_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING idorderdetail
	`
	err := tx.QueryRow(ctx, query,
		orderID, item.ProductID, item.Name, item.Category,
		item.Ordinal, item.UnitPrice, item.Comments, int(item.Fulfillment),
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order detail: %w", err)
	}
	item.OrderID = orderID

	modQuery := `
		INSERT INTO order_detail_ingredients (order_details_idorderdetail, ingredients_idingredients,
		                                      name, type, price, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for pos := range item.Modifications {
		mod := &item.Modifications[pos]
		if _, err := tx.Exec(ctx, modQuery, item.ID, mod.IngredientID, mod.Name, int(mod.Kind), mod.Price, pos); err != nil {
			return fmt.Errorf("failed to insert ingredient modification: %w", err)
		}
		mod.LineItemID = item.ID
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE idorder = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	orders := []domain.Order{order}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY idorder DESC`
	return r.listOrders(ctx, query)
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE users_idusers = $1 ORDER BY idorder DESC`
	return r.listOrders(ctx, query, userID)
}

// UpdateStatusWithLog is a compare-and-set on the status column, so two
// racing transitions out of the same status cannot both land.
func (r *orderRepository) UpdateStatusWithLog(ctx context.Context, order *domain.Order, from domain.Status, changedBy int64) error {
	return inTx(ctx, r.db, func(tx Tx) error {
		query := `
			UPDATE orders
			SET status = $1, start_order = $2, finish_order = $3
			WHERE idorder = $4 AND status = $5
		`
		tag, err := tx.Exec(ctx, query, int(order.Status), order.StartedAt, order.FinishedAt, order.ID, int(from))
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE idorder = $1)`, order.ID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check order: %w", err)
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrStaleStatus
		}

		return insertStatusLog(ctx, tx, order.ID, order.Status, changedBy, r.now())
	})
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int64) ([]domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, nil
}

func insertStatusLog(ctx context.Context, tx Tx, orderID int64, status domain.Status, changedBy int64, at time.Time) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, query, orderID, int(status), changedBy, at); err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	rows.Close()

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fills Items for every order with two queries, whatever the list size.
func (r *orderRepository) loadItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	orderIDs := make([]int64, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}

	itemQuery := `
		SELECT idorderdetail, order_idorder, products_idproducts, name, name_category,
		       amount, unit_price, comments, order_type
		FROM order_details
		WHERE order_idorder = ANY($1)
		ORDER BY idorderdetail ASC
	`
	rows, err := r.db.Query(ctx, itemQuery, orderIDs)
	if err != nil {
		return fmt.Errorf("failed to load order details: %w", err)
	}
	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Category,
			&item.Ordinal, &item.UnitPrice, &item.Comments, &item.Fulfillment); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan order detail: %w", err)
		}
		items = append(items, item)
	}
	rows.Close()

	if len(items) == 0 {
		attachDetails(orders, nil, nil)
		return nil
	}
	itemIDs := make([]int64, len(items))
	for i, item := range items {
		itemIDs[i] = item.ID
	}

	modQuery := `
		SELECT order_details_idorderdetail, ingredients_idingredients, name, type, price
		FROM order_detail_ingredients
		WHERE order_details_idorderdetail = ANY($1)
		ORDER BY order_details_idorderdetail ASC, position ASC
	`
	rows, err = r.db.Query(ctx, modQuery, itemIDs)
	if err != nil {
		return fmt.Errorf("failed to load ingredient modifications: %w", err)
	}
	defer rows.Close()

	var mods []domain.IngredientModification
	for rows.Next() {
		var mod domain.IngredientModification
		if err := rows.Scan(&mod.LineItemID, &mod.IngredientID, &mod.Name, &mod.Kind, &mod.Price); err != nil {
			return fmt.Errorf("failed to scan ingredient modification: %w", err)
		}
		mods = append(mods, mod)
	}

	attachDetails(orders, items, mods)
	return nil
}

// attachDetails groups flat detail and modification rows under their parents,
// keeping row order.
func attachDetails(orders []domain.Order, items []domain.LineItem, mods []domain.IngredientModification) {
	modsByItem := make(map[int64][]domain.IngredientModification)
	for _, m := range mods {
		modsByItem[m.LineItemID] = append(modsByItem[m.LineItemID], m)
	}

	itemsByOrder := make(map[int64][]domain.LineItem)
	for _, item := range items {
		item.Modifications = modsByItem[item.ID]
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
}

func scanOrder(row Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.Client, &o.Total, &o.Comments, &o.Origin, &o.CreatedAt, &o.Status,
		&o.UserID, &o.StartedAt, &o.FinishedAt)
	return o, err
}
