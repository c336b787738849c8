package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		idusers       BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		phone         TEXT NOT NULL UNIQUE,
		rol           SMALLINT NOT NULL,
		password_hash TEXT NOT NULL,
		token         TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_token_idx ON users (token) WHERE token IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS orders (
		idorder       BIGSERIAL PRIMARY KEY,
		client        TEXT NOT NULL,
		total         NUMERIC(12,2) NOT NULL,
		comments      TEXT NOT NULL DEFAULT '',
		origin        TEXT NOT NULL,
		date          TIMESTAMPTZ NOT NULL,
		status        SMALLINT NOT NULL DEFAULT 0,
		users_idusers BIGINT NOT NULL,
		start_order   TIMESTAMPTZ,
		finish_order  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_idx ON orders (users_idusers)`,
	`CREATE TABLE IF NOT EXISTS order_details (
		idorderdetail       BIGSERIAL PRIMARY KEY,
		order_idorder       BIGINT NOT NULL REFERENCES orders (idorder) ON DELETE CASCADE,
		products_idproducts BIGINT NOT NULL,
		name                TEXT NOT NULL DEFAULT '',
		name_category       TEXT NOT NULL DEFAULT '',
		amount              INT NOT NULL,
		unit_price          NUMERIC(12,2) NOT NULL,
		comments            TEXT NOT NULL DEFAULT '',
		order_type          SMALLINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_detail_ingredients (
		order_details_idorderdetail BIGINT NOT NULL REFERENCES order_details (idorderdetail) ON DELETE CASCADE,
		ingredients_idingredients   BIGINT NOT NULL,
		name                        TEXT NOT NULL DEFAULT '',
		type                        SMALLINT NOT NULL,
		price                       NUMERIC(12,2) NOT NULL DEFAULT 0,
		position                    INT NOT NULL,
		PRIMARY KEY (order_details_idorderdetail, ingredients_idingredients, type)
	)`,
	`CREATE TABLE IF NOT EXISTS order_status_log (
		id         BIGSERIAL PRIMARY KEY,
		order_id   BIGINT NOT NULL REFERENCES orders (idorder) ON DELETE CASCADE,
		status     SMALLINT NOT NULL,
		changed_by BIGINT NOT NULL,
		changed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		idusers    BIGINT NOT NULL,
		idproducts BIGINT NOT NULL,
		PRIMARY KEY (idusers, idproducts)
	)`,
}

// EnsureSchema creates the tables the repositories need. Safe to run on every start.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
