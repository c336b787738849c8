package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

type favoriteRepository struct {
	db DB
}

func NewFavoriteRepository(db DB) interfaces.FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Toggle(ctx context.Context, userID, productID int64) (bool, error) {
	var added bool
	err := inTx(ctx, r.db, func(tx Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM favorites WHERE idusers = $1 AND idproducts = $2`, userID, productID)
		if err != nil {
			return fmt.Errorf("failed to remove favorite: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		added = true
		query := `INSERT INTO favorites (idusers, idproducts) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, query, userID, productID); err != nil {
			return fmt.Errorf("failed to add favorite: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (r *favoriteRepository) List(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT idproducts FROM favorites WHERE idusers = $1 ORDER BY idproducts`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
