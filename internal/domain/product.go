package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry a line item is built from.
type Product struct {
	ID       int64           `json:"idproducts"`
	Name     string          `json:"name"`
	Category string          `json:"name_category"`
	Price    decimal.Decimal `json:"price"`
}

// Ingredient can be removed from a product or added to it as a paid extra.
type Ingredient struct {
	ID    int64           `json:"idingredients"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
