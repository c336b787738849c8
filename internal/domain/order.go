package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentType tells the kitchen whether a line item is eaten in or taken away.
type FulfillmentType int

const (
	FulfillmentUnset   FulfillmentType = 0
	FulfillmentDineIn  FulfillmentType = 1
	FulfillmentTakeOut FulfillmentType = 2
)

func (f FulfillmentType) Valid() bool {
	return f == FulfillmentDineIn || f == FulfillmentTakeOut
}

// ModificationKind distinguishes a removed default ingredient from a paid extra.
type ModificationKind int

const (
	ModificationRemoved    ModificationKind = 0
	ModificationAddedExtra ModificationKind = 1
)

const OriginLocal = "LOCAL"

// Order represents a placed restaurant order
type Order struct {
	ID         int64           `json:"idorder"`
	Client     string          `json:"client"`
	Items      []LineItem      `json:"order_details"`
	Total      decimal.Decimal `json:"total"`
	Comments   string          `json:"comments"`
	Origin     string          `json:"origin"`
	CreatedAt  time.Time       `json:"date"`
	Status     Status          `json:"status"`
	UserID     int64           `json:"users_idusers"`
	StartedAt  *time.Time      `json:"start_order"`
	FinishedAt *time.Time      `json:"finish_order"`
}

// LineItem is one product instance within an order
type LineItem struct {
	ID            int64                    `json:"idorderdetail"`
	OrderID       int64                    `json:"order_idorder"`
	ProductID     int64                    `json:"products_idproducts"`
	Name          string                   `json:"name"`
	Category      string                   `json:"name_category"`
	Ordinal       int                      `json:"amount"`
	UnitPrice     decimal.Decimal          `json:"unit_price"`
	Comments      string                   `json:"comments"`
	Fulfillment   FulfillmentType          `json:"order_type"`
	Modifications []IngredientModification `json:"not_ingredient"`
}

// IngredientModification removes a default ingredient or adds a priced extra.
type IngredientModification struct {
	IngredientID int64            `json:"ingredients_idingredients"`
	LineItemID   int64            `json:"order_details_idorderdetail"`
	Name         string           `json:"name"`
	Kind         ModificationKind `json:"type"`
	Price        decimal.Decimal  `json:"price"`
}

// Price is the unit price plus every added extra. Removals never count.
func (li LineItem) Price() decimal.Decimal {
	total := li.UnitPrice
	for _, m := range li.Modifications {
		if m.Kind == ModificationAddedExtra {
			total = total.Add(m.Price)
		}
	}
	return total
}

// CalculateTotal returns the sum of every line item price.
func CalculateTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price())
	}
	return total
}

// RecalculateTotal overwrites Total with the value derived from the items.
func (o *Order) RecalculateTotal() {
	o.Total = CalculateTotal(o.Items)
}

// ApplySubmitDefaults fills the fields that get a value at submit time.
func (o *Order) ApplySubmitDefaults(now time.Time) {
	for i := range o.Items {
		if o.Items[i].Fulfillment == FulfillmentUnset {
			o.Items[i].Fulfillment = FulfillmentDineIn
		}
	}
	if o.Origin == "" {
		o.Origin = OriginLocal
	}
	o.Status = StatusPending
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
}

// Validate applies the rules every order must satisfy before it is submitted
func (o *Order) Validate() error {
	if strings.TrimSpace(o.Client) == "" {
		return &ValidationError{Field: "client", Message: "client name is required"}
	}
	if len(o.Items) < 1 {
		return &ValidationError{Field: "order_details", Message: "order must have at least one line item"}
	}
	for _, item := range o.Items {
		if !item.Fulfillment.Valid() {
			return &ValidationError{Field: "order_type", Message: "every line item needs a fulfillment type"}
		}
		if item.UnitPrice.IsNegative() {
			return &ValidationError{Field: "unit_price", Message: "unit price must not be negative"}
		}
	}
	return nil
}

// Clone returns a deep copy, so snapshots handed out never share slices.
func (o Order) Clone() Order {
	cp := o
	if o.Items != nil {
		cp.Items = make([]LineItem, len(o.Items))
		for i, item := range o.Items {
			cp.Items[i] = item.Clone()
		}
	}
	if o.StartedAt != nil {
		t := *o.StartedAt
		cp.StartedAt = &t
	}
	if o.FinishedAt != nil {
		t := *o.FinishedAt
		cp.FinishedAt = &t
	}
	return cp
}

func (li LineItem) Clone() LineItem {
	cp := li
	if li.Modifications != nil {
		cp.Modifications = append([]IngredientModification(nil), li.Modifications...)
	}
	return cp
}

// CloneOrders deep-copies a list of orders.
func CloneOrders(orders []Order) []Order {
	if orders == nil {
		return nil
	}
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}
