package composer

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

// Builder assembles an order before it is submitted.
type Builder struct {
	mu    sync.Mutex
	order domain.Order
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddLineItem appends a new line item for product and returns a copy of it.
// The ordinal numbers duplicates of the same product starting at 1.
func (b *Builder) AddLineItem(product domain.Product) domain.LineItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	item := domain.LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Ordinal:   1 + b.countLocked(product.ID),
		UnitPrice: product.Price,
	}
	b.order.Items = append(b.order.Items, item)
	return item.Clone()
}

// ToggleIngredientModification adds the (ingredient, kind) pair to the line
// item at index, or removes it when already present.
func (b *Builder) ToggleIngredientModification(index int, ingredient domain.Ingredient, kind domain.ModificationKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.order.Items) {
		return fmt.Errorf("toggle modification at %d: %w", index, domain.ErrLineItemNotFound)
	}

	item := &b.order.Items[index]
	for i, m := range item.Modifications {
		if m.IngredientID == ingredient.ID && m.Kind == kind {
			item.Modifications = append(item.Modifications[:i:i], item.Modifications[i+1:]...)
			return nil
		}
	}

	mod := domain.IngredientModification{
		IngredientID: ingredient.ID,
		LineItemID:   item.ID,
		Name:         ingredient.Name,
		Kind:         kind,
	}
	if kind == domain.ModificationAddedExtra {
		mod.Price = ingredient.Price
	}
	item.Modifications = append(item.Modifications, mod)
	return nil
}

// RemoveLineItem drops the first line item for productID. No match is a no-op.
func (b *Builder) RemoveLineItem(productID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, item := range b.order.Items {
		if item.ProductID == productID {
			b.order.Items = append(b.order.Items[:i:i], b.order.Items[i+1:]...)
			return
		}
	}
}

func (b *Builder) ComputeTotal() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.CalculateTotal(b.order.Items)
}

// IsEmpty is true when no line item carries any value. It decides whether
// the comments drawer may close on its own.
func (b *Builder) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, item := range b.order.Items {
		if !lineItemIsZero(item) {
			return false
		}
	}
	return true
}

func lineItemIsZero(item domain.LineItem) bool {
	return item.ID == 0 &&
		item.OrderID == 0 &&
		item.ProductID == 0 &&
		item.Name == "" &&
		item.Category == "" &&
		item.Ordinal == 0 &&
		item.UnitPrice.IsZero() &&
		item.Comments == "" &&
		item.Fulfillment == domain.FulfillmentUnset &&
		len(item.Modifications) == 0
}

func (b *Builder) SetClient(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order.Client = name
}

func (b *Builder) SetComments(comments string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order.Comments = comments
}

func (b *Builder) SetOrigin(origin string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order.Origin = origin
}

func (b *Builder) SetLineItemComments(index int, comments string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.order.Items) {
		return fmt.Errorf("set comments at %d: %w", index, domain.ErrLineItemNotFound)
	}
	b.order.Items[index].Comments = comments
	return nil
}

func (b *Builder) SetFulfillment(index int, fulfillment domain.FulfillmentType) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.order.Items) {
		return fmt.Errorf("set fulfillment at %d: %w", index, domain.ErrLineItemNotFound)
	}
	if !fulfillment.Valid() {
		return &domain.ValidationError{Field: "order_type", Message: fmt.Sprintf("unknown fulfillment type %d", fulfillment)}
	}
	b.order.Items[index].Fulfillment = fulfillment
	return nil
}

// Selected lists the names of the modifications of one kind on a line item,
// in the order they were toggled on.
func (b *Builder) Selected(index int, kind domain.ModificationKind) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.order.Items) {
		return nil, fmt.Errorf("selected at %d: %w", index, domain.ErrLineItemNotFound)
	}

	var names []string
	for _, m := range b.order.Items[index].Modifications {
		if m.Kind == kind {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

// Count is how many line items reference productID.
func (b *Builder) Count(productID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.countLocked(productID)
}

func (b *Builder) countLocked(productID int64) int {
	n := 0
	for _, item := range b.order.Items {
		if item.ProductID == productID {
			n++
		}
	}
	return n
}

// Order returns a deep copy with the total recomputed, ready to submit.
func (b *Builder) Order() domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	o := b.order.Clone()
	o.RecalculateTotal()
	return o
}

func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order = domain.Order{}
}
