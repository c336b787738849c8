package orderstore

import "github.com/YelzhanWeb/comandas/internal/domain"

// Active keeps orders still in the kitchen: pending, in preparation, ready.
func Active(orders []domain.Order) []domain.Order {
	return filter(orders, func(o domain.Order) bool { return o.Status.IsActive() })
}

// History keeps completed and cancelled orders.
func History(orders []domain.Order) []domain.Order {
	return filter(orders, func(o domain.Order) bool { return o.Status.IsTerminal() })
}

func ByStatus(orders []domain.Order, status domain.Status) []domain.Order {
	return filter(orders, func(o domain.Order) bool { return o.Status == status })
}

func filter(orders []domain.Order, keep func(domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}
