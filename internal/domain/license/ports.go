package license

import (
	"context"
	"time"
)

// Order is the projection of an external order the key lifecycle needs:
// identity, customer attribution, billing email for validation checks, and
// the line items a key can bind to.
type Order struct {
	ID           uint
	CustomerID   uint
	BillingEmail string
	CreatedAt    time.Time
	Paid         bool
	Lines        []OrderLine
}

// OrderLine is one purchasable line of an order.
type OrderLine struct {
	ItemID    uint
	ProductID uint
	Quantity  int
	Total     float64
}

// LineFor returns the first line whose product matches, or nil.
func (o *Order) LineFor(productID uint) *OrderLine {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			return &o.Lines[i]
		}
	}
	return nil
}

// OrderProvider is the boundary to the order subsystem. Implementations
// live outside the core; the lifecycle engine only consumes these calls.
type OrderProvider interface {
	// GetOrder returns nil, nil when the order does not exist.
	GetOrder(ctx context.Context, id uint) (*Order, error)

	// GetItemDeliveryQty returns the cached per-item delivery quantity.
	// ok is false when no value has been recorded for the item yet.
	GetItemDeliveryQty(ctx context.Context, orderItemID uint) (qty int, ok bool, err error)

	// SetItemDeliveryQty records the delivery quantity for an order item
	// so later price computations reuse the same figure.
	SetItemDeliveryQty(ctx context.Context, orderItemID uint, qty int) error

	// FlagKeyOrder marks the order as one that carries license keys.
	// Flagging an already flagged order is a no-op.
	FlagKeyOrder(ctx context.Context, orderID uint) error

	// IsKeyOrder reports whether the order has been flagged.
	IsKeyOrder(ctx context.Context, orderID uint) (bool, error)
}

// Product is the projection of an external product: whether it sells keys
// and how many keys one purchased unit delivers.
type Product struct {
	ID          uint
	SKU         string
	SellsKeys   bool
	DeliveryQty int
}

// ProductProvider is the boundary to the product catalog.
type ProductProvider interface {
	// GetProduct returns nil, nil when the product does not exist.
	GetProduct(ctx context.Context, id uint) (*Product, error)
}

// Clock abstracts "now" so expiry logic stays testable.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}
