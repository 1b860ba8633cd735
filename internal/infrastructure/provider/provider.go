// Package provider holds adapters for the order and product boundary
// ports. The real collaborators live in an external commerce system; the
// adapters here cover standalone operation and tests.
package provider

import (
	"context"
	"sync"

	"keymint/internal/domain/license"
)

// StaticProductProvider serves products from a fixed in-memory catalog.
// Lookups for unknown products return (nil, nil), matching the port
// contract.
type StaticProductProvider struct {
	mu       sync.RWMutex
	products map[uint]*license.Product
}

func NewStaticProductProvider(products ...*license.Product) *StaticProductProvider {
	p := &StaticProductProvider{products: map[uint]*license.Product{}}
	for _, product := range products {
		p.products[product.ID] = product
	}
	return p
}

func (p *StaticProductProvider) GetProduct(_ context.Context, id uint) (*license.Product, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.products[id], nil
}

// Add registers or replaces a product.
func (p *StaticProductProvider) Add(product *license.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.products[product.ID] = product
}

// MemoryOrderProvider is an in-memory order boundary for standalone
// operation. Delivery quantities and key-order flags are kept per process.
type MemoryOrderProvider struct {
	mu          sync.RWMutex
	orders      map[uint]*license.Order
	deliveryQty map[uint]int
	keyOrders   map[uint]bool
}

func NewMemoryOrderProvider(orders ...*license.Order) *MemoryOrderProvider {
	p := &MemoryOrderProvider{
		orders:      map[uint]*license.Order{},
		deliveryQty: map[uint]int{},
		keyOrders:   map[uint]bool{},
	}
	for _, order := range orders {
		p.orders[order.ID] = order
	}
	return p
}

func (p *MemoryOrderProvider) GetOrder(_ context.Context, id uint) (*license.Order, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.orders[id], nil
}

func (p *MemoryOrderProvider) GetItemDeliveryQty(_ context.Context, orderItemID uint) (int, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	qty, ok := p.deliveryQty[orderItemID]
	return qty, ok, nil
}

func (p *MemoryOrderProvider) SetItemDeliveryQty(_ context.Context, orderItemID uint, qty int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deliveryQty[orderItemID] = qty
	return nil
}

func (p *MemoryOrderProvider) FlagKeyOrder(_ context.Context, orderID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyOrders[orderID] = true
	return nil
}

func (p *MemoryOrderProvider) IsKeyOrder(_ context.Context, orderID uint) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.keyOrders[orderID], nil
}

// Put registers or replaces an order.
func (p *MemoryOrderProvider) Put(order *license.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders[order.ID] = order
}
