package usecases

import (
	"context"
	"sort"
	"sync"
	"time"

	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/domain/shared/events"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/query"
)

// The fakes below hold entities by pointer, which is enough fidelity for
// use case tests: persistence semantics have their own suite against
// sqlite in the repository package.

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) PublishAll(es []events.DomainEvent) error {
	for _, e := range es {
		if err := p.Publish(e); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

func fixedClock(t time.Time) license.Clock {
	return license.ClockFunc(func() time.Time { return t })
}

type fakeKeyRepo struct {
	mu     sync.Mutex
	nextID uint
	keys   map[uint]*license.Key
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{keys: map[uint]*license.Key{}}
}

func (r *fakeKeyRepo) Create(_ context.Context, key *license.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := key.Validate(); err != nil {
		return err
	}
	key.EnsureUUID()
	r.nextID++
	key.SetID(r.nextID)
	key.TouchCreated(time.Now().UTC())
	key.ApplyMetaDiff()
	key.MarkClean()
	r.keys[key.ID()] = key
	return nil
}

func (r *fakeKeyRepo) Update(_ context.Context, key *license.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key.ID() == 0 || r.keys[key.ID()] == nil {
		return license.ErrKeyNotFound
	}
	key.ApplyMetaDiff()
	key.MarkClean()
	r.keys[key.ID()] = key
	return nil
}

func (r *fakeKeyRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, id)
	return nil
}

func (r *fakeKeyRepo) FindByID(_ context.Context, id uint) (*license.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[id], nil
}

func (r *fakeKeyRepo) FindByCode(_ context.Context, code string) (*license.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.sorted() {
		if k.Code() == code {
			return k, nil
		}
	}
	return nil, nil
}

func (r *fakeKeyRepo) FindByCodeForUpdate(ctx context.Context, code string) (*license.Key, error) {
	return r.FindByCode(ctx, code)
}

func (r *fakeKeyRepo) FindByUUID(_ context.Context, uuid string) (*license.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.sorted() {
		if k.UUID() == uuid {
			return k, nil
		}
	}
	return nil, nil
}

func (r *fakeKeyRepo) List(_ context.Context, filter *query.Filter) ([]*license.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*license.Key
	for _, k := range r.sorted() {
		if matchKey(filter, k) {
			out = append(out, k)
		}
	}
	return pageKeys(out, filter), nil
}

func (r *fakeKeyRepo) ListIDs(ctx context.Context, filter *query.Filter) ([]uint, error) {
	keys, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k.ID())
	}
	return ids, nil
}

func (r *fakeKeyRepo) Count(_ context.Context, filter *query.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range r.keys {
		if matchKey(filter, k) {
			n++
		}
	}
	return n, nil
}

func (r *fakeKeyRepo) CountByCode(_ context.Context, code string, excludeID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range r.keys {
		if k.Code() == code && (excludeID == 0 || k.ID() != excludeID) {
			n++
		}
	}
	return n, nil
}

func (r *fakeKeyRepo) CountStock(_ context.Context, productID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range r.keys {
		if k.ProductID() == productID && k.Status() == vo.KeyStatusAvailable {
			n++
		}
	}
	return n, nil
}

func (r *fakeKeyRepo) sorted() []*license.Key {
	out := make([]*license.Key, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// matchKey evaluates the predicate subset the use cases actually build.
func matchKey(f *query.Filter, k *license.Key) bool {
	if f == nil {
		return true
	}
	for _, p := range f.Predicates {
		var actual any
		switch p.Column {
		case "id":
			actual = k.ID()
		case "product_id":
			actual = k.ProductID()
		case "order_id":
			actual = k.OrderID()
		case "customer_id":
			actual = k.CustomerID()
		case "status":
			actual = k.Status().String()
		default:
			return false
		}
		var want any
		if len(p.Values) > 0 {
			want = p.Values[0]
		}
		switch p.Op {
		case query.OpEq:
			if actual != want {
				return false
			}
		case query.OpNeq:
			if actual == want {
				return false
			}
		case query.OpGt:
			if actual.(uint) <= want.(uint) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func pageKeys(keys []*license.Key, f *query.Filter) []*license.Key {
	if f == nil || f.Limit <= 0 {
		return keys
	}
	start := f.Offset()
	if start >= len(keys) {
		return nil
	}
	end := start + f.Limit
	if end > len(keys) {
		end = len(keys)
	}
	return keys[start:end]
}

type fakeActivationRepo struct {
	mu          sync.Mutex
	nextID      uint
	activations map[uint]*license.Activation
}

func newFakeActivationRepo() *fakeActivationRepo {
	return &fakeActivationRepo{activations: map[uint]*license.Activation{}}
}

func (r *fakeActivationRepo) Create(_ context.Context, a *license.Activation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.activations {
		if existing.KeyID() == a.KeyID() && existing.Instance() == a.Instance() {
			return license.ErrDuplicateActivation
		}
	}
	r.nextID++
	a.SetID(r.nextID)
	a.MarkClean()
	r.activations[a.ID()] = a
	return nil
}

func (r *fakeActivationRepo) Update(_ context.Context, a *license.Activation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID() == 0 || r.activations[a.ID()] == nil {
		return license.ErrActivationNotFound
	}
	a.MarkClean()
	r.activations[a.ID()] = a
	return nil
}

func (r *fakeActivationRepo) DeleteByKeyID(_ context.Context, keyID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.activations {
		if a.KeyID() == keyID {
			delete(r.activations, id)
		}
	}
	return nil
}

func (r *fakeActivationRepo) FindByKeyAndInstance(_ context.Context, keyID uint, instance string) (*license.Activation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.activations {
		if a.KeyID() == keyID && a.Instance() == instance {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeActivationRepo) ListByKey(_ context.Context, keyID uint) ([]*license.Activation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*license.Activation
	for _, a := range r.activations {
		if a.KeyID() == keyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (r *fakeActivationRepo) CountActiveByKey(_ context.Context, keyID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.activations {
		if a.KeyID() == keyID && a.IsActive() {
			n++
		}
	}
	return n, nil
}

type fakeGeneratorRepo struct {
	mu         sync.Mutex
	nextID     uint
	generators map[uint]*license.Generator
}

func newFakeGeneratorRepo() *fakeGeneratorRepo {
	return &fakeGeneratorRepo{generators: map[uint]*license.Generator{}}
}

func (r *fakeGeneratorRepo) Create(_ context.Context, g *license.Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	g.SetID(r.nextID)
	g.TouchCreated(time.Now().UTC())
	g.MarkClean()
	r.generators[g.ID()] = g
	return nil
}

func (r *fakeGeneratorRepo) Update(_ context.Context, g *license.Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID() == 0 || r.generators[g.ID()] == nil {
		return license.ErrGeneratorNotFound
	}
	g.MarkClean()
	r.generators[g.ID()] = g
	return nil
}

func (r *fakeGeneratorRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.generators, id)
	return nil
}

func (r *fakeGeneratorRepo) FindByID(_ context.Context, id uint) (*license.Generator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generators[id], nil
}

func (r *fakeGeneratorRepo) List(_ context.Context, _ *query.Filter) ([]*license.Generator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*license.Generator, 0, len(r.generators))
	for _, g := range r.generators {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

type fakeSequenceRepo struct {
	mu        sync.Mutex
	positions map[uint]uint64
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{positions: map[uint]uint64{}}
}

func (r *fakeSequenceRepo) Position(_ context.Context, productID uint) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pos, ok := r.positions[productID]; ok {
		return pos, nil
	}
	return 1, nil
}

func (r *fakeSequenceRepo) Advance(_ context.Context, productID uint, position uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions[productID] = position
	return nil
}

type fakeOrderProvider struct {
	orders      map[uint]*license.Order
	deliveryQty map[uint]int
	keyOrders   map[uint]bool
}

func newFakeOrderProvider(orders ...*license.Order) *fakeOrderProvider {
	p := &fakeOrderProvider{
		orders:      map[uint]*license.Order{},
		deliveryQty: map[uint]int{},
		keyOrders:   map[uint]bool{},
	}
	for _, o := range orders {
		p.orders[o.ID] = o
	}
	return p
}

func (p *fakeOrderProvider) GetOrder(_ context.Context, id uint) (*license.Order, error) {
	return p.orders[id], nil
}

func (p *fakeOrderProvider) GetItemDeliveryQty(_ context.Context, orderItemID uint) (int, bool, error) {
	qty, ok := p.deliveryQty[orderItemID]
	return qty, ok, nil
}

func (p *fakeOrderProvider) SetItemDeliveryQty(_ context.Context, orderItemID uint, qty int) error {
	p.deliveryQty[orderItemID] = qty
	return nil
}

func (p *fakeOrderProvider) FlagKeyOrder(_ context.Context, orderID uint) error {
	p.keyOrders[orderID] = true
	return nil
}

func (p *fakeOrderProvider) IsKeyOrder(_ context.Context, orderID uint) (bool, error) {
	return p.keyOrders[orderID], nil
}

type fakeProductProvider struct {
	products map[uint]*license.Product
}

func newFakeProductProvider(products ...*license.Product) *fakeProductProvider {
	p := &fakeProductProvider{products: map[uint]*license.Product{}}
	for _, prod := range products {
		p.products[prod.ID] = prod
	}
	return p
}

func (p *fakeProductProvider) GetProduct(_ context.Context, id uint) (*license.Product, error) {
	return p.products[id], nil
}

func testLogger() logger.Interface {
	return logger.NewLogger()
}
