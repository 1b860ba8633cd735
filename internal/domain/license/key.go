package license

import (
	"strings"
	"time"

	"github.com/google/uuid"

	vo "keymint/internal/domain/license/valueobjects"
)

// truncatedLen is how many leading characters of the code are kept as the
// display-safe truncated form.
const truncatedLen = 7

// Well-known metadata keys written by the lifecycle operations.
const (
	// MetaOrderEmail caches the billing email of the bound order so
	// activation-time email checks need no order lookup.
	MetaOrderEmail = "_order_email"
)

// Key is the license key aggregate root. Fields are private; mutation goes
// through methods that record which persisted columns changed, so an update
// with nothing dirty never touches the row.
type Key struct {
	id           uint
	uuid         string
	code         string
	truncatedKey string

	productID      uint
	orderID        uint
	orderItemID    uint
	subscriptionID uint
	vendorID       uint
	customerID     uint

	price  float64
	source vo.KeySource
	status vo.KeyStatus

	validFor        int
	activationLimit int

	orderedAt   *time.Time
	expiresAt   *time.Time
	activatedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time

	// activationCount is derived from live child activations; the
	// repository fills it in on hydration.
	activationCount int

	// activations memoizes the loaded children for this instance only.
	activations       []*Activation
	activationsLoaded bool

	// metaValues holds the loaded side-table metadata; pendingMeta is the
	// write diff where a nil value means delete.
	metaValues  map[string]string
	pendingMeta map[string]*string

	dirty      map[string]struct{}
	prevStatus vo.KeyStatus
	hasPrev    bool
}

// NewKey creates a transient, unsaved key. Code and product are the only
// hard requirements; everything else has a workable zero value.
func NewKey(code string, productID uint) (*Key, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrMissingCode
	}
	if productID == 0 {
		return nil, ErrMissingProduct
	}

	k := &Key{
		code:         code,
		truncatedKey: truncate(code),
		productID:    productID,
		source:       vo.SourceAutomatic,
		status:       vo.KeyStatusAvailable,
		metaValues:   map[string]string{},
		pendingMeta:  map[string]*string{},
		dirty:        map[string]struct{}{},
	}
	return k, nil
}

// KeyReconstructParams carries a full persisted row back into an aggregate.
type KeyReconstructParams struct {
	ID              uint
	UUID            string
	Code            string
	TruncatedKey    string
	ProductID       uint
	OrderID         uint
	OrderItemID     uint
	SubscriptionID  uint
	VendorID        uint
	CustomerID      uint
	Price           float64
	Source          vo.KeySource
	Status          vo.KeyStatus
	ValidFor        int
	ActivationLimit int
	OrderedAt       *time.Time
	ExpiresAt       *time.Time
	ActivatedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ActivationCount int
	Meta            map[string]string
}

// ReconstructKey rebuilds a key from persistence. The result starts clean:
// nothing is dirty until a mutator runs.
func ReconstructKey(p KeyReconstructParams) (*Key, error) {
	if p.Code == "" {
		return nil, ErrMissingCode
	}
	if !vo.ValidKeyStatuses[p.Status] {
		return nil, ErrKeyNotFound.WithDetails("invalid stored status " + string(p.Status))
	}

	meta := p.Meta
	if meta == nil {
		meta = map[string]string{}
	}

	return &Key{
		id:              p.ID,
		uuid:            p.UUID,
		code:            p.Code,
		truncatedKey:    p.TruncatedKey,
		productID:       p.ProductID,
		orderID:         p.OrderID,
		orderItemID:     p.OrderItemID,
		subscriptionID:  p.SubscriptionID,
		vendorID:        p.VendorID,
		customerID:      p.CustomerID,
		price:           p.Price,
		source:          p.Source,
		status:          p.Status,
		validFor:        p.ValidFor,
		activationLimit: p.ActivationLimit,
		orderedAt:       p.OrderedAt,
		expiresAt:       p.ExpiresAt,
		activatedAt:     p.ActivatedAt,
		createdAt:       p.CreatedAt,
		updatedAt:       p.UpdatedAt,
		activationCount: p.ActivationCount,
		metaValues:      meta,
		pendingMeta:     map[string]*string{},
		dirty:           map[string]struct{}{},
	}, nil
}

func truncate(code string) string {
	if len(code) <= truncatedLen {
		return code
	}
	return code[:truncatedLen]
}

// --- accessors ---

func (k *Key) ID() uint                { return k.id }
func (k *Key) UUID() string            { return k.uuid }
func (k *Key) Code() string            { return k.code }
func (k *Key) TruncatedKey() string    { return k.truncatedKey }
func (k *Key) ProductID() uint         { return k.productID }
func (k *Key) OrderID() uint           { return k.orderID }
func (k *Key) OrderItemID() uint       { return k.orderItemID }
func (k *Key) SubscriptionID() uint    { return k.subscriptionID }
func (k *Key) VendorID() uint          { return k.vendorID }
func (k *Key) CustomerID() uint        { return k.customerID }
func (k *Key) Price() float64          { return k.price }
func (k *Key) Source() vo.KeySource    { return k.source }
func (k *Key) Status() vo.KeyStatus    { return k.status }
func (k *Key) ValidFor() int           { return k.validFor }
func (k *Key) ActivationLimit() int    { return k.activationLimit }
func (k *Key) OrderedAt() *time.Time   { return k.orderedAt }
func (k *Key) ExpiresAt() *time.Time   { return k.expiresAt }
func (k *Key) ActivatedAt() *time.Time { return k.activatedAt }
func (k *Key) CreatedAt() time.Time    { return k.createdAt }
func (k *Key) UpdatedAt() time.Time    { return k.updatedAt }
func (k *Key) ActivationCount() int    { return k.activationCount }

// SetID sets the key ID (only for persistence layer use).
func (k *Key) SetID(id uint) {
	if k.id == 0 {
		k.id = id
	}
}

// EnsureUUID generates the public identifier exactly once, lazily, the
// first time the key heads for storage without one. Once set it is
// immutable.
func (k *Key) EnsureUUID() {
	if k.uuid == "" {
		k.uuid = uuid.NewString()
		k.mark("uuid")
	}
}

// --- mutators ---

func (k *Key) mark(column string) {
	k.dirty[column] = struct{}{}
}

// SetCode changes the secret material and recomputes the truncated form.
func (k *Key) SetCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrMissingCode
	}
	if code == k.code {
		return nil
	}
	k.code = code
	k.truncatedKey = truncate(code)
	k.mark("code")
	k.mark("truncated_key")
	return nil
}

func (k *Key) SetProductID(id uint) error {
	if id == 0 {
		return ErrMissingProduct
	}
	if id != k.productID {
		k.productID = id
		k.mark("product_id")
	}
	return nil
}

func (k *Key) SetSubscriptionID(id uint) {
	if id != k.subscriptionID {
		k.subscriptionID = id
		k.mark("subscription_id")
	}
}

func (k *Key) SetVendorID(id uint) {
	if id != k.vendorID {
		k.vendorID = id
		k.mark("vendor_id")
	}
}

func (k *Key) SetSource(source vo.KeySource) {
	if source != k.source {
		k.source = source
		k.mark("source")
	}
}

func (k *Key) SetValidFor(days int) {
	if days < 0 {
		days = 0
	}
	if days != k.validFor {
		k.validFor = days
		k.mark("valid_for")
	}
}

func (k *Key) SetActivationLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	if limit != k.activationLimit {
		k.activationLimit = limit
		k.mark("activation_limit")
	}
}

func (k *Key) SetExpiresAt(t *time.Time) {
	if equalTimePtr(t, k.expiresAt) {
		return
	}
	k.expiresAt = t
	k.mark("expires_at")
}

// SetStatus records a status transition. The previous value is remembered
// so the persistence layer can publish pre/post transition events around
// the physical write.
func (k *Key) SetStatus(status vo.KeyStatus) {
	if status == k.status {
		return
	}
	if !k.hasPrev {
		k.prevStatus = k.status
		k.hasPrev = true
	}
	k.status = status
	k.mark("status")
}

// StatusChange reports the pending transition, if any.
func (k *Key) StatusChange() (from, to vo.KeyStatus, changed bool) {
	if !k.hasPrev || k.prevStatus == k.status {
		return "", "", false
	}
	return k.prevStatus, k.status, true
}

// SetActivationCount is for the persistence layer, which derives the count
// from live children on hydration, and for lifecycle operations that reset
// it. It is not a persisted column.
func (k *Key) SetActivationCount(n int) {
	k.activationCount = n
}

// --- metadata ---

// Meta reads a loaded metadata value.
func (k *Key) Meta(key string) (string, bool) {
	if v, pending := k.pendingMeta[key]; pending {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	v, ok := k.metaValues[key]
	return v, ok
}

// SetMeta stages a metadata write, applied as a diff on save.
func (k *Key) SetMeta(key, value string) {
	k.pendingMeta[key] = &value
}

// DeleteMeta stages a metadata delete.
func (k *Key) DeleteMeta(key string) {
	k.pendingMeta[key] = nil
}

// PendingMeta exposes the staged metadata diff to the persistence layer.
func (k *Key) PendingMeta() map[string]*string {
	return k.pendingMeta
}

// ApplyMetaDiff folds the staged diff into the loaded values after a
// successful save.
func (k *Key) ApplyMetaDiff() {
	for key, v := range k.pendingMeta {
		if v == nil {
			delete(k.metaValues, key)
		} else {
			k.metaValues[key] = *v
		}
	}
	k.pendingMeta = map[string]*string{}
}

// --- relations ---

// Activations returns the memoized child activations, or nil with ok=false
// when they have not been loaded for this instance.
func (k *Key) Activations() ([]*Activation, bool) {
	return k.activations, k.activationsLoaded
}

// AttachActivations memoizes resolved children on this aggregate instance.
func (k *Key) AttachActivations(activations []*Activation) {
	k.activations = activations
	k.activationsLoaded = true
}

// --- dirty tracking ---

// Dirty returns the persisted column names changed since load.
func (k *Key) Dirty() []string {
	cols := make([]string, 0, len(k.dirty))
	for c := range k.dirty {
		cols = append(cols, c)
	}
	return cols
}

// IsDirty reports whether any persisted column changed.
func (k *Key) IsDirty() bool {
	return len(k.dirty) > 0
}

// MarkClean resets the dirty set after a successful save.
func (k *Key) MarkClean() {
	k.dirty = map[string]struct{}{}
	k.hasPrev = false
}

// TouchUpdated stamps updated_at; the repository calls this only when
// something actually changed.
func (k *Key) TouchUpdated(now time.Time) {
	k.updatedAt = now
}

// TouchCreated stamps created_at once, on first insert.
func (k *Key) TouchCreated(now time.Time) {
	if k.createdAt.IsZero() {
		k.createdAt = now
		k.updatedAt = now
	}
}

// --- lifecycle semantics ---

// Validate checks the invariants required for any save.
func (k *Key) Validate() error {
	if strings.TrimSpace(k.code) == "" {
		return ErrMissingCode
	}
	if k.productID == 0 {
		return ErrMissingProduct
	}
	return nil
}

// Normalize applies the save-time normalization rules: an explicit expiry
// wins over valid_for, and a key whose computed expiry has passed gets its
// stored status pinned to expired.
func (k *Key) Normalize(now time.Time) {
	if k.expiresAt != nil && !k.expiresAt.IsZero() && k.validFor != 0 {
		k.validFor = 0
		k.mark("valid_for")
	}
	if k.IsExpired(now) && k.status != vo.KeyStatusExpired {
		k.SetStatus(vo.KeyStatusExpired)
	}
}

// GetExpires computes the effective expiry timestamp: the explicit
// expires_at when set, otherwise ordered_at plus valid_for days, otherwise
// nil, meaning the key never expires.
func (k *Key) GetExpires() *time.Time {
	if k.expiresAt != nil && !k.expiresAt.IsZero() {
		return k.expiresAt
	}
	if k.validFor > 0 && k.orderedAt != nil && !k.orderedAt.IsZero() {
		t := k.orderedAt.AddDate(0, 0, k.validFor)
		return &t
	}
	return nil
}

// IsExpired reports whether the key is expired at the given instant.
// A stored expired status is sticky: it holds even if the computed expiry
// later appears to be in the future.
func (k *Key) IsExpired(now time.Time) bool {
	if k.status == vo.KeyStatusExpired {
		return true
	}
	if exp := k.GetExpires(); exp != nil {
		return exp.Before(now)
	}
	return false
}

// EffectiveStatus is the status as the outside world sees it: expired when
// the expiry condition holds, the stored value otherwise.
func (k *Key) EffectiveStatus(now time.Time) vo.KeyStatus {
	if k.IsExpired(now) {
		return vo.KeyStatusExpired
	}
	return k.status
}

// IsAtLimit reports whether the activation limit is exhausted. Zero means
// unlimited.
func (k *Key) IsAtLimit() bool {
	return k.activationLimit > 0 && k.activationCount >= k.activationLimit
}

// IsValid reports whether the key belongs to a completed sale and,
// optionally, to the given billing email and product. orderEmail is the
// bound order's billing email as resolved by the caller.
func (k *Key) IsValid(email, orderEmail string, productID uint) bool {
	switch k.status {
	case vo.KeyStatusSold, vo.KeyStatusActivated, vo.KeyStatusExpired:
	default:
		return false
	}
	if k.orderID == 0 {
		return false
	}
	if email != "" && !strings.EqualFold(email, orderEmail) {
		return false
	}
	if productID != 0 && productID != k.productID {
		return false
	}
	return true
}

// MarkSold binds the key to a paid order item.
func (k *Key) MarkSold(order *Order, orderItemID uint, price float64, now time.Time) {
	k.SetStatus(vo.KeyStatusSold)

	if order.ID != k.orderID {
		k.orderID = order.ID
		k.mark("order_id")
	}
	if orderItemID != k.orderItemID {
		k.orderItemID = orderItemID
		k.mark("order_item_id")
	}
	if order.CustomerID != k.customerID {
		k.customerID = order.CustomerID
		k.mark("customer_id")
	}
	if price != k.price {
		k.price = price
		k.mark("price")
	}

	orderedAt := order.CreatedAt
	if orderedAt.IsZero() {
		orderedAt = now
	}
	if !equalTimePtr(&orderedAt, k.orderedAt) {
		k.orderedAt = &orderedAt
		k.mark("ordered_at")
	}
}

// Release reverses an order binding, returning the key to the pool.
// Subscription-linked keys also drop their computed expiry. The caller is
// responsible for deleting the child activations.
func (k *Key) Release() {
	if k.subscriptionID != 0 {
		k.SetExpiresAt(nil)
		k.SetSubscriptionID(0)
	}

	if k.orderID != 0 {
		k.orderID = 0
		k.mark("order_id")
	}
	if k.orderItemID != 0 {
		k.orderItemID = 0
		k.mark("order_item_id")
	}
	if k.customerID != 0 {
		k.customerID = 0
		k.mark("customer_id")
	}
	if k.price != 0 {
		k.price = 0
		k.mark("price")
	}
	if k.orderedAt != nil {
		k.orderedAt = nil
		k.mark("ordered_at")
	}
	if k.activatedAt != nil {
		k.activatedAt = nil
		k.mark("activated_at")
	}

	k.activationCount = 0
	k.activations = nil
	k.activationsLoaded = false

	k.SetStatus(vo.KeyStatusAvailable)
}

// MarkActivated flips the key to activated as the side effect of saving a
// child activation.
func (k *Key) MarkActivated(now time.Time) {
	if k.status == vo.KeyStatusActivated {
		return
	}
	k.SetStatus(vo.KeyStatusActivated)
	if k.activatedAt == nil {
		k.activatedAt = &now
		k.mark("activated_at")
	}
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
