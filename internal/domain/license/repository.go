package license

import (
	"context"

	"keymint/internal/shared/query"
)

// KeyRepository persists license keys and their metadata side table.
// Not-found lookups return (nil, nil); only storage failures error.
type KeyRepository interface {
	// Create inserts a new key, assigns its ID back and writes any staged
	// metadata. A missing UUID is generated before the insert.
	Create(ctx context.Context, key *Key) error

	// Update writes only the dirty columns. When nothing is dirty the row
	// is left untouched, but staged metadata is still applied.
	Update(ctx context.Context, key *Key) error

	// Delete removes the key, its metadata and all child activations.
	Delete(ctx context.Context, id uint) error

	FindByID(ctx context.Context, id uint) (*Key, error)
	FindByCode(ctx context.Context, code string) (*Key, error)
	FindByUUID(ctx context.Context, uuid string) (*Key, error)

	// FindByCodeForUpdate loads a key by code while holding a row lock
	// until the surrounding transaction ends. Activation uses it so the
	// limit re-check and the activation write serialize per key.
	FindByCodeForUpdate(ctx context.Context, code string) (*Key, error)

	List(ctx context.Context, filter *query.Filter) ([]*Key, error)
	ListIDs(ctx context.Context, filter *query.Filter) ([]uint, error)
	Count(ctx context.Context, filter *query.Filter) (int64, error)

	// CountByCode backs the duplicate-code check. It counts every key
	// with the code except, when excludeID > 0, the row being updated.
	CountByCode(ctx context.Context, code string, excludeID uint) (int64, error)

	// CountStock counts keys still available for sale for a product.
	CountStock(ctx context.Context, productID uint) (int64, error)
}

// ActivationRepository persists per-instance activations.
type ActivationRepository interface {
	// Create inserts a new activation. A uniqueness violation on
	// (key_id, instance) surfaces as ErrDuplicateActivation.
	Create(ctx context.Context, activation *Activation) error

	// Update writes only the dirty columns.
	Update(ctx context.Context, activation *Activation) error

	// DeleteByKeyID hard-deletes every activation of a key.
	DeleteByKeyID(ctx context.Context, keyID uint) error

	// FindByKeyAndInstance looks up the row for a sanitized instance
	// regardless of its active/inactive status. (nil, nil) when absent.
	FindByKeyAndInstance(ctx context.Context, keyID uint, instance string) (*Activation, error)

	ListByKey(ctx context.Context, keyID uint) ([]*Activation, error)

	// CountActiveByKey counts only active rows; inactive rows do not
	// occupy the activation limit.
	CountActiveByKey(ctx context.Context, keyID uint) (int64, error)
}

// GeneratorRepository persists key-pattern templates.
type GeneratorRepository interface {
	Create(ctx context.Context, generator *Generator) error
	Update(ctx context.Context, generator *Generator) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Generator, error)
	List(ctx context.Context, filter *query.Filter) ([]*Generator, error)
}

// SequenceRepository stores the per-product sequential generation counter.
// The position is the next number to hand out; it is advanced once per
// batch, after the batch completes.
type SequenceRepository interface {
	// Position returns the stored counter for a product, starting at 1
	// when no counter exists yet.
	Position(ctx context.Context, productID uint) (uint64, error)

	// Advance persists the counter after a batch. position is the next
	// unused number.
	Advance(ctx context.Context, productID uint, position uint64) error
}
