package license

import (
	"time"

	vo "keymint/internal/domain/license/valueobjects"
)

// Activation records that one instance (a device, domain or environment)
// holds, or once held, an activation of a key. Rows are never hard-deleted
// by deactivation; they flip to inactive and can be reactivated. Uniqueness
// of (key_id, instance) is enforced by the store.
type Activation struct {
	id        uint
	keyID     uint
	instance  string
	ipAddress string
	userAgent string
	status    vo.ActivationStatus

	activatedAt   *time.Time
	deactivatedAt *time.Time
	createdAt     time.Time
	updatedAt     time.Time

	dirty map[string]struct{}
}

// NewActivation creates an active activation for a key and a sanitized
// instance identifier.
func NewActivation(keyID uint, instance, ipAddress, userAgent string, now time.Time) (*Activation, error) {
	instance = SanitizeInstance(instance)
	if instance == "" {
		return nil, ErrMissingInstance
	}
	if keyID == 0 {
		return nil, ErrKeyNotFound.WithDetails("activation requires a persisted key")
	}

	return &Activation{
		keyID:       keyID,
		instance:    instance,
		ipAddress:   ipAddress,
		userAgent:   userAgent,
		status:      vo.ActivationStatusActive,
		activatedAt: &now,
		dirty:       map[string]struct{}{},
	}, nil
}

// ActivationReconstructParams carries a persisted activation row.
type ActivationReconstructParams struct {
	ID            uint
	KeyID         uint
	Instance      string
	IPAddress     string
	UserAgent     string
	Status        vo.ActivationStatus
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReconstructActivation rebuilds an activation from persistence.
func ReconstructActivation(p ActivationReconstructParams) (*Activation, error) {
	if p.Instance == "" {
		return nil, ErrMissingInstance
	}
	if !vo.ValidActivationStatuses[p.Status] {
		return nil, ErrActivationNotFound.WithDetails("invalid stored status " + string(p.Status))
	}

	return &Activation{
		id:            p.ID,
		keyID:         p.KeyID,
		instance:      p.Instance,
		ipAddress:     p.IPAddress,
		userAgent:     p.UserAgent,
		status:        p.Status,
		activatedAt:   p.ActivatedAt,
		deactivatedAt: p.DeactivatedAt,
		createdAt:     p.CreatedAt,
		updatedAt:     p.UpdatedAt,
		dirty:         map[string]struct{}{},
	}, nil
}

func (a *Activation) ID() uint                    { return a.id }
func (a *Activation) KeyID() uint                 { return a.keyID }
func (a *Activation) Instance() string            { return a.instance }
func (a *Activation) IPAddress() string           { return a.ipAddress }
func (a *Activation) UserAgent() string           { return a.userAgent }
func (a *Activation) Status() vo.ActivationStatus { return a.status }
func (a *Activation) ActivatedAt() *time.Time     { return a.activatedAt }
func (a *Activation) DeactivatedAt() *time.Time   { return a.deactivatedAt }
func (a *Activation) CreatedAt() time.Time        { return a.createdAt }
func (a *Activation) UpdatedAt() time.Time        { return a.updatedAt }

// SetID sets the activation ID (only for persistence layer use).
func (a *Activation) SetID(id uint) {
	if a.id == 0 {
		a.id = id
	}
}

// IsActive reports whether this instance currently counts against the
// parent key's activation limit.
func (a *Activation) IsActive() bool {
	return a.status == vo.ActivationStatusActive
}

func (a *Activation) mark(column string) {
	a.dirty[column] = struct{}{}
}

// Reactivate brings an inactive row back to active, refreshing the caller
// metadata. Reactivating an already active row is a no-op.
func (a *Activation) Reactivate(ipAddress, userAgent string, now time.Time) {
	if a.status == vo.ActivationStatusActive {
		return
	}
	a.status = vo.ActivationStatusActive
	a.mark("status")

	a.activatedAt = &now
	a.mark("activated_at")
	a.deactivatedAt = nil
	a.mark("deactivated_at")

	if ipAddress != "" && ipAddress != a.ipAddress {
		a.ipAddress = ipAddress
		a.mark("ip_address")
	}
	if userAgent != "" && userAgent != a.userAgent {
		a.userAgent = userAgent
		a.mark("user_agent")
	}
}

// Deactivate flips the row to inactive. Deactivating an inactive row is a
// no-op.
func (a *Activation) Deactivate(now time.Time) {
	if a.status == vo.ActivationStatusInactive {
		return
	}
	a.status = vo.ActivationStatusInactive
	a.mark("status")
	a.deactivatedAt = &now
	a.mark("deactivated_at")
}

// Dirty returns the persisted column names changed since load.
func (a *Activation) Dirty() []string {
	cols := make([]string, 0, len(a.dirty))
	for c := range a.dirty {
		cols = append(cols, c)
	}
	return cols
}

// IsDirty reports whether any persisted column changed.
func (a *Activation) IsDirty() bool {
	return len(a.dirty) > 0
}

// MarkClean resets the dirty set after a successful save.
func (a *Activation) MarkClean() {
	a.dirty = map[string]struct{}{}
}

// TouchCreated stamps created_at once, on first insert.
func (a *Activation) TouchCreated(now time.Time) {
	if a.createdAt.IsZero() {
		a.createdAt = now
		a.updatedAt = now
	}
}

// TouchUpdated stamps updated_at.
func (a *Activation) TouchUpdated(now time.Time) {
	a.updatedAt = now
}
