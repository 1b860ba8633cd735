package valueobjects

// KeyStatus is the lifecycle state of a license key.
type KeyStatus string

const (
	KeyStatusAvailable KeyStatus = "available"
	KeyStatusSold      KeyStatus = "sold"
	KeyStatusActivated KeyStatus = "activated"
	KeyStatusExpired   KeyStatus = "expired"
	KeyStatusCancelled KeyStatus = "cancelled"
)

func (s KeyStatus) String() string {
	return string(s)
}

// IsSellable reports whether the key can still be attached to an order.
func (s KeyStatus) IsSellable() bool {
	return s == KeyStatusAvailable
}

// CanTransitionTo reports whether the move to target is a legal lifecycle
// step. Expired is reachable from every non-terminal state since expiry is
// time-driven rather than caller-driven.
func (s KeyStatus) CanTransitionTo(target KeyStatus) bool {
	transitions := map[KeyStatus][]KeyStatus{
		KeyStatusAvailable: {KeyStatusSold, KeyStatusExpired, KeyStatusCancelled},
		KeyStatusSold:      {KeyStatusActivated, KeyStatusAvailable, KeyStatusExpired, KeyStatusCancelled},
		KeyStatusActivated: {KeyStatusSold, KeyStatusAvailable, KeyStatusExpired, KeyStatusCancelled},
		KeyStatusExpired:   {},
		KeyStatusCancelled: {KeyStatusAvailable},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

var ValidKeyStatuses = map[KeyStatus]bool{
	KeyStatusAvailable: true,
	KeyStatusSold:      true,
	KeyStatusActivated: true,
	KeyStatusExpired:   true,
	KeyStatusCancelled: true,
}

// ActivationStatus is the state of a single instance activation.
type ActivationStatus string

const (
	ActivationStatusActive   ActivationStatus = "active"
	ActivationStatusInactive ActivationStatus = "inactive"
)

func (s ActivationStatus) String() string {
	return string(s)
}

var ValidActivationStatuses = map[ActivationStatus]bool{
	ActivationStatusActive:   true,
	ActivationStatusInactive: true,
}

// KeySource records how a key came to exist: generated on demand, or drawn
// from a pre-created pool.
type KeySource string

const (
	SourceAutomatic KeySource = "automatic"
	SourcePreset    KeySource = "preset"
)

func (s KeySource) String() string {
	return string(s)
}

var ValidKeySources = map[KeySource]bool{
	SourceAutomatic: true,
	SourcePreset:    true,
}

// GeneratorStatus is the state of a key-pattern template.
type GeneratorStatus string

const (
	GeneratorStatusActive   GeneratorStatus = "active"
	GeneratorStatusInactive GeneratorStatus = "inactive"
)

var ValidGeneratorStatuses = map[GeneratorStatus]bool{
	GeneratorStatusActive:   true,
	GeneratorStatusInactive: true,
}
