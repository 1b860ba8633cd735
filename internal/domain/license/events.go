package license

import (
	"strconv"
	"time"

	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/domain/shared/events"
)

// Enumerated lifecycle event types. These replace string-keyed hook
// sprinkling: the extension surface is this fixed list.
const (
	EventKeyCreated        = "license.key.created"
	EventKeyUpdated        = "license.key.updated"
	EventKeyDeleted        = "license.key.deleted"
	EventKeyStatusChanging = "license.key.status_changing"
	EventKeyStatusChanged  = "license.key.status_changed"
	EventKeyOrderAssigned  = "license.key.order_assigned"
	EventKeyOrderReleased  = "license.key.order_released"
	EventActivationCreated = "license.activation.created"
	EventActivationRevoked = "license.activation.deactivated"
)

// KeyEvent is published for create/update/delete of a key.
type KeyEvent struct {
	events.BaseEvent
	KeyID     uint   `json:"key_id"`
	ProductID uint   `json:"product_id"`
	Code      string `json:"-"`
}

// KeyStatusEvent is published before and after a status transition write.
type KeyStatusEvent struct {
	events.BaseEvent
	KeyID uint         `json:"key_id"`
	From  vo.KeyStatus `json:"from"`
	To    vo.KeyStatus `json:"to"`
}

// KeyOrderEvent is published when a key is bound to or released from an
// order.
type KeyOrderEvent struct {
	events.BaseEvent
	KeyID   uint `json:"key_id"`
	OrderID uint `json:"order_id"`
}

// ActivationEvent is published when an instance is activated or
// deactivated.
type ActivationEvent struct {
	events.BaseEvent
	KeyID        uint   `json:"key_id"`
	ActivationID uint   `json:"activation_id"`
	Instance     string `json:"instance"`
}

func newBase(eventType string, aggregateID uint, now time.Time) events.BaseEvent {
	return events.BaseEvent{
		AggregateID: strconv.FormatUint(uint64(aggregateID), 10),
		EventType:   eventType,
		OccurredAt:  now,
		Version:     1,
	}
}

func NewKeyEvent(eventType string, key *Key, now time.Time) KeyEvent {
	return KeyEvent{
		BaseEvent: newBase(eventType, key.ID(), now),
		KeyID:     key.ID(),
		ProductID: key.ProductID(),
		Code:      key.Code(),
	}
}

func NewKeyStatusEvent(eventType string, keyID uint, from, to vo.KeyStatus, now time.Time) KeyStatusEvent {
	return KeyStatusEvent{
		BaseEvent: newBase(eventType, keyID, now),
		KeyID:     keyID,
		From:      from,
		To:        to,
	}
}

func NewKeyOrderEvent(eventType string, keyID, orderID uint, now time.Time) KeyOrderEvent {
	return KeyOrderEvent{
		BaseEvent: newBase(eventType, keyID, now),
		KeyID:     keyID,
		OrderID:   orderID,
	}
}

func NewActivationEvent(eventType string, activation *Activation, now time.Time) ActivationEvent {
	return ActivationEvent{
		BaseEvent:    newBase(eventType, activation.KeyID(), now),
		KeyID:        activation.KeyID(),
		ActivationID: activation.ID(),
		Instance:     activation.Instance(),
	}
}
