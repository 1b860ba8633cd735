package dto

import (
	"time"

	"keymint/internal/domain/license"
)

// KeyDTO is the outward representation of a license key.
type KeyDTO struct {
	ID              uint       `json:"id"`
	UUID            string     `json:"uuid"`
	Code            string     `json:"code"`
	TruncatedKey    string     `json:"truncated_key"`
	ProductID       uint       `json:"product_id"`
	OrderID         uint       `json:"order_id,omitempty"`
	OrderItemID     uint       `json:"order_item_id,omitempty"`
	SubscriptionID  uint       `json:"subscription_id,omitempty"`
	CustomerID      uint       `json:"customer_id,omitempty"`
	Price           float64    `json:"price,omitempty"`
	Source          string     `json:"source"`
	Status          string     `json:"status"`
	ValidFor        int        `json:"valid_for"`
	ActivationLimit int        `json:"activation_limit"`
	ActivationCount int        `json:"activation_count"`
	OrderedAt       *time.Time `json:"ordered_at,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Activations is populated only by the single-key lookup.
	Activations []*ActivationDTO `json:"activations,omitempty"`
}

// ToKeyDTO converts a key entity to its outward representation. ExpiresAt
// carries the effective expiry, derived from valid_for when no explicit
// date is stored.
func ToKeyDTO(key *license.Key) *KeyDTO {
	if key == nil {
		return nil
	}

	return &KeyDTO{
		ID:              key.ID(),
		UUID:            key.UUID(),
		Code:            key.Code(),
		TruncatedKey:    key.TruncatedKey(),
		ProductID:       key.ProductID(),
		OrderID:         key.OrderID(),
		OrderItemID:     key.OrderItemID(),
		SubscriptionID:  key.SubscriptionID(),
		CustomerID:      key.CustomerID(),
		Price:           key.Price(),
		Source:          string(key.Source()),
		Status:          string(key.Status()),
		ValidFor:        key.ValidFor(),
		ActivationLimit: key.ActivationLimit(),
		ActivationCount: key.ActivationCount(),
		OrderedAt:       key.OrderedAt(),
		ExpiresAt:       key.GetExpires(),
		ActivatedAt:     key.ActivatedAt(),
		CreatedAt:       key.CreatedAt(),
		UpdatedAt:       key.UpdatedAt(),
	}
}

// ToKeyDTOList converts a slice of key entities.
func ToKeyDTOList(keys []*license.Key) []*KeyDTO {
	dtos := make([]*KeyDTO, 0, len(keys))
	for _, k := range keys {
		if k != nil {
			dtos = append(dtos, ToKeyDTO(k))
		}
	}
	return dtos
}

// ActivationDTO is the outward representation of an activation.
type ActivationDTO struct {
	ID            uint       `json:"id"`
	KeyID         uint       `json:"key_id"`
	Instance      string     `json:"instance"`
	IPAddress     string     `json:"ip_address,omitempty"`
	UserAgent     string     `json:"user_agent,omitempty"`
	Status        string     `json:"status"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

func ToActivationDTO(a *license.Activation) *ActivationDTO {
	if a == nil {
		return nil
	}

	return &ActivationDTO{
		ID:            a.ID(),
		KeyID:         a.KeyID(),
		Instance:      a.Instance(),
		IPAddress:     a.IPAddress(),
		UserAgent:     a.UserAgent(),
		Status:        string(a.Status()),
		ActivatedAt:   a.ActivatedAt(),
		DeactivatedAt: a.DeactivatedAt(),
	}
}

func ToActivationDTOList(activations []*license.Activation) []*ActivationDTO {
	dtos := make([]*ActivationDTO, 0, len(activations))
	for _, a := range activations {
		if a != nil {
			dtos = append(dtos, ToActivationDTO(a))
		}
	}
	return dtos
}

// GeneratorDTO is the outward representation of a generator template.
type GeneratorDTO struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Pattern         string    `json:"pattern"`
	Charset         string    `json:"charset"`
	ValidFor        int       `json:"valid_for"`
	ActivationLimit int       `json:"activation_limit"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func ToGeneratorDTO(g *license.Generator) *GeneratorDTO {
	if g == nil {
		return nil
	}

	return &GeneratorDTO{
		ID:              g.ID(),
		Name:            g.Name(),
		Pattern:         g.Pattern(),
		Charset:         g.Charset(),
		ValidFor:        g.ValidFor(),
		ActivationLimit: g.ActivationLimit(),
		Status:          string(g.Status()),
		CreatedAt:       g.CreatedAt(),
		UpdatedAt:       g.UpdatedAt(),
	}
}
