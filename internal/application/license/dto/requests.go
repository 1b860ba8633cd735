package dto

import "time"

// CreateKeyRequest creates one key with a caller-supplied code. A fixed
// expiry date takes precedence over valid_for.
type CreateKeyRequest struct {
	Code            string     `json:"code" validate:"required,min=1,max=255"`
	ProductID       uint       `json:"product_id" validate:"required,gt=0"`
	ValidFor        int        `json:"valid_for" validate:"gte=0"`
	ActivationLimit int        `json:"activation_limit" validate:"gte=0"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Source          string     `json:"source" validate:"omitempty,oneof=automatic preset"`
}

// UpdateKeyRequest patches mutable key fields. Nil pointers leave the
// field untouched.
type UpdateKeyRequest struct {
	Code            *string    `json:"code,omitempty" validate:"omitempty,min=1,max=255"`
	ValidFor        *int       `json:"valid_for,omitempty" validate:"omitempty,gte=0"`
	ActivationLimit *int       `json:"activation_limit,omitempty" validate:"omitempty,gte=0"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Status          *string    `json:"status,omitempty" validate:"omitempty,oneof=available sold activated expired cancelled"`
}

// GenerateKeysRequest generates a batch of keys from a pattern.
type GenerateKeysRequest struct {
	ProductID       uint   `json:"product_id" validate:"required,gt=0"`
	GeneratorID     uint   `json:"generator_id" validate:"omitempty,gt=0"`
	Pattern         string `json:"pattern" validate:"omitempty,max=255"`
	Charset         string `json:"charset" validate:"omitempty,max=255"`
	Quantity        int    `json:"quantity" validate:"required,gt=0,lte=10000"`
	Sequential      bool   `json:"sequential"`
	ValidFor        int    `json:"valid_for" validate:"gte=0"`
	ActivationLimit int    `json:"activation_limit" validate:"gte=0"`
}

// ActivateKeyRequest activates an instance against a key code.
type ActivateKeyRequest struct {
	Code      string `json:"code" validate:"required"`
	Instance  string `json:"instance" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	ProductID uint   `json:"product_id" validate:"omitempty,gt=0"`
	IPAddress string `json:"ip_address" validate:"omitempty,max=45"`
	UserAgent string `json:"user_agent" validate:"omitempty,max=500"`
}

// DeactivateKeyRequest releases an instance from a key.
type DeactivateKeyRequest struct {
	Code     string `json:"code" validate:"required"`
	Instance string `json:"instance" validate:"required"`
}

// ValidateKeyRequest checks a key without touching its activations.
type ValidateKeyRequest struct {
	Code      string `json:"code" validate:"required"`
	Instance  string `json:"instance"`
	Email     string `json:"email" validate:"omitempty,email"`
	ProductID uint   `json:"product_id" validate:"omitempty,gt=0"`
}

// AssignOrderRequest binds a key to a paid order item. When OrderItemID
// is zero the first line matching the key's product is used.
type AssignOrderRequest struct {
	KeyID       uint `json:"key_id" validate:"required,gt=0"`
	OrderID     uint `json:"order_id" validate:"required,gt=0"`
	OrderItemID uint `json:"order_item_id" validate:"omitempty,gt=0"`
}

// ReleaseOrderRequest reverses an order binding.
type ReleaseOrderRequest struct {
	KeyID uint `json:"key_id" validate:"required,gt=0"`
}

// ListKeysRequest narrows and pages a key listing.
type ListKeysRequest struct {
	ProductID  uint   `json:"product_id" validate:"omitempty,gt=0"`
	OrderID    uint   `json:"order_id" validate:"omitempty,gt=0"`
	CustomerID uint   `json:"customer_id" validate:"omitempty,gt=0"`
	Status     string `json:"status" validate:"omitempty,oneof=available sold activated expired cancelled"`
	Search     string `json:"search" validate:"omitempty,max=255"`
	OrderBy    string `json:"order_by" validate:"omitempty,max=64"`
	Order      string `json:"order" validate:"omitempty,oneof=ASC DESC asc desc"`
	Page       int    `json:"page" validate:"omitempty,gte=1"`
	Limit      int    `json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// CreateGeneratorRequest creates a key-pattern template.
type CreateGeneratorRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=255"`
	Pattern         string `json:"pattern" validate:"required,min=1,max=255"`
	Charset         string `json:"charset" validate:"omitempty,max=255"`
	ValidFor        int    `json:"valid_for" validate:"gte=0"`
	ActivationLimit int    `json:"activation_limit" validate:"gte=0"`
}

// UpdateGeneratorRequest patches a generator template. Nil pointers leave
// the field untouched.
type UpdateGeneratorRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Pattern         *string `json:"pattern,omitempty" validate:"omitempty,min=1,max=255"`
	Charset         *string `json:"charset,omitempty" validate:"omitempty,min=1,max=255"`
	ValidFor        *int    `json:"valid_for,omitempty" validate:"omitempty,gte=0"`
	ActivationLimit *int    `json:"activation_limit,omitempty" validate:"omitempty,gte=0"`
}

// ListGeneratorsRequest narrows and pages a generator listing.
type ListGeneratorsRequest struct {
	Search  string `json:"search" validate:"omitempty,max=255"`
	OrderBy string `json:"order_by" validate:"omitempty,max=64"`
	Order   string `json:"order" validate:"omitempty,oneof=ASC DESC asc desc"`
	Page    int    `json:"page" validate:"omitempty,gte=1"`
	Limit   int    `json:"limit" validate:"omitempty,gte=1,lte=100"`
}
