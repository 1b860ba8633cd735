package license

import (
	apperrors "keymint/internal/shared/errors"
)

// Sentinel error values for every distinct failure of the key and
// activation lifecycle. Callers match with errors.Is; details attached via
// WithDetails do not break matching.
var (
	// validation
	ErrMissingCode            = apperrors.NewValidationError("license key code is required")
	ErrMissingProduct         = apperrors.NewValidationError("license key product is required")
	ErrMissingInstance        = apperrors.NewValidationError("activation instance is required")
	ErrInvalidProduct         = apperrors.NewValidationError("license key does not belong to the given product")
	ErrInvalidEmail           = apperrors.NewValidationError("license key does not belong to the given customer email")
	ErrMissingGeneratorFields = apperrors.NewValidationError("generator name, pattern and charset are required")
	ErrEmptyCharset           = apperrors.NewValidationError("generator charset must not be empty")
	ErrNotKeyedProduct        = apperrors.NewValidationError("product does not sell license keys")

	// conflict / state
	ErrDuplicateCode           = apperrors.NewConflictError("a license key with this code already exists")
	ErrKeyExpired              = apperrors.NewConflictError("license key has expired")
	ErrNoActivationsLeft       = apperrors.NewConflictError("no activations left for this license key")
	ErrDuplicateActivation     = apperrors.NewConflictError("an activation for this instance already exists")
	ErrKeyNotSellable          = apperrors.NewConflictError("license key is not available for sale")
	ErrInvalidStatusTransition = apperrors.NewConflictError("license key status transition is not allowed")

	// not found
	ErrKeyNotFound        = apperrors.NewNotFoundError("license key not found")
	ErrActivationNotFound = apperrors.NewNotFoundError("no activation found for this instance")
	ErrOrderNotFound      = apperrors.NewNotFoundError("order not found")
	ErrOrderItemNotFound  = apperrors.NewNotFoundError("no matching order item found")
	ErrProductNotFound    = apperrors.NewNotFoundError("product not found")
	ErrGeneratorNotFound  = apperrors.NewNotFoundError("generator not found")
)
