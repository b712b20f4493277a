package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("payment not in required state")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("operation not permitted for role")
	ErrCipherKey  = errors.New("invalid cipher key")
	ErrEncryption = errors.New("encryption failure")
	ErrStorage    = errors.New("storage failure")
)

var (
	ErrInvalidAmount   = fmt.Errorf("amount must be greater than zero: %w", ErrValidation)
	ErrInvalidCurrency = fmt.Errorf("invalid currency: %w", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("invalid payment status: %w", ErrValidation)
	ErrMissingField    = fmt.Errorf("required field missing: %w", ErrValidation)
)
