package profilechange

import (
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
)

var (
	ErrRequestNotFound         = fmt.Errorf("profile change request %w", domain.ErrNotFound)
	ErrInvalidStatusTransition = fmt.Errorf("profile change: %w", domain.ErrInvalidTransition)
	ErrNoChanges               = fmt.Errorf("%w: at least one field must be changed", domain.ErrInvalidInput)
	ErrReasonRequired          = fmt.Errorf("%w: a rejection reason is required", domain.ErrInvalidInput)
)

// FieldError reports change-bag keys that are not editable or carry a value
// of the wrong type.
type FieldError struct {
	Fields []string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid or not editable fields: %v", e.Fields)
}

func (e *FieldError) Unwrap() error { return domain.ErrInvalidInput }
