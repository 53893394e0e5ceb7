package medicalleave

import (
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
)

var (
	ErrRequestNotFound         = fmt.Errorf("medical leave request %w", domain.ErrNotFound)
	ErrInvalidStatusTransition = fmt.Errorf("medical leave: %w", domain.ErrInvalidTransition)
	ErrInvalidDateRange        = fmt.Errorf("%w: end date must not be before start date", domain.ErrInvalidInput)
	ErrReasonRequired          = fmt.Errorf("%w: a reason is required", domain.ErrInvalidInput)
)
