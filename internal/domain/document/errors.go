package document

import (
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
)

var (
	ErrDocumentNotFound        = fmt.Errorf("document %w", domain.ErrNotFound)
	ErrInvalidStatusTransition = fmt.Errorf("document: %w", domain.ErrInvalidTransition)
	ErrReasonRequired          = fmt.Errorf("%w: a rejection reason is required", domain.ErrInvalidInput)
)
