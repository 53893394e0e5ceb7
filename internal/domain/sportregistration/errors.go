package sportregistration

import (
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
)

var (
	ErrRegistrationNotFound    = fmt.Errorf("sport registration %w", domain.ErrNotFound)
	ErrInvalidStatusTransition = fmt.Errorf("sport registration: %w", domain.ErrInvalidTransition)
	ErrAlreadyRegistered       = errors.New("an active registration for this sport already exists")
	ErrSportRequired           = fmt.Errorf("%w: sport is required", domain.ErrInvalidInput)
)
