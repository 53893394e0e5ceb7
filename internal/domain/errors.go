package domain

import (
	"errors"
	"fmt"
)

// Base sentinels. Entity packages wrap these so callers can match either the
// specific error or the category.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidInput      = errors.New("invalid input")
)

var ErrInvalidDecision = fmt.Errorf("%w: decision must be approve or reject", ErrInvalidInput)

var ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}
