package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
)

// Kind is the coarse category a caller branches on. Transport layers map it
// onto their own status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindOwnership
	KindInvalidTransition
	KindNotFound
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindOwnership:
		return "ownership"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// AuthenticationError means no actor could be resolved for the request.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authentication required: " + e.Reason
}

// AuthorizationError means the actor's role does not carry the permission.
type AuthorizationError struct {
	ActorID    uuid.UUID
	Role       domain.Role
	Permission permission.Permission
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %q does not have permission %q", e.Role, e.Permission)
}

// OwnershipError means the actor holds the permission but is not entitled to
// act on this particular resource.
type OwnershipError struct {
	Resource   string
	ResourceID string
	Reason     string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("not allowed to act on %s %s: %s", e.Resource, e.ResourceID, e.Reason)
}

type TransitionError struct {
	Resource string
	From     string
	Action   string
	Err      error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %q", e.Action, e.Resource, e.From)
}

func (e *TransitionError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
}

// KindOf classifies err. Serialization failures surface as conflicts so the
// client can decide whether to resubmit.
func KindOf(err error) Kind {
	var (
		authn      *AuthenticationError
		authz      *AuthorizationError
		owner      *OwnershipError
		transition *TransitionError
		notFound   *NotFoundError
		valid      *ValidationError
		conflict   *ConflictError
	)

	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &authn):
		return KindUnauthenticated
	case errors.As(err, &authz):
		return KindForbidden
	case errors.As(err, &owner):
		return KindOwnership
	case errors.As(err, &transition), errors.Is(err, domain.ErrInvalidTransition):
		return KindInvalidTransition
	case errors.As(err, &notFound), errors.Is(err, domain.ErrNotFound):
		return KindNotFound
	case errors.As(err, &valid), errors.Is(err, domain.ErrInvalidInput):
		return KindValidation
	case errors.As(err, &conflict), database.IsSerializationFailure(err):
		return KindConflict
	}
	return KindInternal
}

// loadErr turns a repository lookup failure into a NotFoundError when the row
// is missing and wraps it otherwise.
func loadErr(resource string, id uuid.UUID, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id.String(), Err: err}
	}
	return fmt.Errorf("loading %s: %w", resource, err)
}

// stateErr wraps entity state-machine failures with the status they were
// attempted from. Other errors pass through.
func stateErr(resource, from, action string, err error) error {
	if errors.Is(err, domain.ErrInvalidTransition) {
		return &TransitionError{Resource: resource, From: from, Action: action, Err: err}
	}
	return err
}

func validationErr(fields ...string) error {
	return &ValidationError{Fields: fields}
}
