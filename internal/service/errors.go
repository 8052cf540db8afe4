package service

import (
	"errors"
	"fmt"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyProcessed  = errors.New("transaction already processed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInternal          = errors.New("internal error")
)

// FieldError reports a single rejected request field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

func invalidField(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TransitionError is returned when an action is not allowed from the current
// status. Approve and reject on a non-pending record also match
// ErrAlreadyProcessed.
type TransitionError struct {
	Action string
	From   model.TransactionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a transaction in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() []error {
	if e.Action == actionApprove || e.Action == actionReject {
		return []error{ErrAlreadyProcessed, ErrInvalidTransition}
	}
	return []error{ErrInvalidTransition}
}

type InsufficientStockError struct {
	ProductID uuid.UUID
	ItemCode  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): available %d, requested %d",
		e.ItemCode, e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrInvalidInput, ErrNotFound, ErrAlreadyProcessed, ErrInvalidTransition,
		ErrInsufficientStock, ErrConflict, ErrForbidden, ErrUnauthorized, ErrInternal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// fromRepo converts a repository error into the service taxonomy.
// resource and id describe what was being looked up.
func fromRepo(err error, resource string, id uuid.UUID) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return &NotFoundError{Resource: resource, ID: id.String()}
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, resource)
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

func internalErr(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	if repository.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
