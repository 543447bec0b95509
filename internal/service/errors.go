package service

import (
	"errors"
	"fmt"
)

// ValidationError indicates malformed input: non-positive hours or amounts,
// a mixed-currency selection, an unknown frequency. Nothing is written when
// one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError indicates an item whose eligibility changed between query
// and commit, most commonly an attempt to bill an already-billed item. The
// whole commit is aborted.
type ConflictError struct {
	EntityID string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.EntityID, e.Reason)
}

// PreconditionError indicates an archive/unarchive ordering violation, such
// as unarchiving a project while its client is still archived.
type PreconditionError struct {
	EntityID string
	Reason   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for %s: %s", e.EntityID, e.Reason)
}

// NotFoundError indicates an operation against a missing entity identity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Entity, e.ID)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
