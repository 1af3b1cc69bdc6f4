// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrDuplicateSystem    = errors.New("campaign already has a system of this kind")
	ErrShortCodeTaken     = errors.New("short code already in use")
	ErrShortCodeExhausted = errors.New("could not allocate a unique short code")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCSVHeader   = errors.New("CSV headers are invalid")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
)

// NotFoundError names the missing entity. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Helper constructor
func NewNotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// NewCampaignNotFound keeps campaign lookups short at call sites.
func NewCampaignNotFound(id any) error {
	return &NotFoundError{Entity: "campaign", Key: id}
}

// ValidationError describes one rejected input. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
