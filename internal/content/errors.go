package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a post or product id does not exist.
	ErrNotFound = errors.New("content not found")
	// ErrInvalidContact is matched by every contact form validation failure.
	ErrInvalidContact = errors.New("invalid contact form")
)

// ValidationError carries the field problems of a rejected contact form.
type ValidationError struct {
	Problems map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Problems))
	for field := range e.Problems {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Problems[field]))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidContact, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidContact
}

// NotFoundError names the missing item and matches ErrNotFound.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
