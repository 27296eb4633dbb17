package mapconfig

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrNotFound is returned when a configuration name does not resolve.
	ErrNotFound = errors.New("map configuration not found")

	// ErrInvalidConfiguration covers unsupported or malformed configurations.
	ErrInvalidConfiguration = errors.New("invalid map configuration")
)

// InvalidError carries the offending field of a rejected configuration.
type InvalidError struct {
	Name   string
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid map configuration: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid map configuration %q: %s %s", e.Name, e.Field, e.Reason)
}

func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// Invalid builds an InvalidError for callers outside this package that detect
// configuration problems (for example an unsupported search type).
func Invalid(name, field, reason string) error {
	return invalid(name, field, reason)
}

func invalid(name, field, reason string) error {
	return &InvalidError{Name: name, Field: field, Reason: reason}
}

func indexed(list string, i int, field string) string {
	return list + "[" + strconv.Itoa(i) + "]." + field
}
