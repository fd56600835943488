package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeNotFound is returned when a name does not resolve in a namespace chain.
	ErrTypeNotFound = errors.New("schema: type not found")

	// ErrTypeRedeclared is returned when a namespace already declares a type with the same name.
	ErrTypeRedeclared = errors.New("schema: type redeclared")
)

// TypeNotFoundError reports a failed resolution walking from Namespace up to the root.
type TypeNotFoundError struct {
	Name      string
	Namespace string
}

// Error returns the error string.
func (e *TypeNotFoundError) Error() string {
	if e.Namespace == "" {
		return fmt.Sprintf("schema: type %q not found", e.Name)
	}
	return fmt.Sprintf("schema: type %q not found from namespace %q", e.Name, e.Namespace)
}

// Is reports whether the target error matches TypeNotFoundError.
func (e *TypeNotFoundError) Is(err error) bool {
	return err == ErrTypeNotFound
}

// IsTypeNotFound returns true if the error is a TypeNotFoundError.
func IsTypeNotFound(err error) bool {
	var e *TypeNotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrTypeNotFound)
}

// RedeclaredError reports a duplicate type or member name.
type RedeclaredError struct {
	Name  string
	Owner string
}

// Error returns the error string.
func (e *RedeclaredError) Error() string {
	return fmt.Sprintf("schema: %q redeclared in %q", e.Name, e.Owner)
}

// Is reports whether the target error matches RedeclaredError.
func (e *RedeclaredError) Is(err error) bool {
	return err == ErrTypeRedeclared
}
