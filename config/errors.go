package config

import "fmt"

// MissingFieldError reports a required field that is absent or empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("config: required field %q is missing", e.Field)
}

// MalformedValueError reports a field whose value fails its format
// constraint.
type MalformedValueError struct {
	Field  string
	Value  string
	Reason string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("config: field %q has malformed value %q: %s", e.Field, e.Value, e.Reason)
}

// EmptyListError reports a list field that must carry at least one element.
type EmptyListError struct {
	Field string
}

func (e *EmptyListError) Error() string {
	return fmt.Sprintf("config: list field %q must not be empty", e.Field)
}
