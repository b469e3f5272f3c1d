package core

import (
	"strings"
)

// FieldError is a single complaint about one input field.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every field-level complaint found while validating
// a record. errors.Is matches any of the wrapped sentinel errors.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, fe := range v {
		errs[i] = fe
	}
	return errs
}

// Fields returns the names of the offending fields in order.
func (v ValidationErrors) Fields() []string {
	out := make([]string, len(v))
	for i, fe := range v {
		out[i] = fe.Field
	}
	return out
}

func (v *ValidationErrors) add(field string, err error) {
	*v = append(*v, FieldError{Field: field, Err: err})
}

func (v *ValidationErrors) checkTitle(title string) {
	switch {
	case strings.TrimSpace(title) == "":
		v.add("title", ErrEmptyTitle)
	case len(title) > maxTitleLength:
		v.add("title", ErrTitleTooLong)
	}
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
