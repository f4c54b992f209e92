package formbind

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

var (
	// ErrNoSubmitHandler is returned by Submit when Options.OnSubmit is unset.
	ErrNoSubmitHandler = errors.New("formbind: no submit handler configured")
	// ErrUnknownPath is returned when a path does not fit the bound shape.
	ErrUnknownPath = errors.New("formbind: unknown path")
	// ErrDuplicateKey is returned by ReadJSON when Options.RejectDuplicateKeys
	// is set and the document repeats an object key.
	ErrDuplicateKey = errors.New("formbind: duplicate key")
)

// ValueError is one recorded validation failure.
type ValueError struct {
	// Property is the canonical path of the offending node ("" for the
	// root). Server errors whose parameter name could not be mapped keep the
	// raw name.
	Property string
	Message  string
	// Value is the value the validator saw.
	Value     any
	Validator Validator
	// ValidatorMessage is the untranslated message reported by the server.
	ValidatorMessage string
	// Cause is set when the validator itself failed (returned an error or
	// panicked).
	Cause error
}

func (e ValueError) Error() string {
	p := e.Property
	if p == "" {
		p = "<root>"
	}
	return p + ": " + e.Message
}

func (e ValueError) Unwrap() error { return e.Cause }

// MarshalJSON renders the error for clients; the validator is reduced to its
// name.
func (e ValueError) MarshalJSON() ([]byte, error) {
	out := struct {
		Property         string `json:"property"`
		Message          string `json:"message"`
		Value            any    `json:"value,omitempty"`
		Validator        string `json:"validator,omitempty"`
		ValidatorMessage string `json:"validatorMessage,omitempty"`
	}{
		Property:         e.Property,
		Message:          e.Message,
		Value:            e.Value,
		ValidatorMessage: e.ValidatorMessage,
	}
	if e.Validator != nil {
		out.Validator = validatorName(e.Validator)
	}
	return json.Marshal(out)
}

// ValidationError is returned by Submit and SubmitTo when the bound value is
// invalid, either locally or according to the server.
type ValidationError struct {
	Errors []ValueError
}

// Error summarizes the first few errors.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	const maxShown = 3
	b := &strings.Builder{}
	b.WriteString("validation failed: ")
	lim := min(len(e.Errors), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Errors[i].Error())
	}
	if n := len(e.Errors); n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Properties lists the property of every error in order.
func (e *ValidationError) Properties() []string {
	out := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		out[i] = ve.Property
	}
	return out
}

// AsValidationError extracts a *ValidationError using errors.As.
func AsValidationError(err error) (*ValidationError, bool) {
	if err == nil {
		return nil, false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
