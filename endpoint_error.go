package formbind

import (
	"context"
	"fmt"
	"regexp"

	json "github.com/goccy/go-json"
)

// EndpointError is an opaque failure reported by a remote endpoint.
type EndpointError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

func (e *EndpointError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return e.Type + ": " + e.Message
}

// ValidationErrorData is one field failure reported by the server.
type ValidationErrorData struct {
	Message          string `json:"message"`
	ParameterName    string `json:"parameterName,omitempty"`
	ValidatorMessage string `json:"validatorMessage,omitempty"`
}

// EndpointValidationError is the server validation failure recognized by
// SubmitTo. Save functions return it (possibly wrapped) to have its entries
// mapped onto the bound properties.
type EndpointValidationError struct {
	EndpointError
	ValidationErrorData []ValidationErrorData `json:"validationErrorData"`
}

func (e *EndpointValidationError) Error() string {
	return fmt.Sprintf("%s (%d validation errors)", e.EndpointError.Error(), len(e.ValidationErrorData))
}

// ParseEndpointError decodes a JSON error body. It returns an
// *EndpointValidationError when the body carries validationErrorData and an
// *EndpointError otherwise. Malformed bodies yield a decode error.
func ParseEndpointError(body []byte) error {
	var raw struct {
		Type                string                `json:"type"`
		Message             string                `json:"message"`
		Detail              any                   `json:"detail"`
		ValidationErrorData []ValidationErrorData `json:"validationErrorData"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("formbind: decode endpoint error: %w", err)
	}
	base := EndpointError{Type: raw.Type, Message: raw.Message, Detail: raw.Detail}
	if raw.ValidationErrorData != nil {
		return &EndpointValidationError{EndpointError: base, ValidationErrorData: raw.ValidationErrorData}
	}
	return &base
}

// ServerValidator stands in for the server-side rule that produced a
// server-reported error. It always fails.
type ServerValidator struct {
	message string
}

// NewServerValidator returns a ServerValidator carrying message.
func NewServerValidator(message string) *ServerValidator {
	return &ServerValidator{message: message}
}

func (v *ServerValidator) Name() string    { return "ServerValidator" }
func (v *ServerValidator) Message() string { return v.message }

func (v *ServerValidator) Validate(context.Context, any, *Node) (Result, error) {
	return Fail(), nil
}

// Bean validation failures rendered by the server look like:
// Object of type 'com.example.Person' has invalid property 'name' with value 'x', validation error: 'must not be blank'
var serverMessagePattern = regexp.MustCompile(`Object of type '(.+)' has invalid property '(.+)' with value '(.*)', validation error: '(.+)'`)

// splitServerMessage unpacks the bean validation message form. ok is false
// when msg is not in that form.
func splitServerMessage(msg string) (property, value, message string, ok bool) {
	m := serverMessagePattern.FindStringSubmatch(msg)
	if m == nil {
		return "", "", "", false
	}
	return m[2], m[3], m[4], true
}
