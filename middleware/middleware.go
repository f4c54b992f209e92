package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/model"
	"github.com/reoring/formbind/validators"
)

// ctxKeyValue is the context key for a validated request value.
type ctxKeyValue struct{}

// ContextWithValue attaches a validated value to the context.
func ContextWithValue(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKeyValue{}, v)
}

// ValueFromContext retrieves the value attached by ContextWithValue.
func ValueFromContext(ctx context.Context) (any, bool) {
	v := ctx.Value(ctxKeyValue{})
	return v, v != nil
}

// Options configure the request binding of Validate.
type Options struct {
	// Binder is used for the per-request binder.
	Binder formbind.Options
	// Parameter prefixes reported parameter names, the way endpoint
	// arguments are named ("order" yields "order.notes").
	Parameter string
	// Type is reported as the error type.
	Type string
	// MaxBodyBytes limits the request body (0 = unlimited).
	MaxBodyBytes int64
}

// DefaultOptions returns a recommended default for HTTP JSON boundaries:
// duplicate keys are errors and declared constraints are enforced with the
// built-in validators.
func DefaultOptions() Options {
	return Options{
		Binder: formbind.Options{
			Constraints:         validators.Factory(),
			RejectDuplicateKeys: true,
		},
		Type:         "formbind.ValidationException",
		MaxBodyBytes: 1 << 20,
	}
}

// ErrorPayload shapes a local validation failure as the body of an endpoint
// validation error, which clients turn back into property errors.
func ErrorPayload(ve *formbind.ValidationError, opts Options) *formbind.EndpointValidationError {
	out := &formbind.EndpointValidationError{
		EndpointError: formbind.EndpointError{
			Type:    opts.Type,
			Message: fmt.Sprintf("Validation failed for %d properties", len(ve.Errors)),
		},
		ValidationErrorData: make([]formbind.ValidationErrorData, 0, len(ve.Errors)),
	}
	for _, e := range ve.Errors {
		d := formbind.ValidationErrorData{
			ParameterName: model.Join(opts.Parameter, e.Property),
			Message:       e.Message,
		}
		if e.Validator != nil {
			d.ValidatorMessage = e.Validator.Message()
		}
		out.ValidationErrorData = append(out.ValidationErrorData, d)
	}
	return out
}

// Bind reads the JSON body of r into a fresh binder over shape and
// validates it. It returns the bound value, or the payload to answer with
// when the value is invalid. err is set for unreadable or malformed bodies.
func Bind(r *http.Request, shape *model.Shape, opts Options) (any, *formbind.EndpointValidationError, error) {
	body := io.Reader(r.Body)
	if opts.MaxBodyBytes > 0 {
		body = io.LimitReader(r.Body, opts.MaxBodyBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading body: %w", err)
	}
	if opts.MaxBodyBytes > 0 && int64(len(data)) > opts.MaxBodyBytes {
		return nil, nil, fmt.Errorf("body exceeds %d bytes", opts.MaxBodyBytes)
	}
	b := formbind.New(shape, opts.Binder)
	if err := b.ReadJSON(data); err != nil {
		return nil, nil, err
	}
	if errs := b.Validate(r.Context()); len(errs) > 0 {
		return nil, ErrorPayload(&formbind.ValidationError{Errors: errs}, opts), nil
	}
	return b.Value(), nil, nil
}

// Validate returns net/http middleware that binds and validates the JSON
// request body. Invalid values are answered with 400 and an endpoint
// validation error body; valid ones reach next via ValueFromContext.
func Validate(shape *model.Shape, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, payload, err := Bind(r, shape, opts)
			switch {
			case err != nil:
				writeJSON(w, http.StatusBadRequest, &formbind.EndpointError{Type: opts.Type, Message: err.Error()})
			case payload != nil:
				writeJSON(w, http.StatusBadRequest, payload)
			default:
				next.ServeHTTP(w, r.WithContext(ContextWithValue(r.Context(), v)))
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// PostJSON returns a save function that posts the value to url. Error
// responses are decoded with formbind.ParseEndpointError, so validation
// failures reported by Validate map back onto the submitting binder.
func PostJSON(client *http.Client, url string) formbind.SaveFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, value any) (any, error) {
		body, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encoding value: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if len(bytes.TrimSpace(data)) == 0 {
				return nil, nil
			}
			var out any
			if err := json.Unmarshal(data, &out); err != nil {
				return nil, fmt.Errorf("decoding response: %w", err)
			}
			return out, nil
		}
		perr := formbind.ParseEndpointError(data)
		var ee *formbind.EndpointError
		var ve *formbind.EndpointValidationError
		if errors.As(perr, &ve) || errors.As(perr, &ee) {
			return nil, perr
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
