package middleware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/middleware"
	"github.com/reoring/formbind/model"
)

func orderShape() *model.Shape {
	return model.Object(
		model.Prop("customer", model.Object(
			model.Prop("fullName", model.String().Constrain("NotBlank")),
		)),
		model.Prop("notes", model.String().Constrain("Size", "min", 5, "max", 100)),
	)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	opts := middleware.DefaultOptions()
	opts.Parameter = "order"
	h := middleware.Validate(orderShape(), opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := middleware.ValueFromContext(r.Context())
		if !ok {
			t.Errorf("validated value missing from context")
		}
		notes, _ := model.Resolve(v, "notes")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"saved":"` + notes.(string) + `"}`))
	}))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestRoundTrip_ServerErrorsMapToClient(t *testing.T) {
	srv := newServer(t)
	// the client shape carries no constraints; the server is authoritative
	client := formbind.New(model.Object(
		model.Prop("customer", model.Object(model.Prop("fullName", model.String()))),
		model.Prop("notes", model.String()),
	), formbind.Options{})
	client.At("notes").SetValue("hi")

	_, err := client.SubmitTo(context.Background(), middleware.PostJSON(srv.Client(), srv.URL))
	ve, ok := formbind.AsValidationError(err)
	if !ok {
		t.Fatalf("expected a *ValidationError, got %v", err)
	}
	if diff := cmp.Diff([]string{"customer.fullName", "notes"}, ve.Properties()); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
	if got := client.At("notes").ErrorMessage(); got != "size must be between 5 and 100" {
		t.Fatalf("unexpected notes message %q", got)
	}
	if ve.Errors[0].ValidatorMessage != "must not be blank" {
		t.Fatalf("validator message not carried: %+v", ve.Errors[0])
	}

	client.At("customer.fullName").SetValue("Ann Lee")
	client.At("notes").SetValue("leave at door")
	res, err := client.SubmitTo(context.Background(), middleware.PostJSON(srv.Client(), srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(any(map[string]any{"saved": "leave at door"}), res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if len(client.Errors()) != 0 {
		t.Fatalf("server errors should be gone after the writes, got %v", client.Errors())
	}
}

func TestValidate_MalformedBody(t *testing.T) {
	srv := newServer(t)
	resp, err := srv.Client().Post(srv.URL, "application/json", strings.NewReader(`{"notes":"abcde","notes":"x"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate keys, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	perr := formbind.ParseEndpointError(body)
	var ee *formbind.EndpointError
	if !errors.As(perr, &ee) || !strings.Contains(ee.Message, "duplicate key") {
		t.Fatalf("expected an opaque endpoint error, got %T %v", perr, perr)
	}
}

func TestErrorPayload(t *testing.T) {
	ve := &formbind.ValidationError{Errors: []formbind.ValueError{
		{Property: "", Message: "record invalid"},
		{Property: "products.0.price", Message: "must be greater than 0"},
	}}
	opts := middleware.Options{Parameter: "order", Type: "T"}
	p := middleware.ErrorPayload(ve, opts)
	want := []formbind.ValidationErrorData{
		{ParameterName: "order", Message: "record invalid"},
		{ParameterName: "order.products.0.price", Message: "must be greater than 0"},
	}
	if diff := cmp.Diff(want, p.ValidationErrorData); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if p.Type != "T" {
		t.Fatalf("type not set")
	}
}

func TestPostJSON_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	_, err := middleware.PostJSON(srv.Client(), srv.URL)(context.Background(), map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected an unexpected status error, got %v", err)
	}
}
