package validators_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/model"
	"github.com/reoring/formbind/validators"
)

func passes(t *testing.T, v formbind.Validator, value any) bool {
	t.Helper()
	res, err := v.Validate(context.Background(), value, nil)
	if err != nil {
		t.Fatalf("%T: unexpected error: %v", v, err)
	}
	return res.Passed()
}

type check struct {
	name  string
	v     formbind.Validator
	value any
	want  bool
}

func runChecks(t *testing.T, cases []check) {
	t.Helper()
	for _, c := range cases {
		if got := passes(t, c.v, c.value); got != c.want {
			t.Errorf("%s(%#v): got pass=%v, want %v", c.name, c.value, got, c.want)
		}
	}
}

func TestPresence(t *testing.T) {
	runChecks(t, []check{
		{"Required", validators.Required(), nil, false},
		{"Required", validators.Required(), "", false},
		{"Required", validators.Required(), []any{}, false},
		{"Required", validators.Required(), "x", true},
		{"Required", validators.Required(), float64(0), true},
		{"NotNull", validators.NotNull(), nil, false},
		{"NotNull", validators.NotNull(), "", true},
		{"NotEmpty", validators.NotEmpty(), "", false},
		{"NotEmpty", validators.NotEmpty(), map[string]any{}, false},
		{"NotEmpty", validators.NotEmpty(), []any{1}, true},
		{"NotBlank", validators.NotBlank(), "  \t", false},
		{"NotBlank", validators.NotBlank(), " a ", true},
		{"NotBlank", validators.NotBlank(), nil, false},
		{"Null", validators.Null(), nil, true},
		{"Null", validators.Null(), "", false},
		{"AssertTrue", validators.AssertTrue(), true, true},
		{"AssertTrue", validators.AssertTrue(), false, false},
		{"AssertFalse", validators.AssertFalse(), false, true},
		{"AssertFalse", validators.AssertFalse(), "false", false},
	})
}

func TestImpliesRequired(t *testing.T) {
	type implier interface{ ImpliesRequired() bool }
	for _, v := range []formbind.Validator{validators.Required(), validators.NotNull(), validators.NotEmpty(), validators.NotBlank()} {
		if !v.(implier).ImpliesRequired() {
			t.Fatalf("%s should imply required", v.(formbind.Named).Name())
		}
	}
	if validators.Size(0, 10).ImpliesRequired() {
		t.Fatalf("Size must not imply required")
	}
}

func TestNumbers(t *testing.T) {
	runChecks(t, []check{
		{"Min", validators.Min(1), float64(1), true},
		{"Min", validators.Min(1), 0, false},
		{"Min", validators.Min(1), "2", true},
		{"Min", validators.Min(1), "abc", false},
		{"Min", validators.Min(1), nil, true},
		{"Max", validators.Max(10), float64(10.5), false},
		{"DecimalMin", validators.DecimalMin(0.5, false), 0.5, false},
		{"DecimalMin", validators.DecimalMin(0.5, true), 0.5, true},
		{"DecimalMax", validators.DecimalMax(2, false), 1.99, true},
		{"Positive", validators.Positive(), float64(0), false},
		{"Positive", validators.Positive(), 0.01, true},
		{"PositiveOrZero", validators.PositiveOrZero(), 0, true},
		{"Negative", validators.Negative(), -1, true},
		{"NegativeOrZero", validators.NegativeOrZero(), 1, false},
		{"Digits", validators.Digits(3, 2), 123.45, true},
		{"Digits", validators.Digits(3, 2), 1234.5, false},
		{"Digits", validators.Digits(3, 2), "0.123", false},
		{"IsNumber", validators.IsNumber(false), nil, false},
		{"IsNumber", validators.IsNumber(true), nil, true},
		{"IsNumber", validators.IsNumber(false), "1", false},
		{"IsNumber", validators.IsNumber(false), 3, true},
	})
}

func TestSizeAndPattern(t *testing.T) {
	runChecks(t, []check{
		{"Size", validators.Size(1, 3), "日本語", true},
		{"Size", validators.Size(1, 3), "abcd", false},
		{"Size", validators.Size(2, -1), []any{1, 2, 3, 4}, true},
		{"Size", validators.Size(2, -1), []any{1}, false},
		{"Size", validators.Size(0, 1), 42, false},
		{"Pattern", validators.Pattern(regexp.MustCompile(`[a-z]+`)), "abc", true},
		{"Pattern", validators.Pattern(regexp.MustCompile(`[a-z]+`)), "abc1", false},
		{"Pattern", validators.Pattern(regexp.MustCompile(`[a-z]+`)), nil, true},
		{"Email", validators.Email(), "john@example.com", true},
		{"Email", validators.Email(), "john.example.com", false},
		{"Email", validators.Email(), "", true},
		{"Tag", validators.Tag("uuid4"), "b3b4f7a4-3f0e-4c7e-9a51-2f1f8d0c5e6a", true},
		{"Tag", validators.Tag("uuid4"), "nope", false},
		{"Tag", validators.Tag("required"), nil, false},
	})
}

func TestDates(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	clock := validators.WithClock(func() time.Time { return now })
	runChecks(t, []check{
		{"Past", validators.Past(clock), "2024-05-09", true},
		{"Past", validators.Past(clock), "2024-05-10", false},
		{"PastOrPresent", validators.PastOrPresent(clock), "2024-05-10", true},
		{"Future", validators.Future(clock), "2024-05-10T12:00:01Z", true},
		{"Future", validators.Future(clock), now, false},
		{"FutureOrPresent", validators.FutureOrPresent(clock), now, true},
		{"Past", validators.Past(clock), "yesterday", false},
		{"Past", validators.Past(clock), nil, true},
	})
}

func TestMessages(t *testing.T) {
	if got := validators.Size(1, 255).Message(); got != "size must be between 1 and 255" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := validators.Min(0.5).Message(); got != "must be greater than or equal to 0.5" {
		t.Fatalf("unexpected message: %q", got)
	}
	r := validators.NotBlank(validators.WithMessage("custom"))
	if r.Message() != "custom" || r.MessageKey() != "" {
		t.Fatalf("WithMessage should replace the message and drop the key: %q %q", r.Message(), r.MessageKey())
	}
	if validators.Max(3).MessageKey() != validators.KeyMax {
		t.Fatalf("unexpected key")
	}
}

func TestFactory(t *testing.T) {
	f := validators.Factory()
	v, err := f(model.Constraint{Name: "Size", Params: map[string]any{"max": float64(2)}}, model.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if passes(t, v, "abc") {
		t.Fatalf("Size(max=2) should reject abc")
	}

	v, err = f(model.Constraint{Name: "Pattern", Params: map[string]any{"regexp": `\d+`, "message": "digits only"}}, model.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Message() != "digits only" || passes(t, v, "12a") {
		t.Fatalf("unexpected pattern validator: %q", v.Message())
	}

	if _, err := f(model.Constraint{Name: "Min"}, model.Number()); err == nil {
		t.Fatalf("Min without value should fail")
	}
	if _, err := f(model.Constraint{Name: "Pattern", Params: map[string]any{"regexp": "("}}, model.String()); err == nil {
		t.Fatalf("bad regexp should fail")
	}
	if _, err := f(model.Constraint{Name: "Nope"}, model.String()); !errors.Is(err, validators.ErrUnknownConstraint) {
		t.Fatalf("expected ErrUnknownConstraint, got %v", err)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := validators.NewRegistry()
	r.Register("Even", func(c model.Constraint, _ *model.Shape) (formbind.Validator, error) {
		return formbind.Predicate("Even", "must be even", func(v any) bool {
			f, ok := v.(float64)
			return ok && int(f)%2 == 0
		}), nil
	})
	v, err := r.Build(model.Constraint{Name: "Even"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !passes(t, v, float64(4)) || passes(t, v, float64(3)) {
		t.Fatalf("custom builder not applied")
	}
}

func TestFactory_WithBinder(t *testing.T) {
	shape := model.Object(
		model.Prop("name", model.String().Constrain("NotBlank").Constrain("Size", "max", 3)),
		model.Prop("age", model.Number().Constrain("Min", "value", 18)),
	)
	b := formbind.New(shape, formbind.Options{Constraints: validators.Factory()})
	b.At("name").SetValue("abcd")
	b.At("age").SetValue(float64(17))
	errs := b.Validate(context.Background())
	var got []string
	for _, e := range errs {
		got = append(got, e.Property+": "+e.Message)
	}
	want := []string{
		"name: size must be between 0 and 3",
		"age: must be greater than or equal to 18",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected errors: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("error %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if !b.At("name").Required() || b.At("age").Required() {
		t.Fatalf("NotBlank should make name required and age optional")
	}
}
