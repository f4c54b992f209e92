package openapi_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/model"
	"github.com/reoring/formbind/openapi"
	"github.com/reoring/formbind/validators"
)

const orderYAML = `
openapi: 3.0.1
components:
  schemas:
    com.example.Customer:
      type: object
      properties:
        fullName:
          type: string
          x-validation-constraints:
            - simpleName: NotBlank
            - simpleName: Size
              attributes:
                max: 5
        nickName:
          type: string
          nullable: true
        email:
          type: string
          format: email
    com.example.Product:
      type: object
      required: [description]
      properties:
        description:
          type: string
          minLength: 1
        price:
          type: number
          minimum: 0
          exclusiveMinimum: true
    com.example.Order:
      type: object
      x-annotations:
        - jakarta.persistence.Entity
      properties:
        id:
          type: integer
          x-annotations: [jakarta.persistence.Id]
        customer:
          $ref: '#/components/schemas/com.example.Customer'
        notes:
          type: string
          pattern: '[a-z ]*'
        products:
          type: array
          minItems: 1
          items:
            $ref: '#/components/schemas/com.example.Product'
`

func TestImportYAML_Order(t *testing.T) {
	s, diag, err := openapi.ImportYAML([]byte(orderYAML), openapi.Options{Entity: "Order"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diag.HasWarnings() {
		t.Fatalf("unexpected warnings: %v", diag.Warnings())
	}
	if s.Type != "com.example.Order" || !s.HasAnnotation("jakarta.persistence.Entity") {
		t.Fatalf("unexpected root: type=%q annotations=%v", s.Type, s.Annotations)
	}
	var names []string
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"id", "customer", "notes", "products"}, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	id, _ := s.Field("id")
	if !id.HasAnnotation("jakarta.persistence.Id") {
		t.Fatalf("id should carry its annotation")
	}
	customer, _ := s.Field("customer")
	if customer.Type != "com.example.Customer" || customer.Kind != model.KindObject {
		t.Fatalf("customer ref not resolved: %+v", customer)
	}
	fullName, _ := customer.Field("fullName")
	if got := constraintNames(fullName); !cmp.Equal(got, []string{"NotBlank", "Size"}) {
		t.Fatalf("unexpected fullName constraints %v", got)
	}
	nick, _ := customer.Field("nickName")
	if !nick.Optional {
		t.Fatalf("nullable should make nickName optional")
	}
	email, _ := customer.Field("email")
	if got := constraintNames(email); !cmp.Equal(got, []string{"Email"}) {
		t.Fatalf("unexpected email constraints %v", got)
	}

	products, _ := s.Field("products")
	if products.Kind != model.KindArray || products.Item.Type != "com.example.Product" {
		t.Fatalf("unexpected products shape %+v", products)
	}
	desc, _ := products.Item.Field("description")
	if got := constraintNames(desc); !cmp.Equal(got, []string{"Size", "NotNull"}) {
		t.Fatalf("unexpected description constraints %v", got)
	}
	price, _ := products.Item.Field("price")
	want := []model.Constraint{{Name: "DecimalMin", Params: map[string]any{"value": int64(0), "inclusive": false}}}
	if diff := cmp.Diff(want, price.Constraints); diff != "" {
		t.Fatalf("price constraints mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_BindsAndValidates(t *testing.T) {
	s, _, err := openapi.ImportYAML([]byte(orderYAML), openapi.Options{Entity: "com.example.Order"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := formbind.New(s, formbind.Options{Constraints: validators.Factory()})
	b.At("customer.fullName").SetValue("too long name")
	b.At("notes").SetValue("Bad!")
	b.At("products").AppendItemValue(map[string]any{"description": "", "price": float64(0)})

	var got []string
	for _, e := range b.Validate(context.Background()) {
		got = append(got, e.Property)
	}
	want := []string{"customer.fullName", "notes", "products.0.description", "products.0.price"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if !b.At("products.0.description").Required() {
		t.Fatalf("required property should be required")
	}
}

func TestImportJSON_BareSchemaKeepsOrder(t *testing.T) {
	data := []byte(`{
	"type": "object",
	"properties": {
		"zeta": {"type": "string", "maxLength": 3},
		"alpha": {"type": "boolean", "default": true},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`)
	s, _, err := openapi.ImportJSON(data, openapi.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Fields) != 3 || s.Fields[0].Name != "zeta" || s.Fields[1].Name != "alpha" {
		t.Fatalf("unexpected fields %+v", s.Fields)
	}
	empty := model.Empty(s)
	want := map[string]any{"zeta": "", "alpha": true, "tags": []any{}}
	if diff := cmp.Diff(want, empty); diff != "" {
		t.Fatalf("empty value mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_CyclesAndWarnings(t *testing.T) {
	doc := map[string]any{
		"$defs": map[string]any{
			"Node": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"next":  map[string]any{"$ref": "#/$defs/Node"},
					"value": map[string]any{"type": "string"},
					"ext":   map[string]any{"$ref": "http://example.com/x.json"},
				},
			},
		},
	}
	s, diag, err := openapi.Import(doc, openapi.Options{Entity: "Node"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next, ok := s.Field("next")
	if !ok || next.Kind != model.KindObject || len(next.Fields) != 0 {
		t.Fatalf("cycle should stop at an empty object, got %+v", next)
	}
	ws := strings.Join(diag.Warnings(), "\n")
	if !strings.Contains(ws, "cyclic $ref") || !strings.Contains(ws, "not supported") {
		t.Fatalf("expected cycle and unsupported ref warnings, got %q", ws)
	}

	if _, _, err := openapi.Import(doc, openapi.Options{Entity: "Node", Strict: true}); err == nil {
		t.Fatalf("strict import should fail on warnings")
	}
}

func TestImport_EntityErrors(t *testing.T) {
	_, _, err := openapi.ImportYAML([]byte(orderYAML), openapi.Options{Entity: "Missing"})
	if !errors.Is(err, openapi.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
	_, _, err = openapi.ImportYAML([]byte(orderYAML), openapi.Options{})
	if !errors.Is(err, openapi.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound without entity, got %v", err)
	}
	_, _, err = openapi.ImportYAML([]byte("a: 1\na: 2\n"), openapi.Options{})
	var dup *openapi.DuplicateKeyError
	if !errors.As(err, &dup) || dup.Key != "a" {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
	if _, _, err := openapi.ImportJSON([]byte(`{"type":`), openapi.Options{}); err == nil {
		t.Fatalf("expected invalid JSON error")
	}
}

func constraintNames(s *model.Shape) []string {
	var out []string
	for _, c := range s.Constraints {
		out = append(out, c.Name)
	}
	return out
}
