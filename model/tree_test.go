package model_test

import (
	"testing"

	"github.com/reoring/formbind/model"
)

func orderShape() *model.Shape {
	return model.Object(
		model.Prop("customer", model.Object(
			model.Prop("fullName", model.String()),
			model.Prop("nickName", model.String().Opt()),
		)),
		model.Prop("notes", model.String()),
		model.Prop("products", model.Array(model.Object(
			model.Prop("description", model.String()),
			model.Prop("price", model.Number()),
		))),
	)
}

func TestTree_IdentityStable(t *testing.T) {
	tr := model.NewTree(orderShape())
	a := tr.Root().Field("customer").Field("fullName")
	b, ok := tr.Lookup("customer.fullName")
	if !ok || a != b {
		t.Fatalf("expected the same node for repeated lookups")
	}
	if a.Path() != "customer.fullName" || a.Name() != "fullName" || a.Parent().Path() != "customer" {
		t.Fatalf("unexpected node %v parent %v", a, a.Parent())
	}
	if tr.Root().Field("missing") != nil {
		t.Fatalf("unknown field should be nil")
	}
	if _, ok := tr.Lookup("notes.x"); ok {
		t.Fatalf("primitives have no children")
	}
	if _, ok := tr.Lookup("products.x"); ok {
		t.Fatalf("array children need an index")
	}
	p, ok := tr.Lookup("products.1.price")
	if !ok || p.Kind() != model.KindPrimitive || p.Shape().Type != model.TypeNumber {
		t.Fatalf("unexpected array item field %v", p)
	}
}

func TestTree_ItemsAndPrune(t *testing.T) {
	tr := model.NewTree(orderShape())
	products := tr.Root().Field("products")
	value := map[string]any{"products": []any{map[string]any{}, map[string]any{}, map[string]any{}}}
	items := products.Items(value)
	if len(items) != 3 || items[2].Path() != "products.2" {
		t.Fatalf("unexpected items %v", items)
	}
	deep := items[2].Field("price")

	dropped := tr.Prune("products", 2)
	if len(dropped) != 2 {
		t.Fatalf("expected item 2 and its price to be pruned, got %v", dropped)
	}
	if !deep.Detached() || items[1].Detached() {
		t.Fatalf("only nodes past the new length should be detached")
	}
	again := products.Index(2)
	if again == items[2] {
		t.Fatalf("a pruned index must get a fresh node")
	}
	if items[0] != products.Index(0) {
		t.Fatalf("surviving items keep their identity")
	}
}

func TestShape_AtAndPaths(t *testing.T) {
	s := orderShape()
	if sh, ok := s.At("products.7.price"); !ok || sh.Type != model.TypeNumber {
		t.Fatalf("At through array failed: %v %v", sh, ok)
	}
	if _, ok := s.At("products.x"); ok {
		t.Fatalf("non-index segment under array must fail")
	}
	want := []string{"customer", "customer.fullName", "customer.nickName", "notes", "products"}
	got := s.Paths()
	if len(got) != len(want) {
		t.Fatalf("Paths = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Paths = %v, want %v", got, want)
		}
	}
}
