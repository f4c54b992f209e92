package model_test

import (
	"errors"
	"testing"

	"github.com/reoring/formbind/model"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"/", ""},
		{"customer.fullName", "customer.fullName"},
		{"products[0].description", "products.0.description"},
		{"matrix[1][2]", "matrix.1.2"},
		{"[3].name", "3.name"},
		{"/products/0/description", "products.0.description"},
		{"/a~1b/c~0d", "a/b.c~d"},
		{"  notes ", "notes"},
	}
	for _, c := range cases {
		got, err := model.ParsePath(c.in)
		if err != nil {
			t.Fatalf("ParsePath(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParsePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"a..b", "a.", "a[x]", "a[0", "a]", "a[0]b", "//x", "/a.b"} {
		if _, err := model.ParsePath(bad); !errors.Is(err, model.ErrInvalidPath) {
			t.Fatalf("ParsePath(%q): expected ErrInvalidPath, got %v", bad, err)
		}
	}
}

func TestPathHelpers(t *testing.T) {
	if p, last := model.Parent("a.b.c"); p != "a.b" || last != "c" {
		t.Fatalf("Parent: %q %q", p, last)
	}
	if p, last := model.Parent("a"); p != "" || last != "a" {
		t.Fatalf("Parent of top-level: %q %q", p, last)
	}
	if !model.Within("a.b", "a") || model.Within("ab", "a") || !model.Within("x", "") || !model.Within("a", "a") {
		t.Fatalf("Within misbehaves")
	}
	idx, rest, ok := model.ItemIndex("products.3.price", "products")
	if !ok || idx != 3 || rest != "price" {
		t.Fatalf("ItemIndex: %d %q %v", idx, rest, ok)
	}
	if _, _, ok := model.ItemIndex("productsX.3", "products"); ok {
		t.Fatalf("ItemIndex should not match sibling prefixes")
	}
	if got := model.Pointer("a/b.0"); got != "/a~1b/0" {
		t.Fatalf("Pointer: %q", got)
	}
	if got := model.Pointer(""); got != "/" {
		t.Fatalf("Pointer root: %q", got)
	}
}

func TestCompare(t *testing.T) {
	s := model.Object(
		model.Prop("customer", model.Object(
			model.Prop("fullName", model.String()),
			model.Prop("nickName", model.String()),
		)),
		model.Prop("notes", model.String()),
		model.Prop("products", model.Array(model.Object(model.Prop("price", model.Number())))),
	)
	ordered := []string{
		"",
		"customer",
		"customer.fullName",
		"customer.nickName",
		"notes",
		"products",
		"products.2",
		"products.2.price",
		"products.10",
		"foo",
	}
	for i := range ordered {
		for j := range ordered {
			got := model.Compare(s, ordered[i], ordered[j])
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got != want {
				t.Fatalf("Compare(%q, %q) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}
