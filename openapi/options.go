package openapi

import "fmt"

// Options controls import behavior.
type Options struct {
	// Entity names the component schema to import when the document holds a
	// components.schemas (or $defs) section. A fully qualified name
	// ("com.example.Person") or its simple name ("Person") is accepted. It may
	// be empty when the document itself is a schema or has a single
	// component.
	Entity string
	// Strict turns warnings into an error.
	Strict bool
}

// Diag carries non-fatal warnings produced during import.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool        { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string       { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(f string, a ...any) { d.ws = append(d.ws, fmt.Sprintf(f, a...)) }
