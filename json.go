package formbind

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/reoring/formbind/internal/engine"
)

// ReadJSON decodes data and reads it as the bound value. Numbers decode as
// float64.
func (b *Binder) ReadJSON(data []byte) error {
	if b.opts.RejectDuplicateKeys {
		dups, err := engine.DuplicateKeys(data, 1)
		if err != nil {
			return fmt.Errorf("formbind: read json: %w", err)
		}
		if len(dups) > 0 {
			return fmt.Errorf("formbind: read json: %w %q", ErrDuplicateKey, dups[0])
		}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("formbind: read json: %w", err)
	}
	b.Read(v)
	return nil
}

// ValueJSON encodes the current bound value.
func (b *Binder) ValueJSON() ([]byte, error) {
	return json.Marshal(b.Value())
}

// ErrorsJSON encodes the stored errors in tree order.
func (b *Binder) ErrorsJSON() ([]byte, error) {
	errs := b.Errors()
	if errs == nil {
		errs = []ValueError{}
	}
	return json.Marshal(errs)
}
