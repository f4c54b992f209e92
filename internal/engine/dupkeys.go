package engine

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/reoring/formbind/model"
)

type dupFrame struct {
	object       bool
	keys         map[string]struct{}
	expectingKey bool
	path         string
	key          string
	index        int
}

// DuplicateKeys scans a JSON document and returns the canonical path of every
// object key that occurs more than once in its object. limit > 0 stops the
// scan after that many findings. Syntax errors are returned with the
// findings collected so far.
func DuplicateKeys(data []byte, limit int) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var (
		stack []dupFrame
		out   []string
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}

		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			valueDone(stack)
			continue
		}
		if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].expectingKey {
			top := &stack[n-1]
			key, _ := tok.(string)
			if _, dup := top.keys[key]; dup {
				out = append(out, model.Join(top.path, key))
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
			}
			top.keys[key] = struct{}{}
			top.key = key
			top.expectingKey = false
			continue
		}
		if d, ok := tok.(json.Delim); ok {
			f := dupFrame{object: d == '{', path: childPath(stack)}
			if f.object {
				f.keys = make(map[string]struct{})
				f.expectingKey = true
			}
			stack = append(stack, f)
			continue
		}
		valueDone(stack)
	}
}

// valueDone advances the innermost container past one completed value.
func valueDone(stack []dupFrame) {
	if len(stack) == 0 {
		return
	}
	top := &stack[len(stack)-1]
	if top.object {
		top.expectingKey = true
	} else {
		top.index++
	}
}

func childPath(stack []dupFrame) string {
	if len(stack) == 0 {
		return ""
	}
	top := stack[len(stack)-1]
	if top.object {
		return model.Join(top.path, top.key)
	}
	return model.JoinIndex(top.path, top.index)
}
