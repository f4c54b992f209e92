package model

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Paths are canonical dotted strings: object keys and decimal array indices
// joined by '.', with "" addressing the root (e.g. "products.0.description").

// ErrInvalidPath is returned by ParsePath for malformed input.
var ErrInvalidPath = errors.New("model: invalid path")

// Join appends a segment to a path.
func Join(base, seg string) string {
	if base == "" {
		return seg
	}
	if seg == "" {
		return base
	}
	return base + "." + seg
}

// JoinIndex appends an array index to a path.
func JoinIndex(base string, i int) string { return Join(base, strconv.Itoa(i)) }

// Split returns the segments of a canonical path.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Parent returns the parent path and the last segment. The root has no
// parent and yields ("", "").
func Parent(path string) (string, string) {
	if path == "" {
		return "", ""
	}
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// Within reports whether path equals prefix or lies below it.
func Within(path, prefix string) bool {
	if prefix == "" || path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix) && len(path) > len(prefix) && path[len(prefix)] == '.'
}

// ItemIndex reports whether path addresses an item (or a descendant of an
// item) of the array at arrayPath, returning the index and the remainder
// below the item.
func ItemIndex(path, arrayPath string) (idx int, rest string, ok bool) {
	var tail string
	switch {
	case arrayPath == "":
		tail = path
	case strings.HasPrefix(path, arrayPath+"."):
		tail = path[len(arrayPath)+1:]
	default:
		return 0, "", false
	}
	seg := tail
	if i := strings.IndexByte(tail, '.'); i >= 0 {
		seg, rest = tail[:i], tail[i+1:]
	}
	idx, ok = IndexOf(seg)
	return idx, rest, ok
}

// Compare orders two canonical paths by depth-first pre-order over s: a
// path precedes its descendants, object fields follow declaration order and
// array items follow their index. Segments s does not declare sort after the
// declared ones.
func Compare(s *Shape, a, b string) int {
	as, bs := Split(a), Split(b)
	cur := s
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return compareSegment(cur, as[i], bs[i])
		}
		cur = childShape(cur, as[i])
	}
	return cmp.Compare(len(as), len(bs))
}

func compareSegment(s *Shape, x, y string) int {
	if s != nil && s.Kind == KindObject {
		return cmp.Or(cmp.Compare(fieldRank(s, x), fieldRank(s, y)), strings.Compare(x, y))
	}
	xi, xok := IndexOf(x)
	yi, yok := IndexOf(y)
	switch {
	case xok && yok:
		return cmp.Compare(xi, yi)
	case xok:
		return -1
	case yok:
		return 1
	}
	return strings.Compare(x, y)
}

func fieldRank(s *Shape, name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return len(s.Fields)
}

func childShape(s *Shape, seg string) *Shape {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case KindObject:
		f, _ := s.Field(seg)
		return f
	case KindArray:
		return s.Item
	}
	return nil
}

// IndexOf parses a non-negative decimal array index segment.
func IndexOf(seg string) (int, bool) {
	if seg == "" || len(seg) > 9 {
		return 0, false
	}
	n := 0
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// ParsePath canonicalizes a property path written in dotted form
// ("products.0.description"), bracketed form ("products[0].description") or
// as a JSON Pointer ("/products/0/description").
func ParsePath(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "/" {
		return "", nil
	}
	if s[0] == '/' {
		return parsePointer(s)
	}
	var (
		segs []string
		cur  strings.Builder
		// afterBracket allows "a[0].b" and "a[0][1]" but rejects "a[0]b".
		afterBracket bool
	)
	flush := func() error {
		if cur.Len() == 0 {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		}
		segs = append(segs, cur.String())
		cur.Reset()
		return nil
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '.':
			if afterBracket {
				afterBracket = false
				continue
			}
			if err := flush(); err != nil {
				return "", err
			}
		case '[':
			if cur.Len() > 0 {
				if err := flush(); err != nil {
					return "", err
				}
			} else if i > 0 && !afterBracket {
				return "", fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
			}
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated bracket in %q", ErrInvalidPath, s)
			}
			idx := s[i+1 : i+end]
			if _, ok := IndexOf(idx); !ok {
				return "", fmt.Errorf("%w: bad index %q in %q", ErrInvalidPath, idx, s)
			}
			segs = append(segs, idx)
			i += end
			afterBracket = true
		case ']':
			return "", fmt.Errorf("%w: unexpected ']' in %q", ErrInvalidPath, s)
		default:
			if afterBracket {
				return "", fmt.Errorf("%w: missing '.' after index in %q", ErrInvalidPath, s)
			}
			cur.WriteByte(c)
		}
	}
	if !afterBracket {
		if err := flush(); err != nil {
			return "", err
		}
	}
	return strings.Join(segs, "."), nil
}

func parsePointer(s string) (string, error) {
	parts := strings.Split(s[1:], "/")
	for i, p := range parts {
		if p == "" {
			return "", fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		}
		// unescape per RFC 6901: '~1' -> '/', then '~0' -> '~'
		p = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
		if strings.Contains(p, ".") {
			return "", fmt.Errorf("%w: segment %q contains '.'", ErrInvalidPath, p)
		}
		parts[i] = p
	}
	return strings.Join(parts, "."), nil
}

// Pointer renders a canonical path as a JSON Pointer.
func Pointer(path string) string {
	if path == "" {
		return "/"
	}
	parts := Split(path)
	for i, p := range parts {
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~", "~0"), "/", "~1")
	}
	return "/" + strings.Join(parts, "/")
}
