package update

import "strings"

// Path is an ordered sequence of keys locating a nested position inside a
// tree-shaped value. Numeric keys address slice indices and are kept as
// decimal strings until apply time.
type Path []string

const pathDelimiters = ".[]"

// ParsePath splits a delimited path string into a Path. Delimiters are `.`,
// `[` and `]`; consecutive delimiters collapse and empty segments are
// dropped, so "a.b[c]", "a..b.c" and "a[b][c]" all resolve to the same Path.
// An empty string resolves to a nil Path, addressing the root.
func ParsePath(path string) Path {
	if path == "" {
		return nil
	}
	segments := strings.FieldsFunc(path, func(r rune) bool {
		return strings.ContainsRune(pathDelimiters, r)
	})
	if len(segments) == 0 {
		return nil
	}
	return Path(segments)
}

// Shift removes and returns the first key alongside the remaining path. The
// remainder is nil when nothing follows. Shift on an empty path returns
// ("", nil); callers treat an empty path as "no further descent" and must not
// rely on the empty head as a key.
func (p Path) Shift() (string, Path) {
	if len(p) == 0 {
		return "", nil
	}
	if len(p) == 1 {
		return p[0], nil
	}
	return p[0], p[1:]
}

// IsRoot reports whether the path addresses the root value itself.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// String re-joins the keys with dots for diagnostics and trace output.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Join appends keys to a copy of the path, leaving the receiver untouched.
func (p Path) Join(keys ...string) Path {
	out := make(Path, 0, len(p)+len(keys))
	out = append(out, p...)
	out = append(out, keys...)
	return out
}
