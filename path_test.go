package update

import (
	"reflect"
	"testing"
)

func TestParsePathEquivalentSpellings(t *testing.T) {
	want := Path{"a", "b", "c"}
	for _, raw := range []string{"a.b.c", "a.b[c]", "a[b][c]", "a..b.c", "a.b.c."} {
		got := ParsePath(raw)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("ParsePath(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestParsePathNumericSegments(t *testing.T) {
	got := ParsePath("items[0].name")
	want := Path{"items", "0", "name"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParsePath = %v, want %v", got, want)
	}
}

func TestParsePathEmptyAddressesRoot(t *testing.T) {
	if p := ParsePath(""); !p.IsRoot() {
		t.Fatalf("expected root path, got %v", p)
	}
	if p := ParsePath("..."); !p.IsRoot() {
		t.Fatalf("expected root path for delimiter-only input, got %v", p)
	}
}

func TestPathShift(t *testing.T) {
	head, rest := Path{"a", "b", "c"}.Shift()
	if head != "a" || !reflect.DeepEqual(rest, Path{"b", "c"}) {
		t.Fatalf("Shift = %q, %v", head, rest)
	}

	head, rest = Path{"a"}.Shift()
	if head != "a" || rest != nil {
		t.Fatalf("Shift on single key = %q, %v", head, rest)
	}

	head, rest = Path(nil).Shift()
	if head != "" || rest != nil {
		t.Fatalf("Shift on empty path = %q, %v", head, rest)
	}
}

func TestPathJoinCopies(t *testing.T) {
	base := Path{"a"}
	joined := base.Join("b", "c")
	if !reflect.DeepEqual(joined, Path{"a", "b", "c"}) {
		t.Fatalf("Join = %v", joined)
	}
	if !reflect.DeepEqual(base, Path{"a"}) {
		t.Fatalf("receiver mutated: %v", base)
	}
	if joined.String() != "a.b.c" {
		t.Fatalf("String = %q", joined.String())
	}
}
