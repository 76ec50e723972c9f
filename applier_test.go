package update

import (
	"reflect"
	"strings"
	"testing"
)

func sameRef(a, b any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func TestApplierSetSharesUntouchedSiblings(t *testing.T) {
	sibling := map[string]any{"kept": true}
	source := map[string]any{
		"a": map[string]any{"x": 1},
		"b": sibling,
	}

	cmd, err := Build(OpSet, Path{"a", "x"}, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := NewStructuralApplier().Apply(source, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	out, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", result)
	}
	if out["a"].(map[string]any)["x"] != 2 {
		t.Fatalf("expected a.x=2, got %v", out["a"])
	}
	if source["a"].(map[string]any)["x"] != 1 {
		t.Fatalf("source mutated: %v", source)
	}
	if sameRef(out, source) {
		t.Fatalf("root should be rebuilt")
	}
	if !sameRef(out["b"], sibling) {
		t.Fatalf("untouched sibling should be shared by reference")
	}
}

func TestApplierPushAppendsWithoutMutating(t *testing.T) {
	tags := []any{"admin"}
	source := map[string]any{"tags": tags}

	cmd, err := Build(OpPush, Path{"tags"}, "editor")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := NewStructuralApplier().Apply(source, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := result.(map[string]any)["tags"].([]any)
	if !reflect.DeepEqual(got, []any{"admin", "editor"}) {
		t.Fatalf("expected appended run, got %v", got)
	}
	if len(tags) != 1 {
		t.Fatalf("source slice mutated: %v", tags)
	}
}

func TestApplierPushRequiresSequence(t *testing.T) {
	cmd, err := Build(OpPush, Path{"name"}, "x")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, err = NewStructuralApplier().Apply(map[string]any{"name": "ada"}, cmd)
	if err == nil || !strings.Contains(err.Error(), "push target must be a sequence") {
		t.Fatalf("expected sequence error, got %v", err)
	}
}

func TestApplierSpliceRemovesFirstMatch(t *testing.T) {
	source := map[string]any{"tags": []any{"a", "b", "a"}}

	cmd, err := Build(OpSplice, Path{"tags"}, "a")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := NewStructuralApplier().Apply(source, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := result.(map[string]any)["tags"].([]any)
	if !reflect.DeepEqual(got, []any{"b", "a"}) {
		t.Fatalf("expected first match removed, got %v", got)
	}
}

func TestApplierSpliceByStructuralEquality(t *testing.T) {
	target := map[string]any{"id": 2}
	source := map[string]any{"items": []any{
		map[string]any{"id": 1},
		map[string]any{"id": 2},
	}}

	cmd, err := Build(OpSplice, Path{"items"}, target)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := NewStructuralApplier().Apply(source, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := result.(map[string]any)["items"].([]any)
	if len(got) != 1 || !reflect.DeepEqual(got[0], map[string]any{"id": 1}) {
		t.Fatalf("expected element removed by equality, got %v", got)
	}
}

func TestApplierSpliceNoMatchKeepsIdentity(t *testing.T) {
	tags := []any{"a", "b"}
	cmd, err := Build(OpSplice, nil, "missing")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := NewStructuralApplier().Apply(tags, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !sameRef(result, tags) {
		t.Fatalf("no-match splice should return the source reference")
	}
}

func TestApplierDescendsSliceIndex(t *testing.T) {
	source := map[string]any{"items": []any{
		map[string]any{"name": "one"},
		map[string]any{"name": "two"},
	}}

	cmd, err := Build(OpSet, Path{"items", "1", "name"}, "TWO")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := NewStructuralApplier().Apply(source, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	items := result.(map[string]any)["items"].([]any)
	if items[1].(map[string]any)["name"] != "TWO" {
		t.Fatalf("expected items[1].name=TWO, got %v", items[1])
	}
	if !sameRef(items[0], source["items"].([]any)[0]) {
		t.Fatalf("untouched element should be shared")
	}
}

func TestApplierIndexOutOfRange(t *testing.T) {
	cmd, err := Build(OpSet, Path{"items", "5"}, "x")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, err = NewStructuralApplier().Apply(map[string]any{"items": []any{"a"}}, cmd)
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestApplierCreatesMissingIntermediates(t *testing.T) {
	cmd, err := Build(OpSet, Path{"prefs", "theme"}, "dark")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := NewStructuralApplier().Apply(map[string]any{}, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	prefs, ok := result.(map[string]any)["prefs"].(map[string]any)
	if !ok || prefs["theme"] != "dark" {
		t.Fatalf("expected created prefs.theme=dark, got %v", result)
	}
}

func TestApplierTypedMapAndSlice(t *testing.T) {
	source := map[string]int{"count": 1}
	cmd, err := Build(OpSet, Path{"count"}, 5)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := NewStructuralApplier().Apply(source, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, ok := result.(map[string]int)
	if !ok || got["count"] != 5 {
		t.Fatalf("expected typed map result, got %#v", result)
	}
	if source["count"] != 1 {
		t.Fatalf("source mutated: %v", source)
	}

	cmd, err = Build(OpPush, nil, "c")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	appended, err := NewStructuralApplier().Apply([]string{"a", "b"}, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !reflect.DeepEqual(appended, []string{"a", "b", "c"}) {
		t.Fatalf("expected typed slice append, got %#v", appended)
	}
}

func TestApplierCannotDescendScalar(t *testing.T) {
	cmd, err := Build(OpSet, Path{"name", "first"}, "x")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, err = NewStructuralApplier().Apply(map[string]any{"name": "ada"}, cmd)
	if err == nil || !strings.Contains(err.Error(), "cannot descend") {
		t.Fatalf("expected descend error, got %v", err)
	}
}
