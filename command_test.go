package update

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildNestsOneLevelPerKey(t *testing.T) {
	cmd, err := Build(OpSet, Path{"a", "b", "c"}, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	depth := 0
	for !cmd.IsLeaf() {
		if len(cmd.Child) != 1 {
			t.Fatalf("expected single-key branch at depth %d, got %d keys", depth, len(cmd.Child))
		}
		for _, child := range cmd.Child {
			cmd = child
		}
		depth++
	}
	if depth != 3 {
		t.Fatalf("expected 3 levels of nesting, got %d", depth)
	}
	if cmd.Op != OpSet || cmd.Value != 1 {
		t.Fatalf("unexpected leaf %+v", cmd)
	}
}

func TestBuildEmptyPathReturnsLeaf(t *testing.T) {
	cmd, err := Build(OpSet, nil, "v")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !cmd.IsLeaf() || cmd.Value != "v" {
		t.Fatalf("expected bare leaf, got %+v", cmd)
	}
}

func TestLeafPushWrapsValueAsRun(t *testing.T) {
	cmd, err := Leaf(OpPush, 42)
	if err != nil {
		t.Fatalf("leaf: %v", err)
	}
	if !reflect.DeepEqual(cmd.Value, []any{42}) {
		t.Fatalf("expected single-element run, got %v", cmd.Value)
	}
}

func TestLeafUnknownOp(t *testing.T) {
	if _, err := Leaf(Op("merge"), nil); !errors.Is(err, ErrUnknownOp) {
		t.Fatalf("expected ErrUnknownOp, got %v", err)
	}
	if _, err := Build(Op(""), Path{"a"}, nil); !errors.Is(err, ErrUnknownOp) {
		t.Fatalf("expected ErrUnknownOp for empty op, got %v", err)
	}
}
