package update

import (
	"errors"
	"fmt"
)

// Op identifies one of the three supported update operations.
type Op string

const (
	// OpSet replaces the value at the path.
	OpSet Op = "set"
	// OpPush appends the value as a single new element; the target must be a
	// sequence.
	OpPush Op = "push"
	// OpSplice removes the first element equal to the value. Removal is by
	// first-match equality, never by index: callers pass the element to
	// remove, not its position. With duplicate elements only the first match
	// is removed.
	OpSplice Op = "splice"
)

// ErrUnknownOp indicates an operation tag with no registered command builder.
var ErrUnknownOp = errors.New("update: unknown operation")

// Command is a nested patch description consumed by an Applier. A leaf
// (Op != "") carries the primitive operation; a branch descends into exactly
// one key per path level before reaching the leaf.
type Command struct {
	Op    Op
	Value any
	Child map[string]*Command
}

// IsLeaf reports whether the command carries a primitive operation.
func (c *Command) IsLeaf() bool {
	return c != nil && c.Op != ""
}

type leafBuilder func(value any) *Command

// Leaf builders keyed by operation tag. Lookup failure is the unknown
// operation condition.
var leafBuilders = map[Op]leafBuilder{
	OpSet: func(value any) *Command {
		return &Command{Op: OpSet, Value: value}
	},
	OpPush: func(value any) *Command {
		// Push always appends a single-element run.
		return &Command{Op: OpPush, Value: []any{value}}
	},
	OpSplice: func(value any) *Command {
		return &Command{Op: OpSplice, Value: value}
	},
}

// Leaf builds the primitive command for op carrying value.
func Leaf(op Op, value any) (*Command, error) {
	builder, ok := leafBuilders[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
	return builder(value), nil
}

// Build constructs the command tree for applying op with value at path. An
// empty path returns the leaf command itself; otherwise the leaf is wrapped
// in one single-key branch per path key, innermost-out, so a path of N keys
// produces exactly N levels of nesting.
func Build(op Op, path Path, value any) (*Command, error) {
	cmd, err := Leaf(op, value)
	if err != nil {
		return nil, err
	}
	for i := len(path) - 1; i >= 0; i-- {
		cmd = &Command{Child: map[string]*Command{path[i]: cmd}}
	}
	return cmd, nil
}
