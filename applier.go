package update

import (
	"fmt"
	"reflect"
	"strconv"
)

// Applier consumes a command tree and produces a new value from source. The
// result must structurally share every subtree not addressed by the command:
// only the nodes on the path from the root to each leaf are rebuilt.
// Implementations never mutate source.
type Applier interface {
	Apply(source any, cmd *Command) (any, error)
}

// NewStructuralApplier returns the default Applier. It operates on
// JSON-shaped values (string-keyed maps and slices of any element type) via
// reflection, with copy-on-write along the addressed path only.
func NewStructuralApplier() Applier {
	return structuralApplier{}
}

type structuralApplier struct{}

func (a structuralApplier) Apply(source any, cmd *Command) (any, error) {
	if cmd == nil {
		return source, nil
	}
	if cmd.IsLeaf() {
		return a.applyLeaf(source, cmd)
	}
	return a.descend(source, cmd)
}

func (a structuralApplier) applyLeaf(source any, cmd *Command) (any, error) {
	switch cmd.Op {
	case OpSet:
		return cmd.Value, nil
	case OpPush:
		items, ok := cmd.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("update: push payload must be a run of elements, got %T", cmd.Value)
		}
		return appendRun(source, items)
	case OpSplice:
		return spliceFirst(source, cmd.Value)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
	}
}

func (a structuralApplier) descend(source any, cmd *Command) (any, error) {
	result := source
	for key, child := range cmd.Child {
		next, err := a.descendKey(result, key, child)
		if err != nil {
			return nil, err
		}
		result = next
	}
	return result, nil
}

func (a structuralApplier) descendKey(source any, key string, child *Command) (any, error) {
	if source == nil {
		// Missing intermediates materialize as objects; leaf ops that need a
		// sequence will then fail there with their own error.
		inner, err := a.Apply(nil, child)
		if err != nil {
			return nil, err
		}
		return map[string]any{key: inner}, nil
	}

	if m, ok := source.(map[string]any); ok {
		inner, err := a.Apply(m[key], child)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(m)+1)
		for k, v := range m {
			out[k] = v
		}
		out[key] = inner
		return out, nil
	}

	rv := reflect.ValueOf(source)
	switch rv.Kind() {
	case reflect.Map:
		return a.descendMap(rv, key, child)
	case reflect.Slice:
		return a.descendSlice(rv, key, child)
	default:
		return nil, fmt.Errorf("update: cannot descend into %T at key %q", source, key)
	}
}

func (a structuralApplier) descendMap(rv reflect.Value, key string, child *Command) (any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("update: cannot descend into %s: keys must be strings", rv.Type())
	}
	keyVal := reflect.ValueOf(key).Convert(rv.Type().Key())
	var current any
	if existing := rv.MapIndex(keyVal); existing.IsValid() {
		current = existing.Interface()
	}
	inner, err := a.Apply(current, child)
	if err != nil {
		return nil, err
	}
	out := reflect.MakeMapWithSize(rv.Type(), rv.Len()+1)
	iter := rv.MapRange()
	for iter.Next() {
		out.SetMapIndex(iter.Key(), iter.Value())
	}
	innerVal, err := valueFor(inner, rv.Type().Elem())
	if err != nil {
		return nil, fmt.Errorf("update: key %q: %w", key, err)
	}
	out.SetMapIndex(keyVal, innerVal)
	return out.Interface(), nil
}

func (a structuralApplier) descendSlice(rv reflect.Value, key string, child *Command) (any, error) {
	index, err := strconv.Atoi(key)
	if err != nil {
		return nil, fmt.Errorf("update: key %q is not a valid index into %s", key, rv.Type())
	}
	if index < 0 || index >= rv.Len() {
		return nil, fmt.Errorf("update: index %d out of range for length %d", index, rv.Len())
	}
	inner, err := a.Apply(rv.Index(index).Interface(), child)
	if err != nil {
		return nil, err
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(out, rv)
	innerVal, err := valueFor(inner, rv.Type().Elem())
	if err != nil {
		return nil, fmt.Errorf("update: index %d: %w", index, err)
	}
	out.Index(index).Set(innerVal)
	return out.Interface(), nil
}

// appendRun returns a new sequence with items appended to source. Source must
// already be a sequence.
func appendRun(source any, items []any) (any, error) {
	rv := reflect.ValueOf(source)
	if source == nil || rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("update: push target must be a sequence, got %T", source)
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len()+len(items))
	reflect.Copy(out, rv)
	for _, item := range items {
		itemVal, err := valueFor(item, rv.Type().Elem())
		if err != nil {
			return nil, fmt.Errorf("update: push: %w", err)
		}
		out = reflect.Append(out, itemVal)
	}
	return out.Interface(), nil
}

// spliceFirst removes the first element of source equal to value. When no
// element matches, source is returned as-is, preserving its identity.
func spliceFirst(source any, value any) (any, error) {
	rv := reflect.ValueOf(source)
	if source == nil || rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("update: splice target must be a sequence, got %T", source)
	}
	match := -1
	for i := 0; i < rv.Len(); i++ {
		if reflect.DeepEqual(rv.Index(i).Interface(), value) {
			match = i
			break
		}
	}
	if match < 0 {
		return source, nil
	}
	out := reflect.MakeSlice(rv.Type(), 0, rv.Len()-1)
	out = reflect.AppendSlice(out, rv.Slice(0, match))
	out = reflect.AppendSlice(out, rv.Slice(match+1, rv.Len()))
	return out.Interface(), nil
}

func valueFor(value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch target.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			return reflect.Zero(target), nil
		default:
			return reflect.Value{}, fmt.Errorf("cannot store nil as %s", target)
		}
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(target) {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot store %T as %s", value, target)
}
