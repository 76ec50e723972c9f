package update

var defaultApplier = NewStructuralApplier()

// Apply is the pure entrypoint: it resolves path, builds the command tree
// for op and value, and applies it to source, returning the new value.
// Source is never mutated and untouched subtrees are shared by reference.
// An empty path addresses the root itself; combined with push or splice this
// operates on the entire value, which is intentional.
func Apply(source any, op Op, path string, value any) (any, error) {
	return ApplyPath(source, op, ParsePath(path), value)
}

// ApplyPath is Apply for an already-resolved path.
func ApplyPath(source any, op Op, path Path, value any) (any, error) {
	return applyWith(defaultApplier, source, op, path, value)
}

func applyWith(applier Applier, source any, op Op, path Path, value any) (any, error) {
	cmd, err := Build(op, path, value)
	if err != nil {
		return nil, err
	}
	return applier.Apply(source, cmd)
}

// ApplyWithTrace applies like Apply and additionally records provenance: the
// value found at path before the update and the value left there afterwards.
func ApplyWithTrace(source any, op Op, path string, value any) (any, Trace, error) {
	resolved := ParsePath(path)
	before, found := Lookup(source, resolved)
	result, err := ApplyPath(source, op, resolved, value)
	if err != nil {
		return nil, Trace{}, err
	}
	after, _ := Lookup(result, resolved)
	return result, Trace{
		Path:   resolved.String(),
		Op:     op,
		Before: before,
		After:  after,
		Found:  found,
	}, nil
}
