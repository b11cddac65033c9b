package mutate

// Field is a tagged three-state choice for optionally-updatable fields:
// Keep (leave unchanged), Clear (reset to zero), Set (write value). Every
// optional field of every update operation uses this shape, so "nil" never
// has to mean two different things.
type Field[T any] struct {
	set   bool
	clear bool
	value T
}

func Keep[T any]() Field[T] { return Field[T]{} }

func Clear[T any]() Field[T] { return Field[T]{clear: true} }

func Set[T any](v T) Field[T] { return Field[T]{set: true, value: v} }

func (f Field[T]) IsKeep() bool  { return !f.set && !f.clear }
func (f Field[T]) IsClear() bool { return f.clear }
func (f Field[T]) IsSet() bool   { return f.set }

// Value returns the set value; the zero value when not Set.
func (f Field[T]) Value() T { return f.value }

// apply resolves the field against the current value, returning the new
// value and whether it differs.
func (f Field[T]) apply(current T, equal func(a, b T) bool) (T, bool) {
	switch {
	case f.set:
		return f.value, !equal(current, f.value)
	case f.clear:
		var zero T
		return zero, !equal(current, zero)
	default:
		return current, false
	}
}
