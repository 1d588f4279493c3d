// Package history implements a linear undo/redo stack over immutable
// snapshots.
package history

import "reflect"

// History wraps a snapshot type T with past and future stacks. It is not safe
// for concurrent use.
type History[T any] struct {
	initial T
	past    []T
	present T
	future  []T // future[0] is the next redo
	equal   func(a, b T) bool
	limit   int
}

type Option[T any] func(*History[T])

// WithEqual sets the identity check Set uses to ignore unchanged snapshots.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(h *History[T]) { h.equal = equal }
}

// WithLimit caps the number of undo steps kept. Zero means unlimited.
func WithLimit[T any](n int) Option[T] {
	return func(h *History[T]) { h.limit = n }
}

// New starts a history at initial. Unless WithEqual overrides it, Set
// ignores a snapshot identical to the present: the same backing array for
// slices, the same pointer for pointers and maps, and == for scalars.
// Structs, arrays and interfaces are always recorded.
func New[T any](initial T, opts ...Option[T]) *History[T] {
	h := &History[T]{initial: initial, present: initial, equal: sameRef[T]}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Present is the live snapshot.
func (h *History[T]) Present() T { return h.present }

func (h *History[T]) Past() []T   { return append([]T(nil), h.past...) }
func (h *History[T]) Future() []T { return append([]T(nil), h.future...) }

func (h *History[T]) CanUndo() bool { return len(h.past) > 0 }
func (h *History[T]) CanRedo() bool { return len(h.future) > 0 }

// Set records next as the present snapshot and drops the redo branch. A
// snapshot identical to the present is ignored.
func (h *History[T]) Set(next T) {
	if h.equal != nil && h.equal(h.present, next) {
		return
	}
	h.past = append(h.past, h.present)
	if h.limit > 0 && len(h.past) > h.limit {
		h.past = append([]T(nil), h.past[len(h.past)-h.limit:]...)
	}
	h.present = next
	h.future = nil
}

// Undo steps back one snapshot. It reports false when there is nothing to undo.
func (h *History[T]) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	last := len(h.past) - 1
	h.future = append([]T{h.present}, h.future...)
	h.present = h.past[last]
	h.past = h.past[:last]
	return true
}

// Redo steps forward one snapshot. It reports false when there is nothing to redo.
func (h *History[T]) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	h.past = append(h.past, h.present)
	h.present = h.future[0]
	h.future = h.future[1:]
	return true
}

// Clear returns to the snapshot given to New and forgets all steps.
func (h *History[T]) Clear() {
	h.past = nil
	h.future = nil
	h.present = h.initial
}

// Reset replaces the baseline snapshot, as when a new template is loaded.
func (h *History[T]) Reset(initial T) {
	h.initial = initial
	h.Clear()
}

// SameSlice reports whether a and b share a backing array and length. It is
// the reference-identity check for slice snapshots.
func SameSlice[E any](a, b []E) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func sameRef[T any](a, b T) bool {
	va, vb := reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem()
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return va.Equal(vb)
	}
	return false
}
