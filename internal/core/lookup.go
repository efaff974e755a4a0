package core

// Lookup is the result of fetching a record by id: either the record was
// found or it was not. Callers decide what a miss means.
type Lookup[T any] struct {
	value T
	found bool
}

func Found[T any](v T) Lookup[T] {
	return Lookup[T]{value: v, found: true}
}

func NotFound[T any]() Lookup[T] {
	return Lookup[T]{}
}

// Get returns the record and whether it was found.
func (l Lookup[T]) Get() (T, bool) {
	return l.value, l.found
}

func (l Lookup[T]) IsFound() bool { return l.found }

// OrElse returns the record, or def on a miss.
func (l Lookup[T]) OrElse(def T) T {
	if l.found {
		return l.value
	}
	return def
}
