package core

// Identified is anything with a stable numeric id.
type Identified interface {
	Key() int64
}

// IndexedSet is an ordered collection holding at most one element per id.
// The zero value is an empty set ready to use. It is not safe for
// concurrent use.
type IndexedSet[T Identified] struct {
	items []T
}

// NewIndexedSet builds a set from items; later duplicates replace earlier ones.
func NewIndexedSet[T Identified](items ...T) *IndexedSet[T] {
	s := &IndexedSet[T]{items: make([]T, 0, len(items))}
	for _, it := range items {
		s.Upsert(it)
	}
	return s
}

func (s *IndexedSet[T]) indexOf(id int64) int {
	for i, it := range s.items {
		if it.Key() == id {
			return i
		}
	}
	return -1
}

// Upsert replaces the element with the same id in place, or appends it.
// Applying the same element twice leaves the set unchanged.
func (s *IndexedSet[T]) Upsert(item T) (inserted bool) {
	if i := s.indexOf(item.Key()); i >= 0 {
		s.items[i] = item
		return false
	}
	s.items = append(s.items, item)
	return true
}

// Prepend places item at the head, or replaces it in place when present.
func (s *IndexedSet[T]) Prepend(item T) (inserted bool) {
	if i := s.indexOf(item.Key()); i >= 0 {
		s.items[i] = item
		return false
	}
	s.items = append([]T{item}, s.items...)
	return true
}

// Replace swaps in item only when an element with its id exists.
func (s *IndexedSet[T]) Replace(item T) bool {
	i := s.indexOf(item.Key())
	if i < 0 {
		return false
	}
	s.items[i] = item
	return true
}

// Remove deletes the element with id, reporting whether one existed.
func (s *IndexedSet[T]) Remove(id int64) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

func (s *IndexedSet[T]) Get(id int64) Lookup[T] {
	if i := s.indexOf(id); i >= 0 {
		return Found(s.items[i])
	}
	return NotFound[T]()
}

// Items returns a copy of the elements in order.
func (s *IndexedSet[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *IndexedSet[T]) Len() int { return len(s.items) }

// Reset replaces the contents with items.
func (s *IndexedSet[T]) Reset(items []T) {
	s.items = make([]T, 0, len(items))
	for _, it := range items {
		s.Upsert(it)
	}
}
