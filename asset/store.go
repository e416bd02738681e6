// package asset provides generic keyed storage for engine-owned values. Each Store hands out
// opaque ids scoped to the stored type, so a render-target id can never be confused with a
// sequence id at compile time. Stores are plain containers with no global registry; systems
// that need one receive it explicitly.
package asset

// Id is an opaque handle into a Store of the same type parameter.
// Ids are comparable and usable as map keys. An Id is only meaningful
// for the Store that produced it.
type Id[T any] struct {
	index int
}

// Store holds values of a single type keyed by Id. The zero value is not
// usable; create stores with NewStore.
type Store[T any] struct {
	next  int
	items map[int]T
}

// NewStore creates an empty Store.
//
// Returns:
//   - *Store[T]: the newly created store
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		items: make(map[int]T),
	}
}

// AddEmpty reserves an id without storing a value. Get reports absence for
// the id until Replace is called. Useful when an id must be handed out
// before the value can be produced (deferred GPU uploads and the like).
//
// Returns:
//   - Id[T]: the reserved id
func (s *Store[T]) AddEmpty() Id[T] {
	id := Id[T]{index: s.next}
	s.next++
	return id
}

// Add stores a value and returns its id.
//
// Parameters:
//   - value: the value to store
//
// Returns:
//   - Id[T]: the id of the stored value
func (s *Store[T]) Add(value T) Id[T] {
	id := s.AddEmpty()
	s.items[id.index] = value
	return id
}

// Get retrieves the value for an id.
//
// Parameters:
//   - id: the id to look up
//
// Returns:
//   - T: the stored value, or the zero value if absent
//   - bool: true if a value is stored for the id
func (s *Store[T]) Get(id Id[T]) (T, bool) {
	v, ok := s.items[id.index]
	return v, ok
}

// Replace stores a value for an existing id, overwriting any previous value.
// This is how ids reserved with AddEmpty are filled in.
//
// Parameters:
//   - id: the id to store under
//   - value: the value to store
func (s *Store[T]) Replace(id Id[T], value T) {
	s.items[id.index] = value
}

// Remove deletes the value for an id and returns it.
//
// Parameters:
//   - id: the id to remove
//
// Returns:
//   - T: the removed value, or the zero value if absent
//   - bool: true if a value was stored for the id
func (s *Store[T]) Remove(id Id[T]) (T, bool) {
	v, ok := s.items[id.index]
	if ok {
		delete(s.items, id.index)
	}
	return v, ok
}

// Len returns the number of stored values. Ids reserved with AddEmpty but
// never filled do not count.
//
// Returns:
//   - int: the number of stored values
func (s *Store[T]) Len() int {
	return len(s.items)
}
