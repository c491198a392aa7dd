package api

import (
	"encoding/json"
	"maps"
	"slices"
)

// Set is a set of string-typed identifiers. It marshals to and from a sorted
// JSON array so that evaluation results serialize deterministically
type Set[T ~string] map[T]struct{}

// SetOf creates a new set containing the given elements
func SetOf[T ~string](elements ...T) Set[T] {
	s := make(Set[T], len(elements))
	for _, elem := range elements {
		s[elem] = struct{}{}
	}
	return s
}

// With returns a copy of the set with the element added
func (s Set[T]) With(key T) Set[T] {
	res := maps.Clone(s)
	if res == nil {
		res = Set[T]{}
	}
	res[key] = struct{}{}
	return res
}

// Without returns a copy of the set with the element removed
func (s Set[T]) Without(key T) Set[T] {
	res := maps.Clone(s)
	if res == nil {
		return Set[T]{}
	}
	delete(res, key)
	return res
}

// Contains returns true if the element exists in the set
func (s Set[T]) Contains(key T) bool {
	_, exists := s[key]
	return exists
}

// Len returns the number of elements in the set
func (s Set[T]) Len() int {
	return len(s)
}

// IsEmpty returns true if the set is empty
func (s Set[T]) IsEmpty() bool {
	return len(s) == 0
}

// Clone returns an independent copy of the set
func (s Set[T]) Clone() Set[T] {
	if s == nil {
		return Set[T]{}
	}
	return maps.Clone(s)
}

// Sorted returns the elements of the set in ascending order
func (s Set[T]) Sorted() []T {
	res := make([]T, 0, len(s))
	for k := range s {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}

// Equal returns true if both sets contain the same elements
func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var elems []T
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	*s = SetOf(elems...)
	return nil
}
