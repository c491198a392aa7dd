package util

// Set tracks membership of comparable values
type Set[K comparable] map[K]struct{}

// Add adds an element to the set
func (s Set[K]) Add(key K) {
	s[key] = struct{}{}
}

// Remove removes an element from the set
func (s Set[K]) Remove(key K) {
	delete(s, key)
}

// Contains returns true if the element exists in the set
func (s Set[K]) Contains(key K) bool {
	_, exists := s[key]
	return exists
}

// Items returns the elements as a slice, in no particular order
func (s Set[K]) Items() []K {
	res := make([]K, 0, len(s))
	for key := range s {
		res = append(res, key)
	}
	return res
}
