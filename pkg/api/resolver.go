package api

type (
	// AliasResolver maps a human-readable answer key to the step ID whose
	// answer it names. Implementations return false when the key is not an
	// alias, in which case callers fall back to the raw key
	AliasResolver interface {
		ResolveAlias(Key) (Key, bool)
	}

	// ResolverFunc adapts a function to the AliasResolver interface
	ResolverFunc func(Key) (Key, bool)
)

func (f ResolverFunc) ResolveAlias(key Key) (Key, bool) {
	return f(key)
}

// Resolve maps key through the resolver, falling back to the raw key when
// the resolver is nil or does not know it
func Resolve(r AliasResolver, key Key) Key {
	if r == nil {
		return key
	}
	if resolved, ok := r.ResolveAlias(key); ok {
		return resolved
	}
	return key
}
