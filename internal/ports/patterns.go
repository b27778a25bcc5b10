package ports

// PrefixMatcher finds which of a fixed set of prefixes a string starts with,
// using multi-pattern matching (Aho-Corasick). The registry rebuilds it only
// when the prefix set changes, which happens during configuration.
type PrefixMatcher interface {
	// Leading returns the indexes (into the slice given to Rebuild) of every
	// prefix that matches s at offset 0. Returns nil if none match.
	Leading(s string) []int

	// Rebuild replaces the prefix set. Empty prefixes never match.
	Rebuild(prefixes []string)
}
