// Package ahocorasick provides multi-pattern prefix matching using an
// Aho-Corasick automaton. It wraps the petar-dambovaliev/aho-corasick
// library so the kind registry can test a name against every configured
// prefix in one pass.
package ahocorasick

import (
	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Matcher implements ports.PrefixMatcher.
// Rebuild() compiles an automaton; Leading() returns prefixes found at offset 0.
type Matcher struct {
	automaton aho.AhoCorasick
	index     []int // automaton pattern index -> caller's prefix index
	built     bool
}

// NewMatcher builds a matcher over prefixes.
func NewMatcher(prefixes []string) *Matcher {
	m := &Matcher{}
	m.Rebuild(prefixes)
	return m
}

// Rebuild replaces the automaton with a new set of prefixes.
// Empty prefixes are skipped; they would match every string.
func (m *Matcher) Rebuild(prefixes []string) {
	patterns := make([]string, 0, len(prefixes))
	m.index = m.index[:0]
	for i, p := range prefixes {
		if p == "" {
			continue
		}
		patterns = append(patterns, p)
		m.index = append(m.index, i)
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	m.automaton = builder.Build(patterns)
	m.built = len(patterns) > 0
}

// Leading returns the caller indexes of every prefix that s starts with.
// Overlapping iteration is required: "_" and "__" can both lead "__x".
func (m *Matcher) Leading(s string) []int {
	if !m.built || s == "" {
		return nil
	}
	var result []int
	iter := m.automaton.IterOverlappingByte([]byte(s))
	for next := iter.Next(); next != nil; next = iter.Next() {
		if next.Start() != 0 {
			continue
		}
		result = append(result, m.index[next.Pattern()])
	}
	return result
}
