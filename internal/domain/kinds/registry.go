// Package kinds holds the user-defined tag kinds of the bridge and their
// format settings (name prefix and summary template).
//
// Kinds are registered once at configuration time and never change
// afterwards. Format settings are keyed by kind name and may be set before,
// after or without a matching kind registration; an unregistered name with a
// prefix still takes part in prefix-collision checks.
package kinds

import (
	"errors"
	"fmt"
	"sync"

	"github.com/corey/xtags/internal/adapters/ahocorasick"
	"github.com/corey/xtags/internal/ports"
)

var (
	ErrNoKindName    = errors.New("kind name is empty")
	ErrNoKindLetter  = errors.New("kind letter is empty")
	ErrDuplicateKind = errors.New("kind already defined")
	ErrInvalidPrefix = errors.New("prefix must be printable 7-bit ASCII without '%'")
)

var (
	refRoles   = []ports.RoleDef{{Name: "ref", Description: "reference"}}
	otherRoles = []ports.RoleDef{{Name: "other", Description: "other symbol"}}
)

// format is the accumulated prefix/summary override for one kind name.
type format struct {
	kind       string
	prefix     *string
	summaryFmt *string
}

// Registry maps kind names and indexes to KindSpecs.
type Registry struct {
	kinds  []*ports.KindSpec
	byName map[string]*ports.KindSpec

	formats map[string]*format
	order   []string // format kind names in first-set order

	mu      sync.Mutex
	matcher ports.PrefixMatcher
	owners  []string // matcher prefix index -> kind name
	dirty   bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byName:  make(map[string]*ports.KindSpec),
		formats: make(map[string]*format),
	}
}

// Register defines a kind. Reference and other kinds carry exactly one role
// so the kind can later be asked whether it has roles.
func (r *Registry) Register(name string, letter byte, role ports.Role) (*ports.KindSpec, error) {
	if letter == 0 {
		return nil, fmt.Errorf("register %q: %w", name, ErrNoKindLetter)
	}
	return r.define(name, letter, role)
}

// define is Register without the letter check; the kinds option string
// accepts entries that omit the letter.
func (r *Registry) define(name string, letter byte, role ports.Role) (*ports.KindSpec, error) {
	if name == "" {
		return nil, ErrNoKindName
	}
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("register %q: %w", name, ErrDuplicateKind)
	}

	k := &ports.KindSpec{
		Index:  len(r.kinds),
		Name:   name,
		Letter: letter,
		Role:   role,
	}
	switch role {
	case ports.RoleReference:
		k.Roles = refRoles
	case ports.RoleOther:
		k.Roles = otherRoles
	}

	r.kinds = append(r.kinds, k)
	r.byName[name] = k
	return r.merged(k), nil
}

// SetFormat attaches or updates the prefix and/or summary format for a kind
// name. A nil argument leaves the current value alone; passing neither is a
// no-op.
func (r *Registry) SetFormat(name string, prefix, summaryFmt *string) error {
	if name == "" {
		return ErrNoKindName
	}
	if prefix == nil && summaryFmt == nil {
		return nil
	}
	if prefix != nil {
		if err := ValidatePrefix(*prefix); err != nil {
			return fmt.Errorf("kind %q: %w", name, err)
		}
	}

	f, ok := r.formats[name]
	if !ok {
		f = &format{kind: name}
		r.formats[name] = f
		r.order = append(r.order, name)
	}
	if prefix != nil {
		p := *prefix
		f.prefix = &p
		r.mu.Lock()
		r.dirty = true
		r.mu.Unlock()
	}
	if summaryFmt != nil {
		s := *summaryFmt
		f.summaryFmt = &s
	}
	return nil
}

// ValidatePrefix rejects bytes outside 0x21-0x7E and '%'.
func ValidatePrefix(prefix string) error {
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if c < 0x21 || c > 0x7E || c == '%' {
			return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
		}
	}
	return nil
}

// ByIndex returns the kind registered at index, or nil.
func (r *Registry) ByIndex(index int) *ports.KindSpec {
	if index < 0 || index >= len(r.kinds) {
		return nil
	}
	return r.merged(r.kinds[index])
}

// ByName returns the kind registered under name, or nil.
func (r *Registry) ByName(name string) *ports.KindSpec {
	k, ok := r.byName[name]
	if !ok {
		return nil
	}
	return r.merged(k)
}

// Kinds returns every registered kind in registration order.
func (r *Registry) Kinds() []*ports.KindSpec {
	out := make([]*ports.KindSpec, len(r.kinds))
	for i, k := range r.kinds {
		out[i] = r.merged(k)
	}
	return out
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	return len(r.kinds)
}

// merged copies k and fills in its format settings.
func (r *Registry) merged(k *ports.KindSpec) *ports.KindSpec {
	out := *k
	if f, ok := r.formats[k.Name]; ok {
		if f.prefix != nil {
			out.Prefix = *f.prefix
		}
		if f.summaryFmt != nil {
			out.SummaryFormat = *f.summaryFmt
		}
	}
	return &out
}

// CollidingPrefix reports whether name starts with the non-empty prefix of
// any kind other than kindName. Such a name, emitted unprefixed, would be
// indistinguishable from a prefixed name of the other kind.
func (r *Registry) CollidingPrefix(kindName, name string) bool {
	r.mu.Lock()
	if r.matcher == nil || r.dirty {
		r.rebuildLocked()
	}
	matcher, owners := r.matcher, r.owners
	r.mu.Unlock()

	for _, i := range matcher.Leading(name) {
		if owners[i] != kindName {
			return true
		}
	}
	return false
}

func (r *Registry) rebuildLocked() {
	prefixes := make([]string, 0, len(r.order))
	owners := make([]string, 0, len(r.order))
	for _, name := range r.order {
		f := r.formats[name]
		if f.prefix == nil || *f.prefix == "" {
			continue
		}
		prefixes = append(prefixes, *f.prefix)
		owners = append(owners, name)
	}
	if r.matcher == nil {
		r.matcher = ahocorasick.NewMatcher(prefixes)
	} else {
		r.matcher.Rebuild(prefixes)
	}
	r.owners = owners
	r.dirty = false
}
