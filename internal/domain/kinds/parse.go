package kinds

import (
	"strings"

	"github.com/corey/xtags/internal/ports"
)

// ParseRole classifies a role string by its first letter: 'r' is a
// reference, 'o' an other symbol, anything else a definition.
func ParseRole(role string) ports.Role {
	if role == "" {
		return ports.RoleDefinition
	}
	switch role[0] {
	case 'r':
		return ports.RoleReference
	case 'o':
		return ports.RoleOther
	default:
		return ports.RoleDefinition
	}
}

// ParseKinds registers the kinds described by a kinds option string:
//
//	kind:letter:role:prefix:summaryFmt[,kind:letter:role:prefix:summaryFmt...]
//
// Fields are split on the next ':' from the left, and the summary format
// takes the rest of the entry, so it may contain colons but not commas.
// Trailing fields may be left out. The letter is the first byte of its
// field; an entry without one is still registered. Empty prefix and summary
// fields count as not supplied.
func ParseKinds(r *Registry, spec string) error {
	for _, entry := range strings.Split(spec, ",") {
		if entry == "" {
			continue
		}
		fields := strings.SplitN(entry, ":", 5)
		for len(fields) < 5 {
			fields = append(fields, "")
		}
		name, letterField, role, prefix, summary := fields[0], fields[1], fields[2], fields[3], fields[4]

		var letter byte
		if letterField != "" {
			letter = letterField[0]
		}
		if _, err := r.define(name, letter, ParseRole(role)); err != nil {
			return err
		}

		var p, s *string
		if prefix != "" {
			p = &prefix
		}
		if summary != "" {
			s = &summary
		}
		if err := r.SetFormat(name, p, s); err != nil {
			return err
		}
	}
	return nil
}
