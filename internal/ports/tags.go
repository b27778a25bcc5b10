// Package ports defines the interfaces (contracts) between the tag bridge and
// its collaborators: the host engine, the external tagger channel, storage and
// file watching. Domain logic depends only on these interfaces and types,
// never on concrete adapters.
package ports

// Role classifies how a kind's tags relate to symbol definitions.
type Role int

const (
	RoleDefinition Role = iota
	RoleReference
	RoleOther
)

// String returns the configuration spelling of the role.
func (r Role) String() string {
	switch r {
	case RoleReference:
		return "reference"
	case RoleOther:
		return "other"
	default:
		return "definition"
	}
}

// RoleDef is a role flag registered on a non-definition kind.
type RoleDef struct {
	Name        string // short name used in output ("ref", "other")
	Description string // long name ("reference", "other symbol")
}

// KindSpec describes one user-defined tag kind with its format settings
// merged in. Specs handed out by the registry are copies; mutating them has
// no effect on the registry.
type KindSpec struct {
	Index         int    // registration order, stable for the run
	Name          string // unique kind name as reported by the tagger
	Letter        byte   // one-letter code, 0 when the config omitted it
	Role          Role
	Roles         []RoleDef // empty for definition kinds, one entry otherwise
	Prefix        string    // prepended to the encoded name
	SummaryFormat string    // template for the summary field, "" for default
}

// HasRoles reports whether tags of this kind are emitted as references.
func (k *KindSpec) HasRoles() bool {
	return k != nil && len(k.Roles) > 0
}

// TagRecord is one element of the tagger's JSON answer.
type TagRecord struct {
	Name string
	Kind string
	Line int
}

// RoleDefinitionIndex marks an entry that is a definition, not a reference.
const RoleDefinitionIndex = -1

// FieldRenderer computes a derived field value when the entry is rendered.
type FieldRenderer func(e *Entry) (string, error)

// Field is a parser-specific field attached to an entry.
type Field struct {
	Name   string // qualified name, e.g. "Extern.encodedName"
	Render FieldRenderer
}

// Entry is a host tag entry under construction or queued for output.
type Entry struct {
	Name       string
	Kind       *KindSpec
	RoleIndex  int    // RoleDefinitionIndex or an index into Kind.Roles
	Pattern    string // search pattern including delimiters
	InputFile  string
	LineNumber int
	SourceLine string // raw input line at the cursor when the entry was made
	Fields     []Field
}

// IsDefinition reports whether the entry marks a definition site.
func (e *Entry) IsDefinition() bool {
	return e.RoleIndex == RoleDefinitionIndex
}

// RoleName returns the short role name, or "def" for definitions.
func (e *Entry) RoleName() string {
	if e.IsDefinition() || e.Kind == nil || e.RoleIndex >= len(e.Kind.Roles) {
		return "def"
	}
	return e.Kind.Roles[e.RoleIndex].Name
}

// Field returns the renderer attached under name, or nil.
func (e *Entry) Field(name string) FieldRenderer {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Render
		}
	}
	return nil
}
