package ports

// Host is the source-indexing engine that owns input files and tag output.
// The bridge drives it for one file at a time: it advances the input-line
// cursor, creates entries, attaches derived fields and submits them.
type Host interface {
	// InputLineNumber returns the line the cursor is on (0 before the
	// first ReadLine of a file).
	InputLineNumber() int

	// ReadLine advances the cursor by one line. Returns false once the
	// input is exhausted.
	ReadLine() bool

	// RoleEnabled reports whether the role at roleIndex of kind is enabled
	// in the host's configuration.
	RoleEnabled(kind *KindSpec, roleIndex int) bool

	// NewEntry starts a definition entry at the current cursor line.
	NewEntry(name string, kind *KindSpec) *Entry

	// NewRefEntry starts a reference entry at the current cursor line.
	NewRefEntry(name string, kind *KindSpec, roleIndex int) *Entry

	// AttachField attaches a lazily rendered field to the entry.
	AttachField(e *Entry, name string, render FieldRenderer)

	// MakeEntry submits the entry for output.
	MakeEntry(e *Entry) error

	// RenderTemplate renders a format string against an entry with the
	// host's template engine.
	RenderTemplate(format string, e *Entry) (string, error)

	// SetXrefFormat replaces the host's cross-reference output template
	// for the rest of the run.
	SetXrefFormat(format string) error
}
