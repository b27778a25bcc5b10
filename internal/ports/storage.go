package ports

// StoredTag is the persisted form of an emitted entry, with its derived
// fields already rendered.
type StoredTag struct {
	Name        string `json:"name"`
	EncodedName string `json:"encoded_name"`
	Kind        string `json:"kind"`
	Letter      string `json:"letter,omitempty"`
	Role        string `json:"role"`
	File        string `json:"file"`
	Line        int    `json:"line"`
	Pattern     string `json:"pattern"`
	Summary     string `json:"summary"`
}

// TagStore persists the tags emitted for each input file.
// The backing store (bbolt) keeps one record per input path. Writes are
// transactional: a crash mid-write must not corrupt committed files.
type TagStore interface {
	// SaveFile replaces all tags stored for path.
	SaveFile(path string, tags []StoredTag) error

	// LoadFile returns the tags stored for path.
	// Returns nil, nil if nothing is stored for it.
	LoadFile(path string) ([]StoredTag, error)

	// DeleteFile removes a file's tags. Idempotent.
	DeleteFile(path string) error

	// Lookup returns every stored tag whose name or encoded name equals
	// name, ordered by file and line.
	Lookup(name string) ([]StoredTag, error)

	// Files lists every stored input path in key order.
	Files() ([]string, error)
}
