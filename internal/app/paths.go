package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .xtags/ project directory.
type Paths struct {
	Root   string // .xtags/
	DB     string // .xtags/tags.db
	Config string // .xtags/config.hcl
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".xtags")
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "tags.db"),
		Config: filepath.Join(root, "config.hcl"),
	}
}

// EnsureDirs creates the .xtags/ directory. Idempotent.
func (p *Paths) EnsureDirs() error {
	return os.MkdirAll(p.Root, 0755)
}

// ConfigFile returns the project config path when one exists. A YAML file
// is used when there is no HCL file.
func (p *Paths) ConfigFile() (string, bool) {
	for _, candidate := range []string{
		p.Config,
		filepath.Join(p.Root, "config.yaml"),
		filepath.Join(p.Root, "config.yml"),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
