// Package app wires together all adapters and domain logic.
// It builds the kind registry, the tagger channel, the host engine, the
// ingestor and the optional tag store from one config.Config, drives runs
// over file lists, and tears everything down on every exit path.
package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/corey/xtags/internal/adapters/bbolt"
	"github.com/corey/xtags/internal/adapters/engine"
	fsw "github.com/corey/xtags/internal/adapters/fsnotify"
	"github.com/corey/xtags/internal/adapters/subprocess"
	"github.com/corey/xtags/internal/config"
	"github.com/corey/xtags/internal/domain/emit"
	"github.com/corey/xtags/internal/domain/ingest"
	"github.com/corey/xtags/internal/domain/kinds"
	"github.com/corey/xtags/internal/ports"
)

var ErrNoStore = errors.New("no tag database configured")

// Options carries the process-level plumbing that does not belong in a
// config file.
type Options struct {
	Out    io.Writer    // entries; os.Stdout when nil
	Stderr io.Writer    // tagger's stderr; os.Stderr when nil
	Dir    string       // working directory; the process cwd when empty
	Logger *slog.Logger // built from the config's log settings when nil
}

// Stats accumulates ingestion results over a run.
type Stats struct {
	Files   int
	Records int
	Emitted int
	Unknown int
	Skipped int
}

func (s *Stats) add(r ingest.Result) {
	s.Files++
	s.Records += r.Records
	s.Emitted += r.Emitted
	s.Unknown += r.Unknown
	s.Skipped += r.Skipped
}

// App is the wired bridge. Not safe for concurrent use: every file goes
// through the same tagger process one at a time.
type App struct {
	Config    config.Config
	Dir       string
	Logger    *slog.Logger
	Kinds     *kinds.Registry
	Channel   *subprocess.Channel
	Host      *engine.Engine
	Formatter *emit.Formatter
	Ingestor  *ingest.Ingestor
	Store     *bbolt.Store // nil when cfg.DB is empty

	extensions map[string]bool
	stats      Stats

	closeOnce sync.Once
	closeErr  error
}

// New creates an App from cfg. The tagger is not started until the first
// file is tagged.
func New(cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		opts.Dir = wd
	}
	if opts.Logger == nil {
		opts.Logger = NewLogger(cfg, os.Stderr)
	}

	reg, err := BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Dir:    opts.Dir,
		Logger: opts.Logger,
		Kinds:  reg,
	}
	if len(cfg.Extensions) > 0 {
		a.extensions = make(map[string]bool, len(cfg.Extensions))
		for _, ext := range cfg.Extensions {
			a.extensions[fsw.NormalizeExt(ext)] = true
		}
	}

	if cfg.DB != "" {
		if err := ensureDBDir(opts.Dir, cfg.DB); err != nil {
			return nil, fmt.Errorf("db directory: %w", err)
		}
		store, err := bbolt.NewStore(cfg.DB)
		if err != nil {
			return nil, err
		}
		a.Store = store
	}

	hostOpts := engine.Options{
		Out:           opts.Out,
		Xref:          cfg.Xref,
		DisabledRoles: cfg.DisabledRoles,
		ExtraFields:   cfg.Fields,
	}
	if a.Store != nil {
		hostOpts.Sink = a.storeEntries
	}
	host, err := engine.New(hostOpts)
	if err != nil {
		if a.Store != nil {
			a.Store.Close()
		}
		return nil, err
	}
	a.Host = host

	a.Channel = subprocess.New(subprocess.Options{
		Command: cfg.Parser,
		Dir:     opts.Dir,
		Stderr:  opts.Stderr,
		Logger:  opts.Logger,
	})
	a.Formatter = emit.NewFormatter(host, reg, emit.Options{
		Backward:           cfg.Backward,
		PatternLengthLimit: cfg.PatternLengthLimit,
	})
	a.Ingestor = ingest.New(a.Channel, reg, host, a.Formatter, ingest.Options{
		XrefFormat: cfg.Xformat,
		Logger:     opts.Logger,
	})
	return a, nil
}

// BuildRegistry registers the config file's kind blocks, then the kinds
// option string.
func BuildRegistry(cfg config.Config) (*kinds.Registry, error) {
	reg := kinds.New()
	for _, kb := range cfg.KindBlocks {
		var letter byte
		if kb.Letter != "" {
			letter = kb.Letter[0]
		}
		if _, err := reg.Register(kb.Name, letter, kinds.ParseRole(kb.Role)); err != nil {
			return nil, fmt.Errorf("kind block: %w", err)
		}
		if err := reg.SetFormat(kb.Name, kb.Prefix, kb.Summary); err != nil {
			return nil, fmt.Errorf("kind block: %w", err)
		}
	}
	if err := kinds.ParseKinds(reg, cfg.Kinds); err != nil {
		return nil, fmt.Errorf("kinds: %w", err)
	}
	return reg, nil
}

// ensureDBDir creates the directory holding db. The project's default
// store lives in .xtags/.
func ensureDBDir(dir, db string) error {
	if p := NewPaths(dir); db == p.DB {
		return p.EnsureDirs()
	}
	return os.MkdirAll(filepath.Dir(db), 0755)
}

// Stats returns the totals of every file tagged so far.
func (a *App) Stats() Stats {
	return a.stats
}

// Run tags every file named by paths. Directories are walked recursively,
// skipping VCS, vendor and build directories and, when extensions are
// configured, files without a matching extension. Named files are always
// tagged.
func (a *App) Run(paths []string) (Stats, error) {
	files, err := a.CollectFiles(paths)
	if err != nil {
		return a.stats, err
	}
	for _, f := range files {
		if _, err := a.TagFile(f); err != nil {
			return a.stats, err
		}
	}
	return a.stats, nil
}

// CollectFiles expands paths into the list of files to tag, in walk order.
func (a *App) CollectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && fsw.IgnoreDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && a.wantFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	return files, nil
}

func (a *App) wantFile(path string) bool {
	if a.extensions == nil {
		return true
	}
	return a.extensions[strings.ToLower(filepath.Ext(path))]
}

// TagFile runs one file through the bridge and writes its entries.
func (a *App) TagFile(path string) (ingest.Result, error) {
	path = a.relative(path)
	if err := a.Host.Begin(path); err != nil {
		return ingest.Result{}, err
	}
	res, err := a.Ingestor.ProcessFile(path)
	if err != nil {
		a.Host.Close()
		return res, err
	}
	if err := a.Host.End(); err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	a.stats.add(res)
	a.Logger.Debug("tagged file", "file", path,
		"records", res.Records, "emitted", res.Emitted, "unknown", res.Unknown, "skipped", res.Skipped)
	return res, nil
}

// Forget drops a file's stored tags. A no-op without a store.
func (a *App) Forget(path string) error {
	if a.Store == nil {
		return nil
	}
	return a.Store.DeleteFile(a.relative(path))
}

// Lookup returns the stored tags named name (plain or encoded).
func (a *App) Lookup(name string) ([]ports.StoredTag, error) {
	if a.Store == nil {
		return nil, ErrNoStore
	}
	return a.Store.Lookup(name)
}

// relative rewrites an absolute path under the working directory as a
// relative one, so output and stored keys look the same in every mode.
func (a *App) relative(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	rel, err := filepath.Rel(a.Dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// storeEntries is the host sink: it renders each entry's derived fields and
// replaces the file's stored tags.
func (a *App) storeEntries(file string, entries []*ports.Entry) error {
	tags := make([]ports.StoredTag, 0, len(entries))
	for _, e := range entries {
		t := ports.StoredTag{
			Name:    e.Name,
			Role:    e.RoleName(),
			File:    file,
			Line:    e.LineNumber,
			Pattern: e.Pattern,
		}
		if e.Kind != nil {
			t.Kind = e.Kind.Name
			if e.Kind.Letter != 0 {
				t.Letter = string(e.Kind.Letter)
			}
		}
		var err error
		if t.EncodedName, err = renderField(e, emit.FieldEncodedName); err != nil {
			return err
		}
		if t.Summary, err = renderField(e, emit.FieldSummary); err != nil {
			return err
		}
		tags = append(tags, t)
	}
	if err := a.Store.SaveFile(file, tags); err != nil {
		return fmt.Errorf("store %s: %w", file, err)
	}
	return nil
}

func renderField(e *ports.Entry, name string) (string, error) {
	render := e.Field(name)
	if render == nil {
		return "", nil
	}
	return render(e)
}

// Close stops the tagger and closes the store. Safe to call more than
// once; only the first call does anything.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		if a.Host != nil {
			a.Host.Close()
		}
		if a.Channel != nil {
			if err := a.Channel.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close parser: %w", err))
			}
		}
		if a.Store != nil {
			if err := a.Store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close store: %w", err))
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}
