// Package engine is the reference host for the tag bridge. It owns the input
// file of the current pass and its line cursor, queues the entries made
// while the file is open, and writes them when the file ends, either as a
// tags file or as cross-reference lines rendered through xfmt templates.
//
// Derived fields attached to entries are rendered only when the entries are
// written, so they always see the final entry.
package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/corey/xtags/internal/domain/xfmt"
	"github.com/corey/xtags/internal/ports"
)

// DefaultXrefFormat mirrors ctags -x output.
const DefaultXrefFormat = "%-16N %-10z %4n %-16F %C"

// maxRenderDepth bounds nested template rendering; a summary template that
// refers to itself would otherwise never finish.
const maxRenderDepth = 8

var (
	ErrNoInput   = errors.New("no input file open")
	ErrRecursion = errors.New("template refers to itself")
)

// Options configures an Engine.
type Options struct {
	Out        io.Writer
	Xref       bool   // write cross-reference lines instead of a tags file
	XrefFormat string // template for xref lines; DefaultXrefFormat when empty

	// DisabledRoles lists roles as "kind.role" (e.g. "citation.ref").
	DisabledRoles []string

	// ExtraFields lists qualified parser fields (e.g. "Extern.summary")
	// appended to tags-file lines as name:value.
	ExtraFields []string

	// Sink, when set, receives each file's entries after they are written.
	Sink func(file string, entries []*ports.Entry) error
}

// Engine implements ports.Host.
type Engine struct {
	opts      Options
	xref      *xfmt.Format
	templates map[string]*xfmt.Format
	disabled  map[string]bool
	depth     int

	// Current input file.
	file  string
	in    *os.File
	r     *bufio.Reader
	line  int
	text  string
	queue []*ports.Entry

	written int
}

// New creates an engine. The xref template is compiled up front so a bad
// format fails before any file is read.
func New(opts Options) (*Engine, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	e := &Engine{
		opts:      opts,
		templates: make(map[string]*xfmt.Format),
		disabled:  make(map[string]bool, len(opts.DisabledRoles)),
	}
	for _, r := range opts.DisabledRoles {
		e.disabled[r] = true
	}
	format := opts.XrefFormat
	if format == "" {
		format = DefaultXrefFormat
	}
	xref, err := xfmt.Compile(format)
	if err != nil {
		return nil, fmt.Errorf("xref format: %w", err)
	}
	e.xref = xref
	return e, nil
}

// Begin opens path and puts the cursor before its first line.
func (e *Engine) Begin(path string) error {
	if e.in != nil {
		return fmt.Errorf("begin %s: %s still open", path, e.file)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	e.file = path
	e.in = f
	e.r = bufio.NewReader(f)
	e.line = 0
	e.text = ""
	e.queue = e.queue[:0]
	return nil
}

// End writes the queued entries of the current file and closes it.
func (e *Engine) End() error {
	if e.in == nil {
		return ErrNoInput
	}
	err := e.flush()
	e.Close()
	return err
}

// Close closes the current input without writing its queued entries.
// Safe to call when nothing is open.
func (e *Engine) Close() {
	if e.in != nil {
		e.in.Close()
	}
	e.in = nil
	e.r = nil
	e.queue = e.queue[:0]
}

// Written returns the number of entries written so far.
func (e *Engine) Written() int {
	return e.written
}

// InputLineNumber returns the cursor's line.
func (e *Engine) InputLineNumber() int {
	return e.line
}

// ReadLine moves the cursor to the next line.
func (e *Engine) ReadLine() bool {
	if e.r == nil {
		return false
	}
	s, err := e.r.ReadString('\n')
	if s == "" && err != nil {
		return false
	}
	e.line++
	e.text = s
	return true
}

// RoleEnabled reports whether kind's role is not disabled.
func (e *Engine) RoleEnabled(kind *ports.KindSpec, roleIndex int) bool {
	if kind == nil || roleIndex < 0 || roleIndex >= len(kind.Roles) {
		return false
	}
	return !e.disabled[kind.Name+"."+kind.Roles[roleIndex].Name]
}

// NewEntry starts a definition entry at the cursor.
func (e *Engine) NewEntry(name string, kind *ports.KindSpec) *ports.Entry {
	return e.NewRefEntry(name, kind, ports.RoleDefinitionIndex)
}

// NewRefEntry starts a reference entry at the cursor.
func (e *Engine) NewRefEntry(name string, kind *ports.KindSpec, roleIndex int) *ports.Entry {
	return &ports.Entry{
		Name:       name,
		Kind:       kind,
		RoleIndex:  roleIndex,
		InputFile:  e.file,
		LineNumber: e.line,
		SourceLine: e.text,
	}
}

// AttachField attaches a lazily rendered field.
func (e *Engine) AttachField(entry *ports.Entry, name string, render ports.FieldRenderer) {
	entry.Fields = append(entry.Fields, ports.Field{Name: name, Render: render})
}

// MakeEntry queues the entry until the file ends.
func (e *Engine) MakeEntry(entry *ports.Entry) error {
	if e.in == nil {
		return ErrNoInput
	}
	e.queue = append(e.queue, entry)
	return nil
}

// RenderTemplate renders format against entry. Compiled templates are cached.
func (e *Engine) RenderTemplate(format string, entry *ports.Entry) (string, error) {
	f, ok := e.templates[format]
	if !ok {
		var err error
		f, err = xfmt.Compile(format)
		if err != nil {
			return "", err
		}
		e.templates[format] = f
	}
	return e.render(f, entry)
}

func (e *Engine) render(f *xfmt.Format, entry *ports.Entry) (string, error) {
	if e.depth >= maxRenderDepth {
		return "", fmt.Errorf("%w: %q", ErrRecursion, f.String())
	}
	e.depth++
	defer func() { e.depth-- }()
	return f.Render(entry)
}

// SetXrefFormat replaces the xref template and switches output to xref
// lines for the rest of the run.
func (e *Engine) SetXrefFormat(format string) error {
	f, err := xfmt.Compile(format)
	if err != nil {
		return err
	}
	e.xref = f
	e.opts.Xref = true
	return nil
}

func (e *Engine) flush() error {
	for _, entry := range e.queue {
		var line string
		var err error
		if e.opts.Xref {
			line, err = e.render(e.xref, entry)
		} else {
			line, err = e.tagsLine(entry)
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", entry.InputFile, entry.LineNumber, err)
		}
		if _, err := io.WriteString(e.opts.Out, line+"\n"); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		e.written++
	}
	if e.opts.Sink != nil {
		entries := make([]*ports.Entry, len(e.queue))
		copy(entries, e.queue)
		if err := e.opts.Sink(e.file, entries); err != nil {
			return err
		}
	}
	return nil
}

// tagsLine formats name<TAB>file<TAB>pattern;"<TAB>kind followed by
// extension fields.
func (e *Engine) tagsLine(entry *ports.Entry) (string, error) {
	var b strings.Builder
	b.WriteString(escapeField(entry.Name))
	b.WriteByte('\t')
	b.WriteString(entry.InputFile)
	b.WriteByte('\t')
	b.WriteString(entry.Pattern)
	b.WriteString(`;"`)
	b.WriteByte('\t')
	if entry.Kind != nil {
		if entry.Kind.Letter != 0 {
			b.WriteByte(entry.Kind.Letter)
		} else {
			b.WriteString("kind:" + entry.Kind.Name)
		}
	}
	if !entry.IsDefinition() {
		b.WriteString("\troles:" + entry.RoleName())
	}
	for _, name := range e.opts.ExtraFields {
		render := entry.Field(name)
		if render == nil {
			continue
		}
		v, err := render(entry)
		if err != nil {
			return "", err
		}
		key := name[strings.LastIndexByte(name, '.')+1:]
		b.WriteString("\t" + key + ":" + escapeField(v))
	}
	return b.String(), nil
}

var fieldEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

func escapeField(s string) string {
	return fieldEscaper.Replace(s)
}
