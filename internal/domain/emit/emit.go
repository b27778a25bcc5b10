// Package emit turns a resolved tag record into a host entry carrying the
// bridge's two derived fields, encodedName and summary.
package emit

import (
	"errors"
	"fmt"

	"github.com/corey/xtags/internal/domain/encode"
	"github.com/corey/xtags/internal/ports"
)

// Language is the parser name under which the derived fields are exposed,
// e.g. %{Extern.summary}.
const Language = "Extern"

const (
	FieldEncodedName = Language + ".encodedName"
	FieldSummary     = Language + ".summary"
)

// defaultSummary is the host's compact input line field.
const defaultSummary = "%C"

var ErrTemplate = errors.New("summary template failed")

// PrefixIndex answers prefix-collision questions about configured kinds.
type PrefixIndex interface {
	CollidingPrefix(kindName, name string) bool
}

// Options controls pattern synthesis.
type Options struct {
	Backward           bool
	PatternLengthLimit int
}

// Formatter emits entries for one host.
type Formatter struct {
	host     ports.Host
	prefixes PrefixIndex
	opts     Options
}

// NewFormatter creates a formatter writing to host.
func NewFormatter(host ports.Host, prefixes PrefixIndex, opts Options) *Formatter {
	return &Formatter{host: host, prefixes: prefixes, opts: opts}
}

// Emit creates and submits the entry for rec. Kinds without roles produce
// definitions; kinds with a role produce references through it, unless the
// host has the role disabled, in which case nothing is emitted and Emit
// returns false.
func (f *Formatter) Emit(kind *ports.KindSpec, rec ports.TagRecord) (bool, error) {
	var e *ports.Entry
	if !kind.HasRoles() {
		e = f.host.NewEntry(rec.Name, kind)
	} else {
		if !f.host.RoleEnabled(kind, 0) {
			return false, nil
		}
		e = f.host.NewRefEntry(rec.Name, kind, 0)
	}

	e.Pattern = encode.Pattern(rec.Name, encode.PatternOptions{
		Backward:    f.opts.Backward,
		LengthLimit: f.opts.PatternLengthLimit,
	})

	f.host.AttachField(e, FieldEncodedName, f.renderEncodedName)
	f.host.AttachField(e, FieldSummary, f.renderSummary)

	if err := f.host.MakeEntry(e); err != nil {
		return false, err
	}
	return true, nil
}

// EncodedName returns the encoded form of name for kind.
func (f *Formatter) EncodedName(kind *ports.KindSpec, name string) string {
	force := kind.Prefix == "" && f.prefixes.CollidingPrefix(kind.Name, name)
	return encode.Name(kind.Prefix, name, force)
}

func (f *Formatter) renderEncodedName(e *ports.Entry) (string, error) {
	return f.EncodedName(e.Kind, e.Name), nil
}

func (f *Formatter) renderSummary(e *ports.Entry) (string, error) {
	format := e.Kind.SummaryFormat
	if format == "" {
		format = defaultSummary
	}
	s, err := f.host.RenderTemplate(format, e)
	if err != nil {
		return "", fmt.Errorf("%w: kind %q: %v", ErrTemplate, e.Kind.Name, err)
	}
	return s, nil
}
