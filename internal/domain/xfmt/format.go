// Package xfmt compiles and renders tag output templates.
//
// A template is literal text mixed with field specifiers of the form
// %[-][width]X, where X is a one-letter field or a {longname}. Parser
// fields attached to an entry are addressed as {Lang.field}. %% is a
// literal percent sign.
package xfmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/corey/xtags/internal/ports"
)

var ErrSyntax = errors.New("format syntax error")

type renderFunc func(e *ports.Entry) (string, error)

type part struct {
	literal string
	render  renderFunc
	width   int
	left    bool
}

// Format is a compiled template. Safe for concurrent use.
type Format struct {
	source string
	parts  []part
}

var letterFields = map[byte]renderFunc{
	'N': func(e *ports.Entry) (string, error) { return e.Name, nil },
	'F': func(e *ports.Entry) (string, error) { return e.InputFile, nil },
	'P': func(e *ports.Entry) (string, error) { return e.Pattern, nil },
	'C': func(e *ports.Entry) (string, error) { return Compact(e.SourceLine), nil },
	'n': func(e *ports.Entry) (string, error) { return strconv.Itoa(e.LineNumber), nil },
	'K': kindName,
	'z': kindName,
	'k': func(e *ports.Entry) (string, error) {
		if e.Kind == nil || e.Kind.Letter == 0 {
			return "", nil
		}
		return string(e.Kind.Letter), nil
	},
	'R': func(e *ports.Entry) (string, error) {
		if e.IsDefinition() {
			return "D", nil
		}
		return "R", nil
	},
	'r': func(e *ports.Entry) (string, error) { return e.RoleName(), nil },
}

var longFields = map[string]byte{
	"name":    'N',
	"input":   'F',
	"pattern": 'P',
	"compact": 'C',
	"line":    'n',
	"kind":    'K',
	"roles":   'r',
}

func kindName(e *ports.Entry) (string, error) {
	if e.Kind == nil {
		return "", nil
	}
	return e.Kind.Name, nil
}

// Compile parses a template.
func Compile(format string) (*Format, error) {
	f := &Format{source: format}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			f.parts = append(f.parts, part{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		start := i
		i++
		if i >= len(format) {
			return nil, fmt.Errorf("%w: dangling %% at offset %d in %q", ErrSyntax, start, format)
		}
		if format[i] == '%' {
			lit.WriteByte('%')
			continue
		}

		p := part{}
		if format[i] == '-' {
			p.left = true
			i++
		}
		digits := i
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			i++
		}
		if i > digits {
			p.width, _ = strconv.Atoi(format[digits:i])
		}
		if i >= len(format) {
			return nil, fmt.Errorf("%w: incomplete field at offset %d in %q", ErrSyntax, start, format)
		}

		if format[i] == '{' {
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated { at offset %d in %q", ErrSyntax, i, format)
			}
			name := format[i+1 : i+end]
			render, err := longField(name)
			if err != nil {
				return nil, err
			}
			p.render = render
			i += end
		} else {
			render, ok := letterFields[format[i]]
			if !ok {
				return nil, fmt.Errorf("%w: unknown field letter %q in %q", ErrSyntax, format[i], format)
			}
			p.render = render
		}

		flush()
		f.parts = append(f.parts, p)
	}
	flush()
	return f, nil
}

func longField(name string) (renderFunc, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrSyntax)
	}
	if letter, ok := longFields[name]; ok {
		return letterFields[letter], nil
	}
	if !strings.Contains(name, ".") {
		return nil, fmt.Errorf("%w: unknown field %q", ErrSyntax, name)
	}
	// Parser field: rendered by whatever is attached to the entry.
	return func(e *ports.Entry) (string, error) {
		render := e.Field(name)
		if render == nil {
			return "", nil
		}
		return render(e)
	}, nil
}

// Render renders the template against an entry.
func (f *Format) Render(e *ports.Entry) (string, error) {
	var b strings.Builder
	for _, p := range f.parts {
		if p.render == nil {
			b.WriteString(p.literal)
			continue
		}
		v, err := p.render(e)
		if err != nil {
			return "", err
		}
		pad := p.width - len(v)
		if pad > 0 && !p.left {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(v)
		if pad > 0 && p.left {
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	return b.String(), nil
}

// String returns the template source.
func (f *Format) String() string {
	return f.source
}

// Compact squeezes an input line for one-line display: leading whitespace
// is dropped, runs of whitespace become one space, and the line ends at the
// first line break.
func Compact(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	space := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\n' || c == '\r' {
			break
		}
		if c == ' ' || c == '\t' || c == '\f' || c == '\v' {
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
