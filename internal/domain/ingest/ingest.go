// Package ingest drives one file through the bridge: it asks the tagger for
// the file's tags, orders them by line, moves the host's line cursor to each
// tag and hands known kinds to the entry formatter.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/corey/xtags/internal/ports"
)

// KindResolver looks kinds up by the name the tagger reports.
type KindResolver interface {
	ByName(name string) *ports.KindSpec
}

// Emitter creates the host entry for a resolved record.
type Emitter interface {
	Emit(kind *ports.KindSpec, rec ports.TagRecord) (bool, error)
}

// Options configures an Ingestor.
type Options struct {
	// XrefFormat, when set, replaces the host's cross-reference template
	// once the tagger first answers with an array.
	XrefFormat string
	Logger     *slog.Logger
}

// Result counts what happened to one file's records.
type Result struct {
	Records int // elements in the tagger's answer
	Emitted int // entries submitted to the host
	Unknown int // records whose kind is not registered
	Skipped int // records whose role is disabled
}

// Ingestor processes files one at a time. Not safe for concurrent use.
type Ingestor struct {
	ch      ports.Channel
	kinds   KindResolver
	host    ports.Host
	emitter Emitter
	opts    Options
	xrefSet bool
}

// New creates an Ingestor.
func New(ch ports.Channel, kinds KindResolver, host ports.Host, emitter Emitter, opts Options) *Ingestor {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Ingestor{ch: ch, kinds: kinds, host: host, emitter: emitter, opts: opts}
}

// ProcessFile tags one file. The host must already have the file open.
// A malformed record aborts before any entry of the file is made.
func (in *Ingestor) ProcessFile(path string) (Result, error) {
	var res Result

	raw, err := in.ch.Exchange(path)
	if errors.Is(err, ports.ErrNoResponse) {
		in.opts.Logger.Warn("parser gave no usable answer", "file", path, "error", err)
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("exchange %s: %w", path, err)
	}

	records, isArray, err := DecodeRecords(raw)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	if !isArray {
		in.opts.Logger.Debug("parser answer is not an array", "file", path)
		return res, nil
	}

	if in.opts.XrefFormat != "" && !in.xrefSet {
		if err := in.host.SetXrefFormat(in.opts.XrefFormat); err != nil {
			return res, fmt.Errorf("xref format: %w", err)
		}
		in.xrefSet = true
	}

	res.Records = len(records)
	SortByLine(records)

	for _, rec := range records {
		for in.host.InputLineNumber() < rec.Line {
			if !in.host.ReadLine() {
				break
			}
		}

		kind := in.kinds.ByName(rec.Kind)
		if kind == nil {
			res.Unknown++
			in.opts.Logger.Debug("dropping tag of unknown kind", "file", path, "name", rec.Name, "kind", rec.Kind)
			continue
		}

		ok, err := in.emitter.Emit(kind, rec)
		if err != nil {
			return res, fmt.Errorf("%s:%d: %w", path, rec.Line, err)
		}
		if ok {
			res.Emitted++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}
