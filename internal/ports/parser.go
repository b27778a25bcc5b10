package ports

import (
	"encoding/json"
	"errors"
)

// ErrNoResponse means the tagger produced no decodable answer for a request.
// Callers treat it like an answer carrying no tags.
var ErrNoResponse = errors.New("no parsable response from parser")

// Channel carries file requests to an external tagger and returns its raw
// answers. The concrete implementation (a long-lived child process) lives in
// internal/adapters/subprocess.
type Channel interface {
	// Exchange sends one file path and returns exactly one JSON value read
	// back from the tagger. The first call starts the tagger.
	Exchange(path string) (json.RawMessage, error)

	// Close releases the tagger. Safe to call multiple times; every call
	// after the first is a no-op.
	Close() error
}
