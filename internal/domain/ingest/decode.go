package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/corey/xtags/internal/ports"
)

var ErrMalformedTag = errors.New("cannot parse tag object")

// DecodeRecords decodes one tagger answer. isArray is false, with no error,
// when the answer is valid JSON but not an array: a tagger may report
// nothing that way. Every element of an array must be an object with a
// string "name", a string "kind" and an integer "line"; other members are
// ignored.
func DecodeRecords(raw json.RawMessage) (records []ports.TagRecord, isArray bool, err error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrMalformedTag, err)
	}

	records = make([]ports.TagRecord, 0, len(elems))
	for i, elem := range elems {
		rec, err := decodeRecord(elem)
		if err != nil {
			return nil, true, fmt.Errorf("%w: element %d: %v", ErrMalformedTag, i, err)
		}
		records = append(records, rec)
	}
	return records, true, nil
}

func decodeRecord(elem json.RawMessage) (ports.TagRecord, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(elem, &obj); err != nil || obj == nil {
		return ports.TagRecord{}, fmt.Errorf("not an object")
	}

	var rec ports.TagRecord
	if err := member(obj, "name", &rec.Name); err != nil {
		return rec, err
	}
	if err := member(obj, "kind", &rec.Kind); err != nil {
		return rec, err
	}
	var line int64
	if err := member(obj, "line", &line); err != nil {
		return rec, err
	}
	rec.Line = int(line)
	return rec, nil
}

// member decodes a required, non-null object member. Keys match exactly.
func member(obj map[string]json.RawMessage, key string, dst any) error {
	v, ok := obj[key]
	if !ok {
		return fmt.Errorf("missing %q", key)
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return fmt.Errorf("%q is null", key)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%q: %v", key, err)
	}
	return nil
}

// SortByLine orders records by ascending line. The sort is stable: records
// on the same line keep the order the tagger reported them in.
func SortByLine(records []ports.TagRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Line < records[j].Line
	})
}
