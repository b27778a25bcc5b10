package ingest

import (
	"encoding/json"
	"testing"

	"github.com/corey/xtags/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords_Valid(t *testing.T) {
	recs, isArray, err := DecodeRecords(json.RawMessage(` [{"name":"a","kind":"k","line":3,"scope":"x"},{"line":1,"kind":"k","name":"b"}]`))
	require.NoError(t, err)
	assert.True(t, isArray)
	assert.Equal(t, []ports.TagRecord{{Name: "a", Kind: "k", Line: 3}, {Name: "b", Kind: "k", Line: 1}}, recs)
}

func TestDecodeRecords_EmptyArray(t *testing.T) {
	recs, isArray, err := DecodeRecords(json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.True(t, isArray)
	assert.Empty(t, recs)
}

func TestDecodeRecords_NotArray(t *testing.T) {
	for _, raw := range []string{`{}`, `null`, `"tags"`, `42`, ``} {
		recs, isArray, err := DecodeRecords(json.RawMessage(raw))
		assert.NoError(t, err, raw)
		assert.False(t, isArray, raw)
		assert.Nil(t, recs, raw)
	}
}

func TestDecodeRecords_Malformed(t *testing.T) {
	bad := map[string]string{
		"missing line":   `[{"name":"a","kind":"k"}]`,
		"missing name":   `[{"kind":"k","line":1}]`,
		"missing kind":   `[{"name":"a","line":1}]`,
		"line as string": `[{"name":"a","kind":"k","line":"1"}]`,
		"fractional":     `[{"name":"a","kind":"k","line":1.5}]`,
		"name as number": `[{"name":1,"kind":"k","line":1}]`,
		"null kind":      `[{"name":"a","kind":null,"line":1}]`,
		"not an object":  `[1]`,
		"null element":   `[null]`,
		"key case":       `[{"Name":"a","kind":"k","line":1}]`,
	}
	for name, raw := range bad {
		t.Run(name, func(t *testing.T) {
			_, isArray, err := DecodeRecords(json.RawMessage(raw))
			assert.True(t, isArray)
			assert.ErrorIs(t, err, ErrMalformedTag)
		})
	}
}

func TestSortByLine_Stable(t *testing.T) {
	recs := []ports.TagRecord{
		{Name: "z", Line: 9},
		{Name: "first", Line: 2},
		{Name: "second", Line: 2},
		{Name: "a", Line: 1},
		{Name: "third", Line: 2},
	}
	SortByLine(recs)
	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"a", "first", "second", "third", "z"}, names)
}
