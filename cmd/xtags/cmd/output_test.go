package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/corey/xtags/internal/app"
	"github.com/corey/xtags/internal/config"
	"github.com/corey/xtags/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteKinds(t *testing.T) {
	reg, err := app.BuildRegistry(config.Config{
		Kinds: "section:s:d,cite:c:r:c.:%{Extern.encodedName} @%n,todo::o",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	writeKinds(&buf, reg.Kinds())
	assert.Equal(t,
		"s  section          def   -        %C\n"+
			"c  cite             ref   c.       %{Extern.encodedName} @%n\n"+
			"-  todo             other -        %C\n",
		buf.String())
}

func TestFormatLookup(t *testing.T) {
	hits := []ports.StoredTag{
		{Name: "knuth 84", EncodedName: "c.knuth%2084", Kind: "cite", Role: "ref", File: "paper.tex", Line: 3, Summary: "c.knuth%2084 @3"},
	}
	assert.Equal(t, "paper.tex:3  cite/ref  c.knuth%2084  c.knuth%2084 @3\n", formatLookup(hits, false))
	assert.Contains(t, formatLookup(hits, true), colorCyan+"paper.tex:3"+colorReset)
}

func TestOutputMode(t *testing.T) {
	assert.Equal(t, "tags file", outputMode(false, ""))
	assert.Equal(t, "xref (default format)", outputMode(true, ""))
	assert.Equal(t, "xref %N", outputMode(false, "%N"))
}

func TestResolveColor(t *testing.T) {
	assert.True(t, resolveColor("always"))
	assert.False(t, resolveColor("never"))
}

func TestIsDBLockError(t *testing.T) {
	assert.False(t, isDBLockError(nil))
	assert.False(t, isDBLockError(errors.New("bbolt open: permission denied")))
	assert.True(t, isDBLockError(errors.New("bbolt open: timeout")))
}
