package kinds

import (
	"testing"

	"github.com/corey/xtags/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, ports.RoleDefinition, ParseRole("d"))
	assert.Equal(t, ports.RoleDefinition, ParseRole("definition"))
	assert.Equal(t, ports.RoleReference, ParseRole("r"))
	assert.Equal(t, ports.RoleReference, ParseRole("reference"))
	assert.Equal(t, ports.RoleOther, ParseRole("other"))
	assert.Equal(t, ports.RoleDefinition, ParseRole(""))
	assert.Equal(t, ports.RoleDefinition, ParseRole("x"))
}

func TestParseKinds_FullEntries(t *testing.T) {
	r := New()
	err := ParseKinds(r, "function:f:d::,citation:c:r:cite\\:%{Extern.encodedName} at %n")
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	f := r.ByName("function")
	assert.Equal(t, byte('f'), f.Letter)
	assert.Equal(t, ports.RoleDefinition, f.Role)
	assert.Equal(t, "", f.Prefix)

	c := r.ByName("citation")
	assert.Equal(t, ports.RoleReference, c.Role)
	assert.Equal(t, "cite\\", c.Prefix)
	assert.Equal(t, "%{Extern.encodedName} at %n", c.SummaryFormat)
}

func TestParseKinds_SummaryKeepsColons(t *testing.T) {
	r := New()
	require.NoError(t, ParseKinds(r, "label:l:o:lbl.:%N: %C"))
	k := r.ByName("label")
	assert.Equal(t, "lbl.", k.Prefix)
	assert.Equal(t, "%N: %C", k.SummaryFormat)
	assert.Equal(t, ports.RoleOther, k.Role)
}

func TestParseKinds_TrailingFieldsOptional(t *testing.T) {
	r := New()
	require.NoError(t, ParseKinds(r, "function:f,macro:m:d,"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, ports.RoleDefinition, r.ByName("macro").Role)
	assert.Equal(t, ports.RoleDefinition, r.ByName("function").Role)
}

func TestParseKinds_LetterIsFirstByte(t *testing.T) {
	r := New()
	require.NoError(t, ParseKinds(r, "section:sec:d"))
	assert.Equal(t, byte('s'), r.ByName("section").Letter)
}

func TestParseKinds_MissingLetterStillRegisters(t *testing.T) {
	r := New()
	require.NoError(t, ParseKinds(r, "orphan"))
	k := r.ByName("orphan")
	require.NotNil(t, k)
	assert.Equal(t, byte(0), k.Letter)

	require.NoError(t, ParseKinds(r, "blank::r"))
	assert.Equal(t, ports.RoleReference, r.ByName("blank").Role)
}

func TestParseKinds_Errors(t *testing.T) {
	r := New()
	assert.ErrorIs(t, ParseKinds(r, ":f:d"), ErrNoKindName)
	assert.ErrorIs(t, ParseKinds(r, "k:f:d:a%b"), ErrInvalidPrefix)

	r = New()
	assert.ErrorIs(t, ParseKinds(r, "k:f,k:g"), ErrDuplicateKind)
}

func TestParseKinds_Empty(t *testing.T) {
	r := New()
	require.NoError(t, ParseKinds(r, ""))
	assert.Equal(t, 0, r.Len())
}
