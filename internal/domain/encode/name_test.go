package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName_PrintableIsIdentity(t *testing.T) {
	assert.Equal(t, "cite:knuth84", Name("cite:", "knuth84", false))
	assert.Equal(t, "main", Name("", "main", false))
}

func TestName_LeadingBang(t *testing.T) {
	assert.Equal(t, "%21foo", Name("", "!foo", false))
	// Only the first character; a prefixed name still encodes it.
	assert.Equal(t, "p%21x!", Name("p", "!x!", false))
}

func TestName_SpaceAndHighBytes(t *testing.T) {
	assert.Equal(t, "A%20B", Name("", "A B", false))
	assert.Equal(t, "caf%C3%A9", Name("", "café", false))
	assert.Equal(t, "%7F%00%09", Name("", "\x7f\x00\t", false))
	assert.Equal(t, "%FF", Name("", "\xff", false))
}

func TestName_PercentIsEncoded(t *testing.T) {
	assert.Equal(t, "50%25", Name("", "50%", false))
}

func TestName_ForceFirst(t *testing.T) {
	assert.Equal(t, "%5Fx", Name("", "_x", true))
	assert.Equal(t, "%20a%20", Name("", " a ", true))
}

func TestName_Empty(t *testing.T) {
	assert.Equal(t, "", Name("", "", true))
	assert.Equal(t, "pre", Name("pre", "", false))
}
