// Package encode derives the text forms of a tag name: the percent-encoded
// name written to tag output and the search pattern used to locate the tag.
package encode

import "strings"

const hexDigits = "0123456789ABCDEF"

// Name returns prefix+name with every byte of name outside 0x21-0x7E, and
// every '%', written as %XX. The prefix is copied verbatim (it is validated
// at configuration time). A leading '!' is always encoded because it sorts
// with pseudo-tags; forceFirst encodes the first byte whatever it is.
func Name(prefix, name string, forceFirst bool) string {
	var b strings.Builder
	b.Grow(len(prefix) + 3*len(name))
	b.WriteString(prefix)

	for i := 0; i < len(name); i++ {
		c := name[i]
		if i == 0 && (forceFirst || c == '!') {
			writeEscaped(&b, c)
			continue
		}
		if needsEscape(c) {
			writeEscaped(&b, c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func needsEscape(c byte) bool {
	return c < 0x21 || c > 0x7E || c == '%'
}

func writeEscaped(b *strings.Builder, c byte) {
	b.WriteByte('%')
	b.WriteByte(hexDigits[c>>4])
	b.WriteByte(hexDigits[c&0x0F])
}
