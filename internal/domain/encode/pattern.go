package encode

// PatternOptions controls search-pattern synthesis.
type PatternOptions struct {
	Backward    bool // delimit with '?' instead of '/'
	LengthLimit int  // 0 disables the cap
}

// maxExtraContinuation bounds how many UTF-8 continuation bytes may follow
// the length limit, so a multi-byte character is not cut in half while
// non-UTF-8 input still terminates.
const maxExtraContinuation = 3

// Pattern turns a tag name into a search pattern such as /name/.
//
// Backslashes and the delimiter are escaped, as are a '^' at the start and a
// '$' at the end or at the length limit. CR and LF become spaces, except a
// final one, which ends the pattern. Once the pattern is longer than the
// limit no more characters are copied, apart from the continuation bytes of
// the character in progress; an escape that would land on the limit stops
// the pattern instead.
func Pattern(name string, opts PatternOptions) string {
	delim := byte('/')
	if opts.Backward {
		delim = '?'
	}
	limit := opts.LengthLimit

	out := make([]byte, 0, 2*len(name)+2)
	out = append(out, delim)
	extra := 0

	for i := 0; i < len(name); i++ {
		c := name[i]
		last := i+1 == len(name)

		if limit != 0 && len(out) > limit {
			if c&0xC0 != 0x80 {
				break
			}
			extra++
			if extra > maxExtraContinuation {
				break
			}
		}

		if c == '\\' || c == delim ||
			(c == '^' && len(out) == 1) ||
			(c == '$' && (last || len(out) == limit)) {
			if len(out) == limit {
				break
			}
			out = append(out, '\\')
		}

		if c == '\r' || c == '\n' {
			if last {
				break
			}
			out = append(out, ' ')
		} else {
			out = append(out, c)
		}
	}

	out = append(out, delim)
	return string(out)
}
