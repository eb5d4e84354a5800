package rekordbox

import "strings"

const (
	localhostPrefix = "file://localhost"
	filePrefix      = "file://"
)

// DecodeLocation converts a stored Location attribute into a filesystem path.
//
// The "file://localhost" or "file://" prefix is removed and percent escapes are decoded.
// Malformed escapes are kept as-is and "+" is not treated as a space, so the result is
// always usable as a path string. Existence is not checked.
func DecodeLocation(location string) string {
	switch {
	case strings.HasPrefix(location, localhostPrefix):
		location = location[len(localhostPrefix):]
	case strings.HasPrefix(location, filePrefix):
		location = location[len(filePrefix):]
	}
	return unescape(location)
}

// unescape decodes every valid %XX sequence in s and copies everything else through.
//
// [net/url.PathUnescape] rejects the whole string on the first bad escape, which would
// lose otherwise usable paths.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
