package sigv4

import "strings"

const upperHex = "0123456789ABCDEF"

// EscapePathSegments percent-encodes each "/"-separated segment of key with
// the RFC 3986 unreserved set and rejoins them with literal slashes.
func EscapePathSegments(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = EscapeQuery(s)
	}
	return strings.Join(segments, "/")
}

// EscapeQuery percent-encodes s with RFC 3986 rules: everything outside
// A-Z a-z 0-9 "-_.~" is escaped, space becomes %20 and never "+".
func EscapeQuery(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' ||
			c == '-' || c == '_' || c == '.' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}
