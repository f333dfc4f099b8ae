package contract

import "strings"

const upperhex = "0123456789ABCDEF"

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// EscapeSegment percent-encodes a single path value. Only RFC 3986 unreserved
// bytes are left as is, so '/', '+', and '&' inside a value are encoded.
func EscapeSegment(s string) string {
	return escape(s, func(c byte) bool { return isUnreserved(c) })
}

// EscapePath percent-encodes a full endpoint path. '/' and '+' are kept, as
// are '&' (subset separator) and existing %XX escapes produced by
// EscapeSegment. Interval and status flush paths carry a literal '+'
// (Three+Months, Pending+Failed) that the server rejects when encoded.
func EscapePath(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case isUnreserved(c), c == '/', c == '+', c == '&':
			b.WriteByte(c)
		case c == '%' && i+2 < len(p) && isHex(p[i+1]) && isHex(p[i+2]):
			b.WriteString(p[i : i+3])
			i += 2
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}
	return b.String()
}

func escape(s string, keep func(byte) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}
