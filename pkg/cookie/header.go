package cookie

import (
	"net/url"
	"strings"
)

// Cookies parses a raw Cookie header the way Ruby's CGI::Cookie.parse does
// and keeps the first value of each cookie. Pairs are separated by ";" and at
// most one whitespace character, a pair's name and value by its first "=".
// Pairs without "=" are ignored. A value is split into "&" separated parts,
// and the parts of a repeated name are appended to the earlier ones, so
// "a=; a=X" reads as "X".
func Cookies(header string) map[string]string {
	jar := make(map[string]string)
	for name, parts := range parse(header) {
		jar[name] = first(parts)
	}
	return jar
}

// CookieValue returns the decoded value of the cookie named key.
func CookieValue(header, key string) (string, bool) {
	parts, ok := parse(header)[key]
	return first(parts), ok
}

func parse(header string) map[string][]string {
	jar := make(map[string][]string)
	for _, pair := range splitPairs(header) {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		jar[name] = append(jar[name], valueParts(raw)...)
	}
	return jar
}

func splitPairs(header string) []string {
	pairs := strings.Split(header, ";")
	for i, p := range pairs {
		if i > 0 && p != "" && isSpace(p[0]) {
			pairs[i] = p[1:]
		}
	}
	return pairs
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// valueParts splits raw on "&" without trailing empty parts, as Ruby's
// String#split does, and decodes each part.
func valueParts(raw string) []string {
	parts := strings.Split(raw, "&")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = unescape(p)
	}
	return parts
}

func first(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// unescape decodes "+" as a space and every valid %XX escape. Invalid
// escapes are kept as they are.
func unescape(s string) string {
	if !strings.ContainsAny(s, "+%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c <= '9':
		return c - '0'
	case c >= 'a':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// escape form-encodes a cookie value like Rack does when writing.
func escape(s string) string {
	return url.QueryEscape(s)
}
