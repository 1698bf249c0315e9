package autoindex

import "strings"

// NormalizePath turns a raw page path into a lookup key: one leading slash is
// removed, then a leading two-letter locale segment ("en/", "DE/") if present.
// Anything else passes through unchanged.
func NormalizePath(raw string) string {
	p := strings.TrimPrefix(raw, "/")
	if len(p) >= 3 && isASCIILetter(p[0]) && isASCIILetter(p[1]) && p[2] == '/' {
		p = p[3:]
	}
	return p
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
