package urlpattern

import (
	"path"
	"strings"
)

const encodedSlash = "%2F"

// ContextRelativePath returns requestURI relative to contextPath, normalized for matching.
//
// Percent escapes are decoded, except for %2F which is kept so that an encoded slash is never
// treated as a segment boundary. Dot segments are resolved and cannot climb above the root.
// The query string is kept as is.
//
// It returns false if requestURI is empty or is not under contextPath.
// If requestURI is contextPath itself, the relative path is "/".
func ContextRelativePath(contextPath, requestURI string) (string, bool) {
	if requestURI == "" {
		return "", false
	}

	p, query, hasQuery := strings.Cut(requestURI, "?")
	p = cleanPath(NormalizePath(p))

	contextPath = strings.TrimSuffix(contextPath, "/")
	rel, ok := strings.CutPrefix(p, contextPath)
	if !ok {
		return "", false
	}

	switch {
	case rel == "":
		rel = "/"
	case rel[0] != '/':
		// /app must not match /application
		return "", false
	}

	if hasQuery {
		rel += "?" + query
	}
	return rel, true
}

// NormalizePath decodes the valid percent escapes in p, other than %2F, and encodes
// every byte outside of the allowed set again.
//
// A % that does not start a valid escape is encoded as %25.
// Letters, digits and -._~!$&'()*+,;=:@/ are never encoded.
func NormalizePath(p string) string {
	var sb strings.Builder
	sb.Grow(len(p))

	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '%' && i+2 < len(p) && isHex(p[i+1]) && isHex(p[i+2]) {
			decoded := unhex(p[i+1])<<4 | unhex(p[i+2])
			i += 2

			if decoded == '/' {
				sb.WriteString(encodedSlash)
				continue
			}
			c = decoded
		}

		if shouldEscape(c) {
			sb.WriteByte('%')
			sb.WriteByte(upperHex[c>>4])
			sb.WriteByte(upperHex[c&0xF])
			continue
		}
		sb.WriteByte(c)
	}

	return sb.String()
}

// cleanPath resolves dot segments like [path.Clean] but keeps a trailing slash.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}

	cleaned := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

const upperHex = "0123456789ABCDEF"

func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}

	switch c {
	case '-', '.', '_', '~', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', ':', '@', '/':
		return false
	}
	return true
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
