package sip

import (
	"strings"

	"github.com/YiuTerran/go-common/base/structs/set"
)

// Header name canonicalization and header class membership.
// Header values are parsed differently depending on which class the
// canonical name falls into: address, comma, unstructured or standard.

var (
	// Compact header forms, expanded on input and never re-compacted on
	// output (RFC 3261 S. 7.3.3).
	shortForms = map[string]string{
		"u": "allow-events",
		"i": "call-id",
		"m": "contact",
		"e": "content-encoding",
		"l": "content-length",
		"c": "content-type",
		"o": "event",
		"f": "from",
		"s": "subject",
		"k": "supported",
		"t": "to",
		"v": "via",
	}

	// Names whose canonical form does not follow per-segment capitalization.
	canonExceptions = map[string]string{
		"call-id":          "Call-ID",
		"cseq":             "CSeq",
		"www-authenticate": "WWW-Authenticate",
		"x-real-ip":        "X-Real-IP",
	}

	addressHeaders = set.NewSet(
		"contact", "from", "record-route", "refer-to", "referred-by", "route", "to")

	commaHeaders = set.NewSet(
		"allow", "authorization", "proxy-authenticate", "proxy-authorization", "www-authenticate")

	unstructuredHeaders = set.NewSet(
		"call-id", "cseq", "date", "expires", "max-forwards", "organization",
		"server", "subject", "timestamp", "user-agent")

	// Only the first occurrence of these headers is kept during a parse.
	singletonHeaders = set.NewSet(
		"call-id", "content-disposition", "content-length", "content-type",
		"cseq", "date", "expires", "event", "max-forwards", "organization",
		"refer-to", "referred-by", "server", "session-expires", "subject",
		"timestamp", "to", "user-agent")
)

// CanonicalName normalizes a header name to its canonical capitalized form.
// Compact forms expand to their long equivalent first, then the exception
// table applies, then each hyphen-separated segment is capitalized.
// Any input produces a deterministic output.
func CanonicalName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if len(s) == 1 {
		if long, ok := shortForms[s]; ok {
			s = long
		}
	}
	if canon, ok := canonExceptions[s]; ok {
		return canon
	}
	parts := strings.Split(s, "-")
	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, "-")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsCommaHeader reports whether the named header keeps a comma-separated
// value as one logical header instead of splitting it.
func IsCommaHeader(name string) bool {
	return commaHeaders.Contains(strings.ToLower(name))
}

// IsSingletonHeader reports whether only the first parsed occurrence of the
// named header is retained.
func IsSingletonHeader(name string) bool {
	return singletonHeaders.Contains(strings.ToLower(name))
}
