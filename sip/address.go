package sip

import (
	"bytes"
	"regexp"
	"strings"
)

// Address is a display name plus URI, or the special wildcard '*' used in
// Contact headers when expiring registrations. A wildcard address carries
// no display name and no URI.
type Address struct {
	DisplayName MaybeString
	Uri         *Uri
	Wildcard    bool
	// MustQuote forces the URI into <angle brackets> even without a
	// display name, as address-class headers require.
	MustQuote bool
}

// The three address grammar alternatives, tried in order with first match
// winning: unquoted display name, quoted display name, bare URI.
var addressSyntax = []*regexp.Regexp{
	regexp.MustCompile(`^(?P<name>[a-zA-Z0-9._+~ \t-]*)<(?P<uri>[^>]+)>`),
	regexp.MustCompile(`^(?:"(?P<name>[^"]+)")[ \t]*<(?P<uri>[^>]+)>`),
	regexp.MustCompile(`^[ \t]*(?P<name>)(?P<uri>[^;]+)`),
}

// ParseAddress parses an address from the front of value and returns the
// number of input characters consumed, letting the caller continue scanning
// trailing parameters. A leading '*' is the wildcard and consumes exactly
// one character.
func ParseAddress(value string) (*Address, int, error) {
	if strings.HasPrefix(value, "*") {
		return &Address{Wildcard: true}, 1, nil
	}
	for _, syntax := range addressSyntax {
		idx := syntax.FindStringSubmatchIndex(value)
		if idx == nil {
			continue
		}
		addr := &Address{}
		if name := submatch(value, idx, 1); name != "" {
			addr.DisplayName = String{Str: strings.TrimSpace(name)}
		}
		uri, err := ParseUri(strings.TrimSpace(submatch(value, idx, 2)))
		if err != nil {
			return nil, 0, err
		}
		addr.Uri = uri
		return addr, idx[1], nil
	}
	return nil, 0, &InvalidUriError{Uri: value}
}

func submatch(s string, idx []int, n int) string {
	if idx[2*n] < 0 {
		return ""
	}
	return s[idx[2*n]:idx[2*n+1]]
}

// String serializes the address: the display name double-quoted when
// present, the URI wrapped in angle brackets when a display name is present
// or MustQuote is set, and a bare URI otherwise.
func (addr *Address) String() string {
	if addr.Wildcard {
		return "*"
	}
	var buffer bytes.Buffer
	hasName := addr.DisplayName != nil && addr.DisplayName.String() != ""
	if hasName {
		buffer.WriteByte('"')
		buffer.WriteString(addr.DisplayName.String())
		buffer.WriteByte('"')
	}
	if addr.Uri != nil {
		uri := addr.Uri.String()
		if addr.MustQuote || hasName {
			uri = "<" + uri + ">"
		}
		if hasName {
			buffer.WriteByte(' ')
		}
		buffer.WriteString(uri)
	}
	return buffer.String()
}

// Clone duplicates the address.
func (addr *Address) Clone() *Address {
	if addr == nil {
		return nil
	}
	return &Address{
		DisplayName: addr.DisplayName,
		Uri:         addr.Uri.Clone(),
		Wildcard:    addr.Wildcard,
		MustQuote:   addr.MustQuote,
	}
}

func (addr *Address) Equals(other *Address) bool {
	if addr == nil || other == nil {
		return addr == other
	}
	return addr.Wildcard == other.Wildcard &&
		IsStringEqual(addr.DisplayName, other.DisplayName) &&
		addr.Uri.Equals(other.Uri)
}

// Displayable returns a human-readable form limited to 25 characters.
func (addr *Address) Displayable() string {
	return addr.GetDisplayable(25)
}

// GetDisplayable returns the display name, user or host, truncated with an
// ellipsis past the given limit.
func (addr *Address) GetDisplayable(limit int) string {
	var name string
	switch {
	case addr.DisplayName != nil && addr.DisplayName.String() != "":
		name = addr.DisplayName.String()
	case addr.Uri != nil && addr.Uri.User != nil && addr.Uri.User.String() != "":
		name = addr.Uri.User.String()
	case addr.Uri != nil:
		name = addr.Uri.Host
	}
	if len(name) < limit {
		return name
	}
	return name[:limit-3] + "..."
}
