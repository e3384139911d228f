package sip

import (
	"fmt"
)

// Port number
type Port uint16

func (port *Port) Clone() *Port {
	if port == nil {
		return nil
	}
	newPort := *port
	return &newPort
}

// MaybeString is a wrapper for an optional string value.
// A nil MaybeString means the value is absent, which is distinct from the
// empty string for fields like display names and flag-only parameters.
type MaybeString interface {
	String() string
}

type String struct {
	Str string
}

func (str String) String() string {
	return str.Str
}

// IsStringEqual compares two MaybeStrings, treating nil as absent.
func IsStringEqual(a, b MaybeString) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// InvalidUriError is returned when a URI matches neither the main grammar
// nor the urn fallback grammar.
type InvalidUriError struct {
	Uri string
}

func (err *InvalidUriError) Error() string {
	return fmt.Sprintf("invalid URI(%s)", err.Uri)
}

// InvalidFirstLineError is returned when the start line of a message is
// missing or cannot be split into its three parts.
type InvalidFirstLineError struct {
	Line string
}

func (err *InvalidFirstLineError) Error() string {
	if err.Line == "" {
		return "no first line found"
	}
	return fmt.Sprintf("malformed first line '%s'", err.Line)
}

// MissingHeaderError is returned after a parse when one of the mandatory
// headers (To, From, CSeq, Call-ID) is absent. Name holds the first missing
// canonical header name.
type MissingHeaderError struct {
	Name string
}

func (err *MissingHeaderError) Error() string {
	return fmt.Sprintf("mandatory header %s missing", err.Name)
}

// ContentLengthError is returned when the declared Content-Length does not
// match the actual body length, or the declared value is not an integer.
type ContentLengthError struct {
	Declared string
	Actual   int
}

func (err *ContentLengthError) Error() string {
	return fmt.Sprintf("invalid content-length %s!=%d", err.Declared, err.Actual)
}

// InvalidViaAccessError is returned when the Via-derived URI accessor is
// invoked on a header that is not a Via header.
type InvalidViaAccessError struct {
	Name string
}

func (err *InvalidViaAccessError) Error() string {
	return fmt.Sprintf("via URI available only on Via header, not %s", err.Name)
}
