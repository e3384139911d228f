package sip

import (
	"bytes"
	"sort"
	"strings"
)

type ParamType int

const (
	// UriParams are the ';'-separated parameters of a URI.
	UriParams ParamType = 1
	// HeaderParams are the ';'-separated extra fields of a header.
	HeaderParams ParamType = 2
	// AuthParams are the ','-separated fields of auth-class headers.
	AuthParams ParamType = 3
)

// Params is an ordered list of (name, value) pairs parsed from a parameter
// string. Names are stored lower-cased; a nil value marks a flag-only
// parameter with no '='.
//
// Mutation is not synchronized internally; a Params instance must not be
// shared between goroutines without external locking.
type Params struct {
	params     map[string]MaybeString
	paramOrder []string
	pType      ParamType
}

// NewParams creates an empty set of parameters.
func NewParams(pt ParamType) *Params {
	return &Params{
		params:     make(map[string]MaybeString),
		paramOrder: []string{},
		pType:      pt,
	}
}

func (p *Params) Type() ParamType {
	return p.pType
}

// Keys returns the parameter names in insertion order.
func (p *Params) Keys() []string {
	return p.paramOrder
}

// Get returns the requested parameter value.
func (p *Params) Get(key string) (MaybeString, bool) {
	v, ok := p.params[strings.ToLower(key)]
	return v, ok
}

// Add puts a parameter, keeping insertion order for new names.
// Returns the receiver so calls can be chained.
func (p *Params) Add(key string, val MaybeString) *Params {
	key = strings.ToLower(key)
	if _, ok := p.params[key]; !ok {
		p.paramOrder = append(p.paramOrder, key)
	}
	p.params[key] = val
	return p
}

func (p *Params) Remove(key string) *Params {
	key = strings.ToLower(key)
	if _, ok := p.params[key]; ok {
		for i, k := range p.paramOrder {
			if k == key {
				p.paramOrder = append(p.paramOrder[:i], p.paramOrder[i+1:]...)
				break
			}
		}
		delete(p.params, key)
	}
	return p
}

func (p *Params) Has(key string) bool {
	_, ok := p.params[strings.ToLower(key)]
	return ok
}

func (p *Params) Length() int {
	if p == nil {
		return 0
	}
	return len(p.params)
}

// Clone copies the parameter list, never aliasing the original.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	dup := NewParams(p.pType)
	for _, key := range p.paramOrder {
		dup.Add(key, p.params[key])
	}
	return dup
}

// String serializes the parameters. Pairs are sorted lexicographically by
// name; a parameter with an absent or empty value serializes as the bare
// name. Header parameter values containing characters outside the token set
// are double-quoted.
func (p *Params) String() string {
	if p == nil {
		return ""
	}
	sep := byte(';')
	keys := make([]string, len(p.paramOrder))
	copy(keys, p.paramOrder)
	switch p.pType {
	case AuthParams:
		sep = ','
	default:
		sort.Strings(keys)
	}

	var buffer bytes.Buffer
	for i, key := range keys {
		if i > 0 {
			buffer.WriteByte(sep)
		}
		buffer.WriteString(key)
		val := p.params[key]
		if val == nil || val.String() == "" {
			continue
		}
		buffer.WriteByte('=')
		if p.pType == HeaderParams && !isToken(val.String()) {
			buffer.WriteByte('"')
			buffer.WriteString(val.String())
			buffer.WriteByte('"')
		} else {
			buffer.WriteString(val.String())
		}
	}
	return buffer.String()
}

// Equals checks that two parameter lists hold the same names with the same
// values, ignoring order.
func (p *Params) Equals(other *Params) bool {
	if p == nil || other == nil {
		return p.Length() == other.Length()
	}
	if p.Length() != other.Length() {
		return false
	}
	for key, val := range p.params {
		oVal, ok := other.params[key]
		if !ok {
			return false
		}
		if !IsStringEqual(val, oVal) {
			return false
		}
	}
	return true
}

// ParseParams scans a name=value list separated by delimiter, honoring
// double-quoted values. At each position the next '=' and next delimiter are
// located; an '=' occurring first starts a valued parameter, otherwise the
// text up to the delimiter is a flag name. A quoted value swallows embedded
// delimiters; an unbalanced quote degrades to "value runs to end of input".
// Empty names are skipped.
func ParseParams(source string, delimiter byte, pt ParamType) *Params {
	params := NewParams(pt)
	length, index := len(source), 0
	for index < length {
		sep1 := strings.IndexByte(source[index:], '=')
		if sep1 >= 0 {
			sep1 += index
		}
		sep2 := strings.IndexByte(source[index:], delimiter)
		if sep2 < 0 {
			sep2 = length
		} else {
			sep2 += index
		}

		var name string
		var value MaybeString
		if sep1 >= 0 && sep1 < sep2 {
			// "a=b" or "a=b<delim>..." forms.
			name = strings.ToLower(strings.TrimSpace(source[index:sep1]))
			if sep1+1 < length && source[sep1+1] == '"' {
				// Quoted value: runs to the matching close quote, which may
				// swallow delimiters. No close quote degrades to end of input.
				sep1++
				if q := strings.IndexByte(source[sep1+1:], '"'); q >= 0 {
					sep2 = sep1 + 1 + q
				} else {
					sep2 = -1
				}
			}
			switch {
			case sep1+1 >= length:
				value = String{}
				index = length
			case sep2 >= 0:
				value = String{Str: strings.TrimSpace(source[sep1+1 : sep2])}
				index = sep2 + 1
			default:
				value = String{Str: strings.TrimSpace(source[sep1+1:])}
				index = length
			}
		} else {
			// "a" or "a<delim>b=c" forms: a bare flag with no value.
			name = strings.ToLower(strings.TrimSpace(source[index:sep2]))
			index = sep2 + 1
		}
		if name != "" {
			params.Add(name, value)
		}
	}
	return params
}

// isToken reports whether every byte of s is in the unquoted parameter value
// set [a-zA-Z0-9-_.=].
func isToken(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == '=':
		default:
			return false
		}
	}
	return true
}
