package sip

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Uri represents a sip:, sips:, tel: or urn: resource locator:
//
//	scheme:user:password@host:port;params?headers
//
// tel: URIs carry the phone number in User with an empty Host; urn: URIs
// keep the opaque part in Host. Two URIs are equal when their lower-cased
// serialized forms match, regardless of how the fields are cased.
type Uri struct {
	Scheme   string
	User     MaybeString
	Password MaybeString
	Host     string
	// The port part of the URI. Optional, so represented as a pointer type.
	Port *Port
	// The ';'-separated parameters following the host[:port] part.
	Params *Params
	// Raw '?'-introduced header strings, '&'-separated, not parsed further.
	Headers []string
}

// The main URI grammar. Alternative ordering matters: the urn form is only
// tried after this fails.
var uriSyntax = regexp.MustCompile(`^(?P<scheme>[a-zA-Z][a-zA-Z0-9+.-]*):` +
	`(?:(?:(?P<user>[a-zA-Z0-9\-_.!~*'()&=+$,;?/%]+)` +
	`(?::(?P<password>[^:@;?]+))?)@)?` +
	`(?:(?:(?P<host>[^;?:]*)(?::(?P<port>[0-9]+))?))` +
	`(?:;(?P<params>[^?]*))?` +
	`(?:\?(?P<headers>.*))?$`)

var urnSyntax = regexp.MustCompile(`^(?P<scheme>urn):(?P<host>[^;?>]+)$`)

// ParseUri converts the string representation of a URI into a Uri.
// Returns *InvalidUriError if neither grammar matches.
func ParseUri(value string) (*Uri, error) {
	uri := &Uri{}
	if m := uriSyntax.FindStringSubmatch(value); m != nil {
		var user, password, host, port, params, headers string
		for i, name := range uriSyntax.SubexpNames() {
			switch name {
			case "scheme":
				uri.Scheme = m[i]
			case "user":
				user = m[i]
			case "password":
				password = m[i]
			case "host":
				host = m[i]
			case "port":
				port = m[i]
			case "params":
				params = m[i]
			case "headers":
				headers = m[i]
			}
		}
		if user != "" {
			uri.User = String{Str: user}
		}
		if password != "" {
			uri.Password = String{Str: password}
		}
		uri.Host = host
		if port != "" {
			portRaw, err := strconv.ParseUint(port, 10, 16)
			if err != nil {
				return nil, &InvalidUriError{Uri: value}
			}
			uri.Port = lo.ToPtr(Port(portRaw))
		}
		if params != "" {
			uri.Params = ParseParams(params, ';', UriParams)
		}
		if headers != "" {
			uri.Headers = strings.Split(headers, "&")
		}
	} else if m := urnSyntax.FindStringSubmatch(value); m != nil {
		uri.Scheme = m[1]
		uri.Host = m[2]
	} else {
		return nil, &InvalidUriError{Uri: value}
	}

	// tel: URIs hold the number in the user slot internally.
	if uri.Scheme == "tel" && uri.User == nil {
		uri.User = String{Str: uri.Host}
		uri.Host = ""
	}
	return uri, nil
}

// String reassembles the wire form of the URI. A URI without a scheme or
// host (the number, for tel:) serializes to the empty string.
func (uri *Uri) String() string {
	user, host := uri.User, uri.Host
	if uri.Scheme == "tel" {
		user = nil
		if uri.User != nil {
			host = uri.User.String()
		}
	}
	if uri.Scheme == "" || host == "" {
		return ""
	}

	var buffer bytes.Buffer
	buffer.WriteString(uri.Scheme)
	buffer.WriteByte(':')
	if user != nil && user.String() != "" {
		buffer.WriteString(user.String())
		if uri.Password != nil && uri.Password.String() != "" {
			buffer.WriteByte(':')
			buffer.WriteString(uri.Password.String())
		}
		buffer.WriteByte('@')
	}
	buffer.WriteString(host)
	if uri.Port != nil {
		buffer.WriteString(fmt.Sprintf(":%d", *uri.Port))
	}
	if uri.Params.Length() > 0 {
		buffer.WriteByte(';')
		buffer.WriteString(uri.Params.String())
	}
	if len(uri.Headers) > 0 {
		buffer.WriteByte('?')
		buffer.WriteString(strings.Join(uri.Headers, "&"))
	}
	return buffer.String()
}

// Key returns the lower-cased serialized form, suitable for hashing and
// map keys. Equality is defined over this form.
func (uri *Uri) Key() string {
	return strings.ToLower(uri.String())
}

// Equals determines if two URIs are equal by comparing their lower-cased
// serialized forms, not field-wise.
func (uri *Uri) Equals(other *Uri) bool {
	if uri == nil || other == nil {
		return uri == other
	}
	return uri.Key() == other.Key()
}

// HostPort returns the read-only (host, port) pair for this URI.
func (uri *Uri) HostPort() (string, *Port) {
	return uri.Host, uri.Port
}

// IsSecure reports whether the scheme is one of the secure variants.
func (uri *Uri) IsSecure() bool {
	return uri.Scheme == "sips" || uri.Scheme == "https"
}

// SetSecure upgrades a sip or http scheme to its secure variant.
// Setting false is a no-op; downgrading is not supported.
func (uri *Uri) SetSecure(flag bool) {
	if flag && (uri.Scheme == "sip" || uri.Scheme == "http") {
		uri.Scheme += "s"
	}
}

// Clone duplicates the URI, never aliasing nested state.
func (uri *Uri) Clone() *Uri {
	if uri == nil {
		return nil
	}
	newUri := &Uri{
		Scheme:   uri.Scheme,
		User:     uri.User,
		Password: uri.Password,
		Host:     uri.Host,
		Port:     uri.Port.Clone(),
		Params:   uri.Params.Clone(),
	}
	if uri.Headers != nil {
		newUri.Headers = make([]string, len(uri.Headers))
		copy(newUri.Headers, uri.Headers)
	}
	return newUri
}
