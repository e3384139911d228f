package sip

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/atomic"
)

// Header is a single occurrence of a SIP header: a canonical name, a primary
// value and any extra named parameters. The shape of the primary value
// depends on the header class:
//
//   - address class (To, From, Contact, Route, ...): Addr holds a parsed
//     Address; trailing ';'-separated text becomes Params
//   - comma class (Allow, Authorization, ...): Text holds the raw value,
//     AuthMethod the token before the first space, and Params the
//     ','-separated fields after it
//   - CSeq: SeqNo and Method hold the typed fields
//   - unstructured (Call-ID, Date, ...): Text holds the value verbatim
//   - standard (everything else): Text holds the value up to the first ';',
//     the remainder becomes Params
type Header struct {
	name string

	// Text is the primary value for non-address classes.
	Text string
	// Addr is the primary value for address-class headers.
	Addr *Address
	// SeqNo and Method are the typed CSeq fields.
	SeqNo  uint32
	Method string
	// AuthMethod is the auth scheme token of comma-class headers.
	AuthMethod string
	// Params holds the extra named fields. Keys are lower-cased.
	Params *Params

	// Compute-once cell for the Via-derived URI. Never cloned.
	viaUri atomic.Pointer[Uri]
}

// NewHeader builds a Header from a raw name and value, canonicalizing the
// name and dispatching the value parse on the header class.
func NewHeader(name, value string) (*Header, error) {
	h := &Header{
		name:   CanonicalName(name),
		Params: NewParams(HeaderParams),
	}
	value = strings.TrimSpace(value)
	lower := strings.ToLower(h.name)

	switch {
	case addressHeaders.Contains(lower):
		addr, consumed, err := ParseAddress(value)
		if err != nil {
			return nil, err
		}
		addr.MustQuote = true
		h.Addr = addr
		if rest := value[consumed:]; rest != "" {
			h.Params = ParseParams(rest, ';', HeaderParams)
		}
	case commaHeaders.Contains(lower):
		h.Text = value
		authMethod, rest, _ := strings.Cut(value, " ")
		h.AuthMethod = authMethod
		if rest != "" {
			h.Params = ParseParams(rest, ',', AuthParams)
		}
	case lower == "cseq":
		seqRaw, method, _ := strings.Cut(value, " ")
		seqNo, err := strconv.ParseUint(strings.TrimSpace(seqRaw), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed CSeq value '%s': %w", value, err)
		}
		h.SeqNo = uint32(seqNo)
		h.Method = strings.TrimSpace(method)
	case unstructuredHeaders.Contains(lower):
		h.Text = value
	default:
		primary, rest, _ := strings.Cut(value, ";")
		h.Text = primary
		if rest != "" {
			h.Params = ParseParams(rest, ';', HeaderParams)
		}
	}
	return h, nil
}

// Name returns the canonical header name.
func (h *Header) Name() string {
	return h.name
}

// Value serializes the header value: the primary value's string form
// followed by the ';'-joined extra fields, sorted by name. Comma-class and
// unstructured headers reproduce their value verbatim with no parameter
// section.
func (h *Header) Value() string {
	lower := strings.ToLower(h.name)
	var buffer bytes.Buffer
	switch {
	case addressHeaders.Contains(lower) && h.Addr != nil:
		buffer.WriteString(h.Addr.String())
	case lower == "cseq":
		buffer.WriteString(fmt.Sprintf("%d %s", h.SeqNo, h.Method))
	default:
		buffer.WriteString(h.Text)
	}
	if commaHeaders.Contains(lower) || unstructuredHeaders.Contains(lower) {
		return buffer.String()
	}
	if h.Params.Length() > 0 {
		buffer.WriteByte(';')
		buffer.WriteString(h.Params.String())
	}
	return buffer.String()
}

// String returns the full wire line form, without the line terminator.
func (h *Header) String() string {
	return h.name + ": " + h.Value()
}

// Clone duplicates the header. The Via URI cell starts empty on the copy.
func (h *Header) Clone() *Header {
	if h == nil {
		return nil
	}
	return &Header{
		name:       h.name,
		Text:       h.Text,
		Addr:       h.Addr.Clone(),
		SeqNo:      h.SeqNo,
		Method:     h.Method,
		AuthMethod: h.AuthMethod,
		Params:     h.Params.Clone(),
	}
}

func (h *Header) Equals(other *Header) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.name == other.name && h.Value() == other.Value()
}

// ViaUri derives the effective contact URI of a Via header: the sent-by
// address with a transport parameter, port defaulted to 5060 and overridden
// by a numeric rport parameter, and host overridden by maddr or received
// for unreliable transports. The result is memoized in a compute-once cell;
// the cell is safe for concurrent readers after a single writer fills it.
// Returns *InvalidViaAccessError when invoked on a non-Via header.
func (h *Header) ViaUri() (*Uri, error) {
	if h.name != "Via" {
		return nil, &InvalidViaAccessError{Name: h.name}
	}
	if uri := h.viaUri.Load(); uri != nil {
		return uri, nil
	}

	proto, sentBy, ok := strings.Cut(h.Text, " ")
	if !ok || strings.Contains(sentBy, " ") {
		return nil, fmt.Errorf("malformed Via value '%s'", h.Text)
	}
	protoParts := strings.Split(proto, "/")
	if len(protoParts) < 3 {
		return nil, fmt.Errorf("no transport in Via value '%s'", h.Text)
	}
	transport := strings.ToLower(protoParts[2])

	uri := &Uri{Scheme: "sip", Host: sentBy}
	if host, portRaw, found := strings.Cut(sentBy, ":"); found {
		port, err := strconv.ParseUint(portRaw, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("malformed sent-by port in Via value '%s'", h.Text)
		}
		uri.Host = host
		uri.Port = lo.ToPtr(Port(port))
	}
	uri.Params = NewParams(UriParams).Add("transport", String{Str: transport})

	if uri.Port == nil {
		uri.Port = lo.ToPtr(Port(5060))
	}
	if rport, ok := h.Params.Get("rport"); ok && rport != nil {
		// A non-numeric rport is silently ignored.
		if port, err := strconv.ParseUint(rport.String(), 10, 16); err == nil {
			uri.Port = lo.ToPtr(Port(port))
		}
	}
	switch transport {
	case "tcp", "sctp", "tls":
	default:
		if maddr, ok := h.Params.Get("maddr"); ok && maddr != nil {
			uri.Host = maddr.String()
		} else if received, ok := h.Params.Get("received"); ok && received != nil {
			uri.Host = received.String()
		}
	}

	h.viaUri.Store(uri)
	return uri, nil
}
