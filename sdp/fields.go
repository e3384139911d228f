package sdp

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/YiuTerran/go-common/base/structs/set"
)

// Originator models the "o=" field: session originator and identifiers.
type Originator struct {
	Username  string
	SessionID int64
	Version   int64
	NetType   string
	AddrType  string
	Address   string
}

// ParseOriginator parses an "o=" value of exactly six space-separated
// fields.
func ParseOriginator(value string) (*Originator, error) {
	parts := strings.Split(value, " ")
	if len(parts) != 6 {
		return nil, fmt.Errorf("malformed originator field '%s'", value)
	}
	sessionID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed originator session id '%s'", parts[1])
	}
	version, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed originator version '%s'", parts[2])
	}
	return &Originator{
		Username:  parts[0],
		SessionID: sessionID,
		Version:   version,
		NetType:   parts[3],
		AddrType:  parts[4],
		Address:   parts[5],
	}, nil
}

// NewOriginator builds an originator for a fresh local session: anonymous
// username, current Unix time as both session id and version, and the local
// hostname as address. A hostname without a domain part falls back to the
// host's resolved address.
func NewOriginator() *Originator {
	now := time.Now().Unix()
	o := &Originator{
		Username:  "-",
		SessionID: now,
		Version:   now,
		NetType:   "IN",
		AddrType:  "IP4",
		Address:   "127.0.0.1",
	}
	hostname, err := os.Hostname()
	if err != nil {
		return o
	}
	if strings.Index(hostname, ".") > 0 {
		o.Address = hostname
	} else if addrs, err := net.LookupHost(hostname); err == nil && len(addrs) > 0 {
		o.Address = addrs[0]
	}
	return o
}

func (o *Originator) String() string {
	return fmt.Sprintf("%s %d %d %s %s %s",
		o.Username, o.SessionID, o.Version, o.NetType, o.AddrType, o.Address)
}

func (o *Originator) Clone() *Originator {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

// Connection models the "c=" field. TTL and Count are optional suffixes of
// the address ("address/ttl/count"); zero means absent.
type Connection struct {
	NetType  string
	AddrType string
	Address  string
	TTL      int
	Count    int
}

// ParseConnection parses a "c=" value of exactly three space-separated
// fields, the last optionally carrying '/'-separated ttl and count.
func ParseConnection(value string) (*Connection, error) {
	parts := strings.Split(value, " ")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed connection field '%s'", value)
	}
	c := &Connection{NetType: parts[0], AddrType: parts[1]}
	rest := strings.Split(parts[2], "/")
	c.Address = rest[0]
	if len(rest) > 1 {
		ttl, err := strconv.Atoi(rest[1])
		if err != nil {
			return nil, fmt.Errorf("malformed connection ttl '%s'", rest[1])
		}
		c.TTL = ttl
	}
	if len(rest) > 2 {
		count, err := strconv.Atoi(rest[2])
		if err != nil {
			return nil, fmt.Errorf("malformed connection count '%s'", rest[2])
		}
		c.Count = count
	}
	return c, nil
}

func (c *Connection) String() string {
	var buffer bytes.Buffer
	buffer.WriteString(c.NetType)
	buffer.WriteByte(' ')
	buffer.WriteString(c.AddrType)
	buffer.WriteByte(' ')
	buffer.WriteString(c.Address)
	if c.TTL != 0 {
		buffer.WriteByte('/')
		buffer.WriteString(strconv.Itoa(c.TTL))
	}
	if c.Count != 0 {
		buffer.WriteByte('/')
		buffer.WriteString(strconv.Itoa(c.Count))
	}
	return buffer.String()
}

func (c *Connection) Clone() *Connection {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Media models one "m=" section: the media line itself plus the field lines
// that physically follow it up to the next "m=" line. Fields not in the
// fixed serialization order (i c b k a) are kept in Extra but never
// re-emitted.
type Media struct {
	Type    string
	Port    int
	Proto   string
	Formats []string

	Info       string
	HasInfo    bool
	Connection *Connection
	Bandwidth  []string
	Key        string
	HasKey     bool
	Attributes []string
	Extra      map[string]string

	allowed *set.Set[string]
}

// ParseMedia parses an "m=" value: media type, port, proto and the
// remaining format list. The allowed set, when non-nil, whitelists which
// "a=" attributes this section serializes.
func ParseMedia(value string, allowed *set.Set[string]) (*Media, error) {
	parts := strings.SplitN(value, " ", 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("malformed media field '%s'", value)
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("malformed media port '%s'", parts[1])
	}
	return &Media{
		Type:    parts[0],
		Port:    port,
		Proto:   parts[2],
		Formats: strings.Split(parts[3], " "),
		allowed: allowed,
	}, nil
}

// NewMedia builds an empty media section with the conventional RTP/AVP
// profile.
func NewMedia(mediaType string, port int, formats ...string) *Media {
	return &Media{
		Type:    mediaType,
		Port:    port,
		Proto:   "RTP/AVP",
		Formats: formats,
	}
}

// SetAllowedAttributes installs the attribute whitelist applied when this
// section serializes.
func (m *Media) SetAllowedAttributes(allowed *set.Set[string]) {
	m.allowed = allowed
}

func (m *Media) attach(key, value string) error {
	switch key {
	case "i":
		m.Info = value
		m.HasInfo = true
	case "c":
		conn, err := ParseConnection(value)
		if err != nil {
			return err
		}
		m.Connection = conn
	case "b":
		m.Bandwidth = append(m.Bandwidth, value)
	case "k":
		m.Key = value
		m.HasKey = true
	case "a":
		m.Attributes = append(m.Attributes, value)
	default:
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		m.Extra[key] = value
	}
	return nil
}

// String serializes the whole section: the "m=" line followed by the
// section's fields in the fixed order i c b k a.
func (m *Media) String() string {
	var buffer bytes.Buffer
	buffer.WriteString("m=")
	buffer.WriteString(m.Type)
	buffer.WriteByte(' ')
	buffer.WriteString(strconv.Itoa(m.Port))
	buffer.WriteByte(' ')
	buffer.WriteString(m.Proto)
	buffer.WriteByte(' ')
	buffer.WriteString(strings.Join(m.Formats, " "))
	buffer.WriteString("\r\n")
	if m.HasInfo {
		writeLine(&buffer, "i", m.Info, nil)
	}
	if m.Connection != nil {
		writeLine(&buffer, "c", m.Connection.String(), nil)
	}
	for _, bandwidth := range m.Bandwidth {
		writeLine(&buffer, "b", bandwidth, nil)
	}
	if m.HasKey {
		writeLine(&buffer, "k", m.Key, nil)
	}
	for _, attribute := range m.Attributes {
		writeLine(&buffer, "a", attribute, m.allowed)
	}
	return buffer.String()
}

func (m *Media) Clone() *Media {
	if m == nil {
		return nil
	}
	clone := &Media{
		Type:       m.Type,
		Port:       m.Port,
		Proto:      m.Proto,
		Formats:    append([]string(nil), m.Formats...),
		Info:       m.Info,
		HasInfo:    m.HasInfo,
		Connection: m.Connection.Clone(),
		Bandwidth:  append([]string(nil), m.Bandwidth...),
		Key:        m.Key,
		HasKey:     m.HasKey,
		Attributes: append([]string(nil), m.Attributes...),
		allowed:    m.allowed,
	}
	if m.Extra != nil {
		clone.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			clone.Extra[k] = v
		}
	}
	return clone
}

// writeLine appends one "key=value\r\n" line. An "a=" line is suppressed
// when a whitelist is configured and the attribute name before ':' is not
// in it.
func writeLine(buffer *bytes.Buffer, key, value string, allowed *set.Set[string]) {
	if key == "a" && allowed != nil {
		name, _, _ := strings.Cut(value, ":")
		if !allowed.Contains(name) {
			return
		}
	}
	buffer.WriteString(key)
	buffer.WriteByte('=')
	buffer.WriteString(value)
	buffer.WriteString("\r\n")
}
