// Package sdp models Session Description Protocol bodies carried inside
// signaling messages: a line-oriented "key=value" format whose "m=" lines
// open media sections that own the field lines following them.
//
// Parsing is tolerant: unknown keys are retained in Extra maps rather than
// rejected, and serialization re-emits only the keys of the fixed field
// order, so a round trip normalizes field order without losing the media
// layout.
package sdp

import (
	"bytes"
	"strings"

	"github.com/YiuTerran/go-common/base/structs/set"
)

// Session is one parsed session description. The repeatable keys t, r, a,
// m and b accumulate into ordered lists during parse; every other key is
// last-write-wins within its session or media section.
//
// Singleton string fields carry a Has flag so that an empty value present
// on the wire survives a round trip. Repeat ("r=") lines are collected but
// not re-emitted at session level; they only have meaning under a timing
// field.
type Session struct {
	Version    string
	HasVersion bool
	Origin     *Originator
	Name       string
	HasName    bool
	Info       string
	HasInfo    bool
	URI        string
	HasURI     bool
	Email      string
	HasEmail   bool
	Phone      string
	HasPhone   bool
	Connection *Connection
	Bandwidth  []string
	Timing     []string
	Repeat     []string
	Attributes []string
	Media      []*Media
	Extra      map[string]string

	allowed *set.Set[string]
}

// NewSession returns an empty session with the given attribute whitelist,
// which may be nil to serialize every attribute.
func NewSession(allowed *set.Set[string]) *Session {
	return &Session{allowed: allowed}
}

// Parse parses a full session description. Field lines after an "m=" line
// belong to that media section until the next "m=" line. The allowed set,
// when non-nil, whitelists which "a=" attributes serialization keeps, at
// both session and media level.
func Parse(text string, allowed *set.Set[string]) (*Session, error) {
	s := NewSession(allowed)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line == "" {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		if key == "m" {
			media, err := ParseMedia(value, allowed)
			if err != nil {
				return nil, err
			}
			s.Media = append(s.Media, media)
			continue
		}
		if len(s.Media) > 0 {
			if err := s.Media[len(s.Media)-1].attach(key, value); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.attach(key, value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) attach(key, value string) error {
	switch key {
	case "v":
		s.Version = value
		s.HasVersion = true
	case "o":
		origin, err := ParseOriginator(value)
		if err != nil {
			return err
		}
		s.Origin = origin
	case "s":
		s.Name = value
		s.HasName = true
	case "i":
		s.Info = value
		s.HasInfo = true
	case "u":
		s.URI = value
		s.HasURI = true
	case "e":
		s.Email = value
		s.HasEmail = true
	case "p":
		s.Phone = value
		s.HasPhone = true
	case "c":
		conn, err := ParseConnection(value)
		if err != nil {
			return err
		}
		s.Connection = conn
	case "b":
		s.Bandwidth = append(s.Bandwidth, value)
	case "t":
		s.Timing = append(s.Timing, value)
	case "r":
		s.Repeat = append(s.Repeat, value)
	case "a":
		s.Attributes = append(s.Attributes, value)
	default:
		if s.Extra == nil {
			s.Extra = make(map[string]string)
		}
		s.Extra[key] = value
	}
	return nil
}

// String serializes the session-level fields in the fixed order
// v o s i u e p c b t a, then each media section in turn.
func (s *Session) String() string {
	var buffer bytes.Buffer
	if s.HasVersion {
		writeLine(&buffer, "v", s.Version, nil)
	}
	if s.Origin != nil {
		writeLine(&buffer, "o", s.Origin.String(), nil)
	}
	if s.HasName {
		writeLine(&buffer, "s", s.Name, nil)
	}
	if s.HasInfo {
		writeLine(&buffer, "i", s.Info, nil)
	}
	if s.HasURI {
		writeLine(&buffer, "u", s.URI, nil)
	}
	if s.HasEmail {
		writeLine(&buffer, "e", s.Email, nil)
	}
	if s.HasPhone {
		writeLine(&buffer, "p", s.Phone, nil)
	}
	if s.Connection != nil {
		writeLine(&buffer, "c", s.Connection.String(), nil)
	}
	for _, bandwidth := range s.Bandwidth {
		writeLine(&buffer, "b", bandwidth, nil)
	}
	for _, timing := range s.Timing {
		writeLine(&buffer, "t", timing, nil)
	}
	for _, attribute := range s.Attributes {
		writeLine(&buffer, "a", attribute, s.allowed)
	}
	for _, media := range s.Media {
		buffer.WriteString(media.String())
	}
	return buffer.String()
}

// Clone duplicates the session, its media sections and their fields.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := &Session{
		Version:    s.Version,
		HasVersion: s.HasVersion,
		Origin:     s.Origin.Clone(),
		Name:       s.Name,
		HasName:    s.HasName,
		Info:       s.Info,
		HasInfo:    s.HasInfo,
		URI:        s.URI,
		HasURI:     s.HasURI,
		Email:      s.Email,
		HasEmail:   s.HasEmail,
		Phone:      s.Phone,
		HasPhone:   s.HasPhone,
		Connection: s.Connection.Clone(),
		Bandwidth:  append([]string(nil), s.Bandwidth...),
		Timing:     append([]string(nil), s.Timing...),
		Repeat:     append([]string(nil), s.Repeat...),
		Attributes: append([]string(nil), s.Attributes...),
		allowed:    s.allowed,
	}
	for _, media := range s.Media {
		clone.Media = append(clone.Media, media.Clone())
	}
	if s.Extra != nil {
		clone.Extra = make(map[string]string, len(s.Extra))
		for k, v := range s.Extra {
			clone.Extra[k] = v
		}
	}
	return clone
}
