package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/YiuTerran/go-common/base/log"
	"github.com/voicekit/sipmsg/sip"
)

// Mode selects how the parser treats malformed header lines.
type Mode int

const (
	// Strict aborts the whole parse on the first malformed header line.
	Strict Mode = iota
	// Lenient drops malformed header lines, records them as diagnostics and
	// keeps parsing. This is the interoperability mode for broken peers.
	Lenient
)

// SkippedLine is a diagnostic for a header line dropped in lenient mode.
type SkippedLine struct {
	Line string
	Err  error
}

// PacketParser converts the raw bytes of one SIP message into a
// sip.Message. A PacketParser is not safe for concurrent use; the skipped
// diagnostics refer to the most recent ParseMessage call.
type PacketParser struct {
	mode    Mode
	fields  log.Fields
	skipped []SkippedLine
}

func NewPacketParser(mode Mode, fields log.Fields) *PacketParser {
	p := &PacketParser{mode: mode}
	p.fields = log.Fields{
		"parser_ptr": fmt.Sprintf("%p", p),
	}.WithFields(fields).WithPrefix("parser.PacketParser")
	return p
}

// ParseMessage parses a single SIP message in lenient mode with a one-shot
// parser.
func ParseMessage(data []byte, fields log.Fields) (*sip.Message, error) {
	return NewPacketParser(Lenient, fields).ParseMessage(data)
}

// Skipped returns the diagnostics collected during the most recent
// ParseMessage call.
func (pp *PacketParser) Skipped() []SkippedLine {
	return pp.skipped
}

func (pp *PacketParser) String() string {
	if pp == nil {
		return "PacketParser <nil>"
	}
	return fmt.Sprintf("PacketParser %p", pp)
}

// ParseMessage parses the raw text of one SIP message: start line, folded
// headers and optional body. Start-line, Content-Length and
// mandatory-header failures are always fatal; individual header-line
// failures are fatal only in Strict mode.
func (pp *PacketParser) ParseMessage(data []byte) (*sip.Message, error) {
	pp.skipped = nil
	headerBlock, body := splitBody(string(data))

	firstLine, headerLines, ok := strings.Cut(headerBlock, "\n")
	if !ok {
		return nil, &sip.InvalidFirstLineError{}
	}
	firstLine = strings.TrimSuffix(firstLine, "\r")

	msg := sip.NewMessage()
	if err := pp.parseStartLine(msg, firstLine); err != nil {
		return nil, err
	}

	for _, line := range unfoldLines(headerLines) {
		headers, err := pp.parseHeaderLine(line)
		if err != nil {
			if pp.mode == Strict {
				return nil, err
			}
			pp.skipped = append(pp.skipped, SkippedLine{Line: line, Err: err})
			pp.fields.Warn("skip header line '%s' due to error: %s", line, err)
			continue
		}
		storeHeaders(msg, headers)
	}

	if body != "" {
		declared := "0"
		if cl := msg.First("Content-Length"); cl != nil {
			declared = cl.Text
		}
		msg.SetBody(body)
		declaredLen, err := strconv.Atoi(strings.TrimSpace(declared))
		if err != nil || declaredLen != len(body) {
			return nil, &sip.ContentLengthError{Declared: declared, Actual: len(body)}
		}
	}

	for _, name := range []string{"To", "From", "CSeq", "Call-ID"} {
		if !msg.Has(name) {
			return nil, &sip.MissingHeaderError{Name: name}
		}
	}
	return msg, nil
}

// splitBody locates the header/body boundary: the first "\r\n\r\n" or
// "\n\n", whichever occurs earlier when both exist. No boundary means no
// body.
func splitBody(text string) (headerBlock, body string) {
	idxCrlf := strings.Index(text, "\r\n\r\n")
	idxLf := strings.Index(text, "\n\n")
	switch {
	case idxCrlf >= 0 && (idxLf < 0 || idxCrlf < idxLf):
		return text[:idxCrlf], text[idxCrlf+4:]
	case idxLf >= 0:
		return text[:idxLf], text[idxLf+2:]
	}
	return text, ""
}

// parseStartLine splits the start line into three space-delimited tokens.
// A numeric second token makes the message a response, anything else a
// request whose URI must parse.
func (pp *PacketParser) parseStartLine(msg *sip.Message, line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return &sip.InvalidFirstLineError{Line: line}
	}
	if code, err := strconv.Atoi(parts[1]); err == nil {
		msg.Protocol = parts[0]
		msg.StatusCode = code
		msg.Reason = parts[2]
		return nil
	}
	uri, err := sip.ParseUri(parts[1])
	if err != nil {
		return err
	}
	msg.Method = parts[0]
	msg.Uri = uri
	msg.Protocol = parts[2]
	return nil
}

// unfoldLines splits the header block into logical lines: a physical line
// beginning with space or tab continues the previous header line, with its
// leading whitespace intact.
func unfoldLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(lines) > 0 {
				lines[len(lines)-1] += line
			}
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// parseHeaderLine splits a logical header line on the first ':' and builds
// one Header per comma-separated value segment, except for comma-class
// names whose whole value stays one Header.
func (pp *PacketParser) parseHeaderLine(line string) ([]*sip.Header, error) {
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil, fmt.Errorf("field name with no value in header: %s", line)
	}
	name = strings.TrimSpace(name)

	segments := []string{value}
	if !sip.IsCommaHeader(sip.CanonicalName(name)) {
		segments = strings.Split(value, ",")
	}
	headers := make([]*sip.Header, 0, len(segments))
	for _, segment := range segments {
		header, err := sip.NewHeader(name, segment)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}
	return headers, nil
}

// storeHeaders applies the multiplicity rules: a name seen for the first
// time stores all segments; a non-singleton name appends; later lines for a
// singleton name are dropped.
func storeHeaders(msg *sip.Message, headers []*sip.Header) {
	if len(headers) == 0 {
		return
	}
	name := headers[0].Name()
	if msg.Has(name) && sip.IsSingletonHeader(name) {
		return
	}
	for _, header := range headers {
		msg.Insert(header, true)
	}
}
