package sip

import (
	"bytes"
	"fmt"
	"strconv"
)

// Message is one SIP request or response: a start line, an ordered
// collection of headers keyed by canonical name, and an optional body.
// Exactly one of Method (request) or StatusCode (response) is set.
//
// Every header name maps to an ordered list of Header instances, even for
// names that only ever occur once. Lookups canonicalize the queried name,
// so access is case-insensitive and accepts compact forms; unknown names
// yield nil results, never a panic.
type Message struct {
	// Request fields.
	Method string
	Uri    *Uri
	// Response fields.
	StatusCode int
	Reason     string

	Protocol string

	names   []string
	headers map[string][]*Header
	body    string
}

func NewMessage() *Message {
	return &Message{
		headers: make(map[string][]*Header),
	}
}

func (msg *Message) IsRequest() bool {
	return msg.Method != ""
}

func (msg *Message) IsResponse() bool {
	return msg.StatusCode != 0
}

// IsFinal reports whether this message is a final response.
func (msg *Message) IsFinal() bool {
	return msg.StatusCode >= 200
}

// First returns the first header with the given name, or nil.
func (msg *Message) First(name string) *Header {
	hs := msg.headers[CanonicalName(name)]
	if len(hs) == 0 {
		return nil
	}
	return hs[0]
}

// All returns every header instance for the given names, in field insertion
// order.
func (msg *Message) All(names ...string) []*Header {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[CanonicalName(name)] = true
	}
	var hs []*Header
	for _, name := range msg.names {
		if wanted[name] {
			hs = append(hs, msg.headers[name]...)
		}
	}
	return hs
}

// Headers returns every header instance in field insertion order.
func (msg *Message) Headers() []*Header {
	var hs []*Header
	for _, name := range msg.names {
		hs = append(hs, msg.headers[name]...)
	}
	return hs
}

func (msg *Message) Has(name string) bool {
	return len(msg.headers[CanonicalName(name)]) > 0
}

// Insert adds a header instance under its canonical name: appended after
// any existing instances when appendLast is set, prepended otherwise.
func (msg *Message) Insert(header *Header, appendLast bool) {
	if header == nil || header.Name() == "" {
		return
	}
	name := header.Name()
	existing, ok := msg.headers[name]
	if !ok {
		msg.names = append(msg.names, name)
		msg.headers[name] = []*Header{header}
		return
	}
	if appendLast {
		msg.headers[name] = append(existing, header)
	} else {
		msg.headers[name] = append([]*Header{header}, existing...)
	}
}

// Delete removes every instance of the named header.
func (msg *Message) Delete(name string) {
	name = CanonicalName(name)
	if _, ok := msg.headers[name]; !ok {
		return
	}
	delete(msg.headers, name)
	for i, n := range msg.names {
		if n == name {
			msg.names = append(msg.names[:i], msg.names[i+1:]...)
			break
		}
	}
}

// DeleteAt removes the instance at the given position (negative counts from
// the end). An out-of-range position is ignored.
func (msg *Message) DeleteAt(name string, position int) {
	canonical := CanonicalName(name)
	hs := msg.headers[canonical]
	if position < 0 {
		position += len(hs)
	}
	if position < 0 || position >= len(hs) {
		return
	}
	hs = append(hs[:position], hs[position+1:]...)
	if len(hs) == 0 {
		msg.Delete(canonical)
	} else {
		msg.headers[canonical] = hs
	}
}

// Body returns the message body.
func (msg *Message) Body() string {
	return msg.body
}

// SetBody assigns the body and rewrites the Content-Length header to the
// body's byte length.
func (msg *Message) SetBody(body string) {
	msg.body = body
	msg.replace(&Header{
		name: "Content-Length",
		Text: strconv.Itoa(len(body)),
	})
}

func (msg *Message) replace(header *Header) {
	if header.Params == nil {
		header.Params = NewParams(HeaderParams)
	}
	name := header.Name()
	if _, ok := msg.headers[name]; !ok {
		msg.names = append(msg.names, name)
	}
	msg.headers[name] = []*Header{header}
}

// StartLine returns the request or status line without a terminator, or the
// empty string for an incomplete message.
func (msg *Message) StartLine() string {
	switch {
	case msg.IsRequest():
		return fmt.Sprintf("%s %s %s", msg.Method, msg.Uri.String(), msg.Protocol)
	case msg.IsResponse():
		return fmt.Sprintf("%s %d %s", msg.Protocol, msg.StatusCode, msg.Reason)
	}
	return ""
}

// Short returns a one-line description for logging.
func (msg *Message) Short() string {
	if line := msg.StartLine(); line != "" {
		return line
	}
	return "<incomplete message>"
}

// String serializes the message to its wire form: the start line, every
// header instance in field insertion order, a blank line, then the body.
func (msg *Message) String() string {
	startLine := msg.StartLine()
	if startLine == "" {
		return ""
	}
	var buffer bytes.Buffer
	buffer.WriteString(startLine)
	buffer.WriteString("\r\n")
	for _, header := range msg.Headers() {
		buffer.WriteString(header.String())
		buffer.WriteString("\r\n")
	}
	buffer.WriteString("\r\n")
	buffer.WriteString(msg.body)
	return buffer.String()
}

// Clone duplicates the message, its headers and its body.
func (msg *Message) Clone() *Message {
	if msg == nil {
		return nil
	}
	newMsg := NewMessage()
	newMsg.Method = msg.Method
	newMsg.Uri = msg.Uri.Clone()
	newMsg.StatusCode = msg.StatusCode
	newMsg.Reason = msg.Reason
	newMsg.Protocol = msg.Protocol
	for _, header := range msg.Headers() {
		newMsg.Insert(header.Clone(), true)
	}
	newMsg.body = msg.body
	return newMsg
}

func populate(msg *Message, headers []*Header, body string) {
	for _, header := range headers {
		msg.Insert(header, true)
	}
	if body != "" {
		msg.SetBody(body)
	} else {
		msg.replace(&Header{name: "Content-Length", Text: "0"})
	}
}

// NewRequest builds a request message with protocol SIP/2.0, appending the
// supplied headers. An existing CSeq header whose method does not match is
// rewritten to the request method.
func NewRequest(method string, recipient *Uri, headers []*Header, body string) *Message {
	msg := NewMessage()
	msg.Method = method
	msg.Uri = recipient
	msg.Protocol = "SIP/2.0"
	populate(msg, headers, body)
	if cseq := msg.First("CSeq"); cseq != nil && cseq.Method != method {
		msg.replace(&Header{name: "CSeq", SeqNo: cseq.SeqNo, Method: method})
	}
	return msg
}

// NewResponse builds a response message with protocol SIP/2.0. When basedOn
// is supplied, To, From, CSeq, Call-ID and Via are copied from it, and
// Timestamp is copied as well for a 100 response.
func NewResponse(statusCode int, reason string, headers []*Header, body string, basedOn *Message) *Message {
	msg := NewMessage()
	msg.StatusCode = statusCode
	msg.Reason = reason
	msg.Protocol = "SIP/2.0"
	if basedOn != nil {
		copied := []string{"To", "From", "CSeq", "Call-ID", "Via"}
		if statusCode == 100 {
			copied = append(copied, "Timestamp")
		}
		for _, name := range copied {
			for _, header := range basedOn.All(name) {
				msg.Insert(header.Clone(), true)
			}
		}
	}
	populate(msg, headers, body)
	return msg
}
