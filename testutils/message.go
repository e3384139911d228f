// Package testutils holds assertion helpers shared by the parser and model
// test suites.
package testutils

import (
	"fmt"
	"strings"

	"github.com/YiuTerran/go-common/base/log"

	. "github.com/onsi/gomega"

	"github.com/voicekit/sipmsg/parser"
	"github.com/voicekit/sipmsg/sip"
)

// Message parses the given raw lines ("\r\n"-joined) and fails the current
// test on any parse error.
func Message(rawMsg []string) *sip.Message {
	msg, err := parser.ParseMessage([]byte(strings.Join(rawMsg, "\r\n")), log.Fields{})
	Expect(err).ToNot(HaveOccurred())
	return msg
}

// Request parses the raw lines and asserts the result is a request.
func Request(rawMsg []string) *sip.Message {
	msg := Message(rawMsg)
	Expect(msg.IsRequest()).To(BeTrue(), fmt.Sprintf("%s is not a request", msg.Short()))
	return msg
}

// Response parses the raw lines and asserts the result is a response.
func Response(rawMsg []string) *sip.Message {
	msg := Message(rawMsg)
	Expect(msg.IsResponse()).To(BeTrue(), fmt.Sprintf("%s is not a response", msg.Short()))
	return msg
}
