package parser_test

import (
	"strings"

	"github.com/YiuTerran/go-common/base/log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/voicekit/sipmsg/parser"
	"github.com/voicekit/sipmsg/sip"
	"github.com/voicekit/sipmsg/testutils"
)

var _ = Describe("PacketParser", func() {
	logger := log.Fields{}

	parse := func(mode parser.Mode, lines ...string) (*sip.Message, *parser.PacketParser, error) {
		pp := parser.NewPacketParser(mode, logger)
		msg, err := pp.ParseMessage([]byte(strings.Join(lines, "\r\n")))
		return msg, pp, err
	}

	It("parses an INVITE with an SDP body and reproduces the wire form", func() {
		raw := strings.Join([]string{
			"INVITE sip:bob@biloxi.com SIP/2.0",
			"Via: SIP/2.0/UDP pc33.atlanta.com:5060;branch=z9hG4bK776asdhds",
			`From: "Alice" <sip:alice@atlanta.com>;tag=1928301774`,
			"To: <sip:bob@biloxi.com>",
			"Call-ID: a84b4c76e66710@pc33.atlanta.com",
			"CSeq: 314159 INVITE",
			"Max-Forwards: 70",
			"Content-Type: application/sdp",
			"Content-Length: 38",
			"",
			"v=0",
			"s=Call",
			"m=audio 49170 RTP/AVP 0",
			"",
		}, "\r\n")

		msg, err := parser.ParseMessage([]byte(raw), logger)
		Expect(err).ToNot(HaveOccurred())
		Expect(msg.IsRequest()).To(BeTrue())
		Expect(msg.Method).To(Equal("INVITE"))
		Expect(msg.Uri.Host).To(Equal("biloxi.com"))
		Expect(msg.Protocol).To(Equal("SIP/2.0"))

		from := msg.First("From")
		Expect(from.Addr.DisplayName.String()).To(Equal("Alice"))
		tag, ok := from.Params.Get("tag")
		Expect(ok).To(BeTrue())
		Expect(tag.String()).To(Equal("1928301774"))

		cseq := msg.First("CSeq")
		Expect(cseq.SeqNo).To(Equal(uint32(314159)))
		Expect(cseq.Method).To(Equal("INVITE"))

		Expect(msg.Body()).To(Equal("v=0\r\ns=Call\r\nm=audio 49170 RTP/AVP 0\r\n"))
		Expect(msg.String()).To(Equal(raw))
	})

	It("parses a response start line", func() {
		msg := testutils.Response([]string{
			"SIP/2.0 180 Ringing",
			"Via: SIP/2.0/UDP pc33.atlanta.com;branch=z9hG4bK776asdhds",
			"From: <sip:alice@atlanta.com>;tag=1928301774",
			"To: <sip:bob@biloxi.com>;tag=a6c85cf",
			"Call-ID: a84b4c76e66710",
			"CSeq: 314159 INVITE",
			"",
			"",
		})
		Expect(msg.StatusCode).To(Equal(180))
		Expect(msg.Reason).To(Equal("Ringing"))
		Expect(msg.IsFinal()).To(BeFalse())
	})

	It("unfolds continuation lines into the previous header", func() {
		msg := testutils.Request([]string{
			"OPTIONS sip:bob@biloxi.com SIP/2.0",
			"To: <sip:bob@biloxi.com>",
			"From: <sip:alice@atlanta.com>;tag=88sja8x",
			"Call-ID: a84b4c76e66710",
			"CSeq: 63104 OPTIONS",
			"Subject: I know you're there",
			"\tpick up the phone",
			"",
			"",
		})
		Expect(msg.First("Subject").Text).To(Equal("I know you're there\tpick up the phone"))
	})

	It("splits comma-separated values except for comma-class headers", func() {
		msg := testutils.Request([]string{
			"OPTIONS sip:bob@biloxi.com SIP/2.0",
			"To: <sip:bob@biloxi.com>",
			"From: <sip:alice@atlanta.com>",
			"Call-ID: a84b4c76e66710",
			"CSeq: 63104 OPTIONS",
			"Route: <sip:a@one.com>,<sip:b@two.com>",
			"Allow: INVITE, ACK, CANCEL, OPTIONS, BYE",
			"",
			"",
		})
		routes := msg.All("Route")
		Expect(routes).To(HaveLen(2))
		Expect(routes[0].Addr.Uri.Host).To(Equal("one.com"))
		Expect(routes[1].Addr.Uri.Host).To(Equal("two.com"))
		Expect(msg.All("Allow")).To(HaveLen(1))
		Expect(msg.First("Allow").Text).To(Equal("INVITE, ACK, CANCEL, OPTIONS, BYE"))
	})

	It("keeps only the first occurrence of singleton headers", func() {
		msg := testutils.Request([]string{
			"OPTIONS sip:bob@biloxi.com SIP/2.0",
			"Via: SIP/2.0/UDP one.example.com;branch=z9hG4bK1",
			"Via: SIP/2.0/UDP two.example.com;branch=z9hG4bK2",
			"To: <sip:bob@biloxi.com>",
			"From: <sip:alice@atlanta.com>",
			"Call-ID: first",
			"Call-ID: second",
			"CSeq: 1 OPTIONS",
			"",
			"",
		})
		Expect(msg.All("Via")).To(HaveLen(2))
		Expect(msg.First("Call-ID").Text).To(Equal("first"))
		Expect(msg.All("Call-ID")).To(HaveLen(1))
	})

	It("fails on a missing mandatory header, naming the first one absent", func() {
		_, _, err := parse(parser.Lenient,
			"OPTIONS sip:bob@biloxi.com SIP/2.0",
			"To: <sip:bob@biloxi.com>",
			"From: <sip:alice@atlanta.com>",
			"CSeq: 1 OPTIONS",
			"",
			"",
		)
		Expect(err).To(Equal(&sip.MissingHeaderError{Name: "Call-ID"}))

		_, _, err = parse(parser.Lenient,
			"OPTIONS sip:bob@biloxi.com SIP/2.0",
			"To: <sip:bob@biloxi.com>",
			"",
			"",
		)
		Expect(err).To(Equal(&sip.MissingHeaderError{Name: "From"}))
	})

	It("fails on a Content-Length mismatch", func() {
		_, _, err := parse(parser.Lenient,
			"MESSAGE sip:bob@biloxi.com SIP/2.0",
			"To: <sip:bob@biloxi.com>",
			"From: <sip:alice@atlanta.com>",
			"Call-ID: a84b4c76e66710",
			"CSeq: 1 MESSAGE",
			"Content-Length: 10",
			"",
			"hello world",
		)
		Expect(err).To(Equal(&sip.ContentLengthError{Declared: "10", Actual: 11}))
	})

	It("fails on a garbled start line", func() {
		_, _, err := parse(parser.Lenient,
			"garbage",
			"To: <sip:bob@biloxi.com>",
			"",
			"",
		)
		Expect(err).To(Equal(&sip.InvalidFirstLineError{Line: "garbage"}))

		_, _, err = parse(parser.Lenient,
			"INVITE banana SIP/2.0",
			"To: <sip:bob@biloxi.com>",
			"",
			"",
		)
		Expect(err).To(BeAssignableToTypeOf(&sip.InvalidUriError{}))
	})

	It("fails when the header block has no line break at all", func() {
		_, _, err := parse(parser.Lenient, "INVITE sip:bob@biloxi.com SIP/2.0", "", "")
		Expect(err).To(Equal(&sip.InvalidFirstLineError{}))
	})

	It("drops malformed header lines in lenient mode and records them", func() {
		msg, pp, err := parse(parser.Lenient,
			"OPTIONS sip:bob@biloxi.com SIP/2.0",
			"To: <sip:bob@biloxi.com>",
			"From: <sip:alice@atlanta.com>",
			"Call-ID: a84b4c76e66710",
			"CSeq: 1 OPTIONS",
			"this line has no colon",
			"Max-Forwards: 70",
			"",
			"",
		)
		Expect(err).ToNot(HaveOccurred())
		Expect(msg.First("Max-Forwards").Text).To(Equal("70"))
		Expect(pp.Skipped()).To(HaveLen(1))
		Expect(pp.Skipped()[0].Line).To(Equal("this line has no colon"))
	})

	It("aborts on malformed header lines in strict mode", func() {
		_, _, err := parse(parser.Strict,
			"OPTIONS sip:bob@biloxi.com SIP/2.0",
			"To: <sip:bob@biloxi.com>",
			"From: <sip:alice@atlanta.com>",
			"Call-ID: a84b4c76e66710",
			"CSeq: 1 OPTIONS",
			"this line has no colon",
			"",
			"",
		)
		Expect(err).To(HaveOccurred())
	})

	It("takes the earlier of the two body boundary forms", func() {
		raw := "MESSAGE sip:bob@biloxi.com SIP/2.0\r\n" +
			"To: <sip:bob@biloxi.com>\r\n" +
			"From: <sip:alice@atlanta.com>\r\n" +
			"Call-ID: a84b4c76e66710\r\n" +
			"CSeq: 1 MESSAGE\r\n" +
			"Content-Length: 4\n\nbody"
		msg, err := parser.ParseMessage([]byte(raw), logger)
		Expect(err).ToNot(HaveOccurred())
		Expect(msg.Body()).To(Equal("body"))
	})
})
