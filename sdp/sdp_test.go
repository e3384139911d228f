package sdp_test

import (
	"strings"
	"testing"

	"github.com/YiuTerran/go-common/base/structs/set"
	"github.com/stretchr/testify/assert"

	"github.com/voicekit/sipmsg/sdp"
)

func TestParseRoundTrip(t *testing.T) {
	raw := strings.Join([]string{
		"v=0",
		"o=alice 2890844526 2890844526 IN IP4 atlanta.com",
		"s=Audio and Video",
		"c=IN IP4 224.2.17.12/127",
		"b=AS:128",
		"t=0 0",
		"a=recvonly",
		"m=audio 49170 RTP/AVP 0 8",
		"a=rtpmap:0 PCMU/8000",
		"a=rtpmap:8 PCMA/8000",
		"m=video 51372 RTP/AVP 31",
		"i=Main camera",
		"c=IN IP4 224.2.17.13",
		"a=rtpmap:31 H261/90000",
		"",
	}, "\r\n")

	session, err := sdp.Parse(raw, nil)
	assert.Nil(t, err)

	assert.Equal(t, "0", session.Version)
	assert.Equal(t, "alice", session.Origin.Username)
	assert.Equal(t, int64(2890844526), session.Origin.SessionID)
	assert.Equal(t, "Audio and Video", session.Name)
	assert.Equal(t, "224.2.17.12", session.Connection.Address)
	assert.Equal(t, 127, session.Connection.TTL)
	assert.Equal(t, []string{"0 0"}, session.Timing)
	assert.Equal(t, []string{"recvonly"}, session.Attributes)

	// Lines after an m= line belong to that media section.
	assert.Len(t, session.Media, 2)
	audio := session.Media[0]
	assert.Equal(t, "audio", audio.Type)
	assert.Equal(t, 49170, audio.Port)
	assert.Equal(t, "RTP/AVP", audio.Proto)
	assert.Equal(t, []string{"0", "8"}, audio.Formats)
	assert.Equal(t, []string{"rtpmap:0 PCMU/8000", "rtpmap:8 PCMA/8000"}, audio.Attributes)

	video := session.Media[1]
	assert.Equal(t, "video", video.Type)
	assert.True(t, video.HasInfo)
	assert.Equal(t, "Main camera", video.Info)
	assert.Equal(t, "224.2.17.13", video.Connection.Address)
	assert.Equal(t, []string{"rtpmap:31 H261/90000"}, video.Attributes)

	assert.Equal(t, raw, session.String())
}

func TestParseNormalizesFieldOrder(t *testing.T) {
	// Session fields arriving out of order are re-emitted in the fixed
	// order, and repeat lines are kept but not re-emitted.
	raw := "s=Test\r\nv=0\r\nr=7d 1h 0 25h\r\nt=3034423619 3042462419\r\n"
	session, err := sdp.Parse(raw, nil)
	assert.Nil(t, err)
	assert.Equal(t, []string{"7d 1h 0 25h"}, session.Repeat)
	assert.Equal(t, "v=0\r\ns=Test\r\nt=3034423619 3042462419\r\n", session.String())
}

func TestAttributeWhitelist(t *testing.T) {
	raw := strings.Join([]string{
		"v=0",
		"s=Filtered",
		"a=group:BUNDLE audio",
		"a=recvonly",
		"m=audio 49170 RTP/AVP 0",
		"a=rtpmap:0 PCMU/8000",
		"a=candidate:1 1 UDP 2130706431 10.0.0.1 49170 typ host",
		"",
	}, "\r\n")

	session, err := sdp.Parse(raw, set.NewSet("recvonly", "rtpmap"))
	assert.Nil(t, err)
	// Parsed attributes are all retained; the whitelist only filters
	// serialization, at session and media level alike.
	assert.Len(t, session.Attributes, 2)
	assert.Len(t, session.Media[0].Attributes, 2)
	assert.Equal(t, strings.Join([]string{
		"v=0",
		"s=Filtered",
		"a=recvonly",
		"m=audio 49170 RTP/AVP 0",
		"a=rtpmap:0 PCMU/8000",
		"",
	}, "\r\n"), session.String())
}

func TestParseUnknownKeys(t *testing.T) {
	session, err := sdp.Parse("v=0\r\ns=X\r\nz=0 0\r\n", nil)
	assert.Nil(t, err)
	assert.Equal(t, "0 0", session.Extra["z"])
	// Unknown keys are tolerated but never re-emitted.
	assert.Equal(t, "v=0\r\ns=X\r\n", session.String())
}

func TestParseErrors(t *testing.T) {
	for _, raw := range []string{
		"o=alice 2890844526 IN IP4 atlanta.com\r\n",
		"o=alice x 1 IN IP4 atlanta.com\r\n",
		"c=IN IP4\r\n",
		"c=IN IP4 10.0.0.1/x\r\n",
		"m=audio port RTP/AVP 0\r\n",
		"m=audio 49170 RTP/AVP\r\n",
	} {
		_, err := sdp.Parse(raw, nil)
		assert.NotNil(t, err, "input %q", raw)
	}
}

func TestConnectionString(t *testing.T) {
	conn, err := sdp.ParseConnection("IN IP4 224.2.1.1/127/3")
	assert.Nil(t, err)
	assert.Equal(t, 127, conn.TTL)
	assert.Equal(t, 3, conn.Count)
	assert.Equal(t, "IN IP4 224.2.1.1/127/3", conn.String())

	plain := &sdp.Connection{NetType: "IN", AddrType: "IP4", Address: "10.0.0.1"}
	assert.Equal(t, "IN IP4 10.0.0.1", plain.String())
}

func TestNewOriginator(t *testing.T) {
	o := sdp.NewOriginator()
	assert.Equal(t, "-", o.Username)
	assert.Equal(t, "IN", o.NetType)
	assert.Equal(t, "IP4", o.AddrType)
	assert.NotZero(t, o.SessionID)
	assert.Equal(t, o.SessionID, o.Version)
	assert.NotEmpty(t, o.Address)

	fields := strings.Split(o.String(), " ")
	assert.Len(t, fields, 6)
}

func TestSessionClone(t *testing.T) {
	session, err := sdp.Parse(
		"v=0\r\ns=X\r\nm=audio 49170 RTP/AVP 0\r\na=recvonly\r\n", nil)
	assert.Nil(t, err)

	dup := session.Clone()
	assert.Equal(t, session.String(), dup.String())

	dup.Media[0].Attributes[0] = "sendonly"
	dup.Name = "Y"
	assert.Equal(t, "recvonly", session.Media[0].Attributes[0])
	assert.Equal(t, "X", session.Name)
}
