package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
)

func TestClientFrameRoundTrip(t *testing.T) {
	cases := []ClientFrame{
		OllehFrame{PlayerID: 7},
		MoveFrame{Index: 3, Action: domain.ActionR2},
	}
	for _, f := range cases {
		parsed, err := ParseClientFrame(f.(interface{ Render() []byte }).Render())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
}

func TestServerFrameRoundTrip(t *testing.T) {
	cases := []ServerFrame{
		HelloFrame{BombCount: 5},
		NameFrame{Name: "Player0A2F", Color: "#1A2B3C"},
		StatusFrame{Index: 2, Position: domain.PositionX},
		BoardFrame{Text: "Player0A2F\n#1A2B3C\n4000\n"},
	}
	for _, f := range cases {
		parsed, err := ParseServerFrame(f.(interface{ Render() []byte }).Render())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
}

func TestParseClientFrameRejectsMalformed(t *testing.T) {
	bad := [][]byte{
		[]byte("olleh\n7\nextra"),
		[]byte("olleh\nnotanumber"),
		[]byte("move\n1"),
		[]byte("move\n1 UP"),
		[]byte("move\nnotanumber R1"),
		[]byte("wat\n7"),
	}
	for _, raw := range bad {
		_, err := ParseClientFrame(raw)
		assert.Error(t, err, "expected parse error for %q", raw)
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
	}
}

func TestParseServerFrameRejectsUnknownTag(t *testing.T) {
	_, err := ParseServerFrame([]byte("bogus\nhi"))
	assert.Error(t, err)
}

func TestActionIsValid(t *testing.T) {
	assert.True(t, domain.ActionR1.IsValid())
	assert.False(t, domain.Action("UP").IsValid())
}
