/*
 * file: protocol.go
 * package: protocol
 * description:
 *     Parses and renders the line-oriented wire frames exchanged with
 *     clients over the framed text transport. Every frame is a type tag
 *     line followed by a body; malformed input collapses to a single
 *     ParseError kind per the wire contract.
 */

package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
)

// ParseError is the single error kind for every frame parsing failure:
// wrong line count, wrong field count, unknown tag, non-numeric id/index,
// or an unrecognized action/position literal.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "protocol: " + e.Reason }

func parseErr(format string, args ...interface{}) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// --- client -> server frames ---

// OllehFrame carries the client's preferred seat id.
type OllehFrame struct {
	PlayerID uint32
}

// MoveFrame carries the bomb index and chosen transfer action.
type MoveFrame struct {
	Index  uint32
	Action domain.Action
}

// ClientFrame is the sum type of frames a client may send.
type ClientFrame interface {
	clientFrame()
}

func (OllehFrame) clientFrame() {}
func (MoveFrame) clientFrame()  {}

// ParseClientFrame parses a raw two-line frame sent by a client.
func ParseClientFrame(raw []byte) (ClientFrame, error) {
	lines := strings.Split(string(raw), "\n")
	if len(lines) != 2 {
		return nil, parseErr("expected 2 lines, got %d", len(lines))
	}
	tag, body := lines[0], lines[1]
	switch tag {
	case "olleh":
		id, err := strconv.ParseUint(body, 10, 32)
		if err != nil {
			return nil, parseErr("olleh: non-numeric id %q", body)
		}
		return OllehFrame{PlayerID: uint32(id)}, nil
	case "move":
		fields := strings.Fields(body)
		if len(fields) != 2 {
			return nil, parseErr("move: expected 2 fields, got %d", len(fields))
		}
		idx, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, parseErr("move: non-numeric index %q", fields[0])
		}
		action := domain.Action(fields[1])
		if !action.IsValid() {
			return nil, parseErr("move: unknown action %q", fields[1])
		}
		return MoveFrame{Index: uint32(idx), Action: action}, nil
	default:
		return nil, parseErr("unknown client tag %q", tag)
	}
}

// Render produces the wire bytes for a client frame. Used by tests to
// exercise the parse(render(x)) = x round trip.
func (f OllehFrame) Render() []byte {
	return []byte(fmt.Sprintf("olleh\n%d", f.PlayerID))
}

func (f MoveFrame) Render() []byte {
	return []byte(fmt.Sprintf("move\n%d %s", f.Index, f.Action))
}

// --- server -> client frames ---

// HelloFrame announces the bomb count for the match.
type HelloFrame struct {
	BombCount uint32
}

// NameFrame assigns the client's display name and color.
type NameFrame struct {
	Name  string
	Color string
}

// StatusFrame reports a bomb's transit or arrival at the receiving client.
type StatusFrame struct {
	Index    uint32
	Position domain.Position
}

// BoardFrame carries the rendered scoreboard text.
type BoardFrame struct {
	Text string
}

func (f HelloFrame) Render() []byte {
	return []byte(fmt.Sprintf("hello\n%d", f.BombCount))
}

func (f NameFrame) Render() []byte {
	return []byte(fmt.Sprintf("name\n%s\n%s", f.Name, f.Color))
}

func (f StatusFrame) Render() []byte {
	return []byte(fmt.Sprintf("status\n%d %s", f.Index, f.Position))
}

func (f BoardFrame) Render() []byte {
	return []byte("board\n" + f.Text)
}

// ServerFrame is the sum type of frames the server may send. Parsing
// server frames is only needed by tests asserting the round-trip property;
// a live client never runs this half of the codec.
type ServerFrame interface {
	serverFrame()
}

func (HelloFrame) serverFrame()  {}
func (NameFrame) serverFrame()   {}
func (StatusFrame) serverFrame() {}
func (BoardFrame) serverFrame()  {}

// ParseServerFrame parses bytes previously produced by Render on a server
// frame. It is the inverse used by the packet round-trip property test.
func ParseServerFrame(raw []byte) (ServerFrame, error) {
	nl := strings.IndexByte(string(raw), '\n')
	if nl < 0 {
		return nil, parseErr("expected at least 2 lines")
	}
	tag, rest := string(raw[:nl]), string(raw[nl+1:])
	switch tag {
	case "hello":
		if strings.Contains(rest, "\n") {
			return nil, parseErr("hello: expected 2 lines")
		}
		n, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return nil, parseErr("hello: non-numeric bomb count %q", rest)
		}
		return HelloFrame{BombCount: uint32(n)}, nil
	case "name":
		lines := strings.Split(rest, "\n")
		if len(lines) != 2 {
			return nil, parseErr("name: expected 3 lines, got %d", len(lines)+1)
		}
		return NameFrame{Name: lines[0], Color: lines[1]}, nil
	case "status":
		if strings.Contains(rest, "\n") {
			return nil, parseErr("status: expected 2 lines")
		}
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return nil, parseErr("status: expected 2 fields, got %d", len(fields))
		}
		idx, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, parseErr("status: non-numeric index %q", fields[0])
		}
		pos := domain.Position(fields[1])
		if pos != domain.PositionL && pos != domain.PositionX && pos != domain.PositionR {
			return nil, parseErr("status: unknown position %q", fields[1])
		}
		return StatusFrame{Index: uint32(idx), Position: pos}, nil
	case "board":
		return BoardFrame{Text: rest}, nil
	default:
		return nil, parseErr("unknown server tag %q", tag)
	}
}
