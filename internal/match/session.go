/*
 * file: session.go
 * package: match
 * description:
 *     The per-client session state machine: a two-stage handshake, then a
 *     duplex event loop translating between wire packets and internal game
 *     events. Each bomb this session currently holds has its one-shot
 *     reply handle tracked in held[index], so inbound MOVE packets can be
 *     matched to the outstanding prompt they answer.
 */

package match

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
	"github.com/juan10024/bombrelay-server/internal/core/protocol"
)

const (
	handshakeDeadline = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
)

// WireConn is the slice of *websocket.Conn a session actually needs. A real
// connection satisfies it without any adaptation; tests supply a fake.
type WireConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

type inboundFrame struct {
	frame protocol.ClientFrame
	err   error
}

// syncConn serializes writes. gorilla's *websocket.Conn allows at most one
// concurrent writer; the ping ticker and the Live loop both write, so every
// write in this package goes through this wrapper instead of the raw conn.
type syncConn struct {
	WireConn
	mu sync.Mutex
}

func (c *syncConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WireConn.WriteMessage(messageType, data)
}

// Serve runs one client connection end to end: handshake, then the live
// duplex loop, then teardown. It returns once the session has terminated.
func Serve(raw WireConn, joinRequests chan<- JoinRequest, log *logrus.Entry) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	conn := &syncConn{WireConn: raw}

	ack := requestJoin(joinRequests)

	playerID, ok := handshake(conn, ack)
	if !ok {
		sendClose(conn)
		return
	}

	credCh := make(chan Credentials)
	ack.OllehSink <- OllehSubmission{PreferredID: playerID, Reply: credCh}
	creds := <-credCh
	log = log.WithField("player_id", creds.PlayerID)

	if err := writeFrame(conn, protocol.NameFrame{Name: creds.Name, Color: creds.Color}); err != nil {
		terminate(conn, creds, nil, log)
		return
	}

	held := make([]chan domain.MoveOutcome, ack.BombCount)
	runLive(conn, creds, ack.BombCount, held, log)
	terminate(conn, creds, held, log)
}

// requestJoin implements the Requesting state.
func requestJoin(joinRequests chan<- JoinRequest) JoinAck {
	reply := make(chan JoinAck)
	joinRequests <- JoinRequest{Reply: reply}
	return <-reply
}

// handshake implements the Handshaking state: send HELLO, await OLLEH
// within the deadline, accepting only a well-formed textual OLLEH frame.
func handshake(conn WireConn, ack JoinAck) (domain.PlayerID, bool) {
	if err := writeFrame(conn, protocol.HelloFrame{BombCount: ack.BombCount}); err != nil {
		return 0, false
	}
	if err := conn.SetReadDeadline(time.Now().Add(handshakeDeadline)); err != nil {
		return 0, false
	}
	mt, raw, err := conn.ReadMessage()
	if err != nil {
		return 0, false
	}
	if mt != websocket.TextMessage {
		return 0, false
	}
	frame, err := protocol.ParseClientFrame(raw)
	if err != nil {
		return 0, false
	}
	olleh, ok := frame.(protocol.OllehFrame)
	if !ok {
		return 0, false
	}
	return domain.PlayerID(olleh.PlayerID), true
}

// runLive implements the Live state: a priority-ordered multiplexer over
// the inbound socket, game updates, and scoreboard-changed notifications,
// biased inbound > update > scoreboard so a close is noticed before
// further state is pushed, and the debounceable scoreboard broadcast never
// starves the other two.
func runLive(conn WireConn, creds Credentials, bombCount uint32, held []chan domain.MoveOutcome, log *logrus.Entry) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)

	inbound := make(chan inboundFrame, 1)
	go readLoop(conn, inbound, stop)
	go pingLoop(conn, stop, log)

	sub, cancel := creds.Scoreboard.Subscribe()
	defer cancel()

	// The initial board is never pushed by the coordinator proactively on
	// join (only on subsequent changes), so render it once up front.
	if err := writeFrame(conn, protocol.BoardFrame{Text: creds.Scoreboard.Get()}); err != nil {
		return
	}

	for {
		select {
		case in := <-inbound:
			if !handleInbound(conn, in, bombCount, held) {
				return
			}
			continue
		default:
		}
		select {
		case u, ok := <-creds.Updates:
			if !ok {
				return
			}
			if !handleUpdate(conn, u, held) {
				return
			}
			continue
		default:
		}
		select {
		case <-sub:
			if err := writeFrame(conn, protocol.BoardFrame{Text: creds.Scoreboard.Get()}); err != nil {
				return
			}
			continue
		default:
		}

		select {
		case in := <-inbound:
			if !handleInbound(conn, in, bombCount, held) {
				return
			}
		case u, ok := <-creds.Updates:
			if !ok {
				return
			}
			if !handleUpdate(conn, u, held) {
				return
			}
		case <-sub:
			if err := writeFrame(conn, protocol.BoardFrame{Text: creds.Scoreboard.Get()}); err != nil {
				return
			}
		}
	}
}

func pingLoop(conn WireConn, stop <-chan struct{}, log *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithError(err).Debug("ping write failed")
				return
			}
		case <-stop:
			return
		}
	}
}

// readLoop turns blocking reads into channel sends. A send can outlive the
// Live loop's interest in it (the loop may exit on the first frame while a
// second is already in flight), so every send races against stop to avoid
// leaking this goroutine once the session has torn down.
func readLoop(conn WireConn, out chan<- inboundFrame, stop <-chan struct{}) {
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			deliver(out, inboundFrame{err: err}, stop)
			return
		}
		if mt != websocket.TextMessage {
			deliver(out, inboundFrame{err: errors.New("session: unexpected non-text frame")}, stop)
			return
		}
		frame, err := protocol.ParseClientFrame(raw)
		if err != nil {
			deliver(out, inboundFrame{err: err}, stop)
			return
		}
		if !deliver(out, inboundFrame{frame: frame}, stop) {
			return
		}
	}
}

func deliver(out chan<- inboundFrame, f inboundFrame, stop <-chan struct{}) bool {
	select {
	case out <- f:
		return true
	case <-stop:
		return false
	}
}

// handleInbound returns false when the session must leave the Live loop.
func handleInbound(conn WireConn, in inboundFrame, bombCount uint32, held []chan domain.MoveOutcome) bool {
	if in.err != nil {
		return false
	}
	move, ok := in.frame.(protocol.MoveFrame)
	if !ok {
		// OLLEH (or anything else) in the Live state is a protocol error.
		return false
	}
	if move.Index >= bombCount || held[move.Index] == nil {
		return false
	}
	reply := held[move.Index]
	held[move.Index] = nil
	reply <- domain.MoveOutcome{Action: move.Action}
	return true
}

// handleUpdate returns false only if the write to the client fails.
func handleUpdate(conn WireConn, u domain.Update, held []chan domain.MoveOutcome) bool {
	switch u.Kind {
	case domain.BombMoved:
		held[u.Index] = nil
		return writeFrame(conn, protocol.StatusFrame{Index: uint32(u.Index), Position: u.Position}) == nil
	case domain.BombReceived:
		held[u.Index] = u.Reply
		return writeFrame(conn, protocol.StatusFrame{Index: uint32(u.Index), Position: domain.PositionX}) == nil
	default:
		return true
	}
}

// terminate implements the Terminating state: post the leave notification,
// drop every outstanding reply handle without sending (the coordinator
// reads this as cancellation), and best-effort close the socket.
func terminate(conn WireConn, creds Credentials, held []chan domain.MoveOutcome, log *logrus.Entry) {
	for _, ch := range held {
		if ch != nil {
			close(ch)
		}
	}
	if creds.LeaveNotify != nil {
		timer := time.NewTimer(backpressureTimeout)
		select {
		case creds.LeaveNotify <- creds.PlayerID:
		case <-timer.C:
			log.Warn("leave notification dropped: coordinator unresponsive")
		}
		timer.Stop()
	}
	sendClose(conn)
}

func writeFrame(conn WireConn, f interface{ Render() []byte }) error {
	return conn.WriteMessage(websocket.TextMessage, f.Render())
}

func sendClose(conn WireConn) {
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = conn.Close()
}
