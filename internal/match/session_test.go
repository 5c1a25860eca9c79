package match

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
	"github.com/juan10024/bombrelay-server/internal/core/protocol"
	"github.com/juan10024/bombrelay-server/internal/core/watch"
)

// fakeConn is an in-memory stand-in for *websocket.Conn: it feeds a
// pre-scripted sequence of inbound frames and records every outbound write.
type fakeConn struct {
	mu         sync.Mutex
	inbound    [][]byte
	readIdx    int
	outbound   [][]byte
	closed     bool
	pongHandle func(string) error
}

func newFakeConn(inbound ...[]byte) *fakeConn {
	return &fakeConn{inbound: inbound}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readIdx >= len(f.inbound) {
		return 0, nil, io.EOF
	}
	msg := f.inbound[f.readIdx]
	f.readIdx++
	return websocket.TextMessage, msg, nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.TextMessage {
		cp := make([]byte, len(data))
		copy(cp, data)
		f.outbound = append(f.outbound, cp)
	}
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (f *fakeConn) SetPongHandler(h func(string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pongHandle = h
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) writtenFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.outbound))
	copy(out, f.outbound)
	return out
}

// stubCoordinator plays the coordinator's half of the handshake protocol so
// session tests can run without a full Coordinator.
type stubCoordinator struct {
	joinRequests chan JoinRequest
	updates      chan domain.Update
	leaveNotify  chan domain.PlayerID
	scoreboard   *watch.Value
}

func newStubCoordinator() *stubCoordinator {
	s := &stubCoordinator{
		joinRequests: make(chan JoinRequest),
		updates:      make(chan domain.Update, 4),
		leaveNotify:  make(chan domain.PlayerID, 4),
		scoreboard:   watch.New(""),
	}
	go s.serve()
	return s
}

func (s *stubCoordinator) serve() {
	req := <-s.joinRequests
	sink := make(chan OllehSubmission)
	req.Reply <- JoinAck{BombCount: 5, OllehSink: sink}

	sub := <-sink
	sub.Reply <- Credentials{
		PlayerID:    sub.PreferredID,
		Name:        "Player0001",
		Color:       "#abcdef",
		Updates:     s.updates,
		Scoreboard:  s.scoreboard,
		LeaveNotify: s.leaveNotify,
	}
}

func TestScenarioBadMoveIndexClosesSessionOnce(t *testing.T) {
	stub := newStubCoordinator()
	conn := newFakeConn(
		protocol.OllehFrame{PlayerID: 7}.Render(),
		protocol.MoveFrame{Index: 99, Action: domain.ActionR1}.Render(),
	)

	done := make(chan struct{})
	go func() {
		Serve(conn, stub.joinRequests, nil)
		close(done)
	}()

	select {
	case id := <-stub.leaveNotify:
		assert.Equal(t, domain.PlayerID(7), id)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a leave notification after the bad move index")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
	}

	select {
	case id := <-stub.leaveNotify:
		t.Fatalf("expected exactly one leave notification, got a second for %v", id)
	case <-time.After(100 * time.Millisecond):
	}

	assert.True(t, conn.closed)
}

func TestSessionSendsNoReplyWithoutMove(t *testing.T) {
	stub := newStubCoordinator()
	conn := newFakeConn(protocol.OllehFrame{PlayerID: 3}.Render())

	go Serve(conn, stub.joinRequests, nil)

	// BombReceived for index 2 hands the session a reply handle; the client
	// never sends a MOVE, so nothing may arrive on that handle.
	reply := make(chan domain.MoveOutcome, 1)
	require.Eventually(t, func() bool {
		select {
		case stub.updates <- domain.Update{Index: 2, Kind: domain.BombReceived, Reply: reply}:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case outcome := <-reply:
		t.Fatalf("no move sent yet, should not have a reply: %+v", outcome)
	case <-time.After(100 * time.Millisecond):
	}

	frames := conn.writtenFrames()
	require.NotEmpty(t, frames)
}
