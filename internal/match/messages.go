/*
 * file: messages.go
 * package: match
 * description:
 *     The channel message vocabulary exchanged between sessions and the
 *     coordinator. Every cross-goroutine interaction in this package is one
 *     of these types flowing over a channel; there is no shared mutable
 *     state between a session and the coordinator.
 */

package match

import (
	"time"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
	"github.com/juan10024/bombrelay-server/internal/core/watch"
)

// Credentials is what the coordinator hands a session once it has seated a
// player: its id, display data, the receiving half of its update channel,
// the scoreboard watch to observe, and the channel to post a leave on.
type Credentials struct {
	PlayerID    domain.PlayerID
	Name        string
	Color       string
	Updates     <-chan domain.Update
	Scoreboard  *watch.Value
	LeaveNotify chan<- domain.PlayerID
}

// OllehSubmission is what a session posts once it has parsed a client's
// OLLEH frame: the preferred seat id, and a one-shot the coordinator will
// use to hand back Credentials.
type OllehSubmission struct {
	PreferredID domain.PlayerID
	Reply       chan Credentials
}

// JoinAck is the coordinator's immediate reply to a JoinRequest: the bomb
// count a session needs to render HELLO, and the one-shot sink the session
// must post its OllehSubmission into once OLLEH is parsed.
type JoinAck struct {
	BombCount uint32
	OllehSink chan<- OllehSubmission
}

// JoinRequest is the first message a new session sends the coordinator.
type JoinRequest struct {
	Reply chan JoinAck
}

// handshakeCompleteMsg is what a handshake-awaiter goroutine forwards onto
// the coordinator's main select loop once a session has posted its
// OllehSubmission.
type handshakeCompleteMsg struct {
	preferredID domain.PlayerID
	reply       chan Credentials
}

// bombReplyMsg is what a prompt-awaiter goroutine forwards onto the
// coordinator's main select loop: either a delivered move, or delivered=false
// if the session dropped the reply handle (terminated mid-prompt).
type bombReplyMsg struct {
	index     int
	sendTime  time.Time
	outcome   domain.MoveOutcome
	delivered bool
}
