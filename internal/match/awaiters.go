/*
 * file: awaiters.go
 * package: match
 * description:
 *     Prompt- and handshake-awaiters: tiny goroutines that each own one
 *     one-shot channel and fan its eventual result back onto the
 *     coordinator's single select loop. This is how the coordinator waits
 *     on an unbounded set of concurrent one-shots without ever blocking on
 *     any single one of them — the coordinator's "outstanding replies"
 *     invariant is just the count of awaiters currently alive.
 */

package match

import (
	"time"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
)

// awaitHandshake blocks until a session posts its OllehSubmission. A session
// whose handshake fails (including the handshake deadline passing) closes
// without ever posting to this sink, and this goroutine then stays blocked
// for the life of the process.
func awaitHandshake(sink chan OllehSubmission, out chan<- handshakeCompleteMsg) {
	sub := <-sink
	out <- handshakeCompleteMsg{preferredID: sub.PreferredID, reply: sub.Reply}
}

// awaitBombReply blocks on one bomb's one-shot reply channel and reports
// the outcome back to the coordinator. delivered is false if the channel
// was closed without a value — the session dropped the handle, meaning it
// terminated while still holding this prompt.
func awaitBombReply(index int, sendTime time.Time, ch <-chan domain.MoveOutcome, out chan<- bombReplyMsg) {
	outcome, ok := <-ch
	out <- bombReplyMsg{index: index, sendTime: sendTime, outcome: outcome, delivered: ok}
}
