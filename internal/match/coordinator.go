/*
 * file: coordinator.go
 * package: match
 * description:
 *     The game coordinator: a single logical actor owning authoritative
 *     state for one match at a time (seating ring, player records, bomb
 *     holders and outstanding prompts). It multiplexes join requests,
 *     handshake completions, bomb replies, and leave notifications into
 *     deterministic state transitions, with a fixed priority order so a
 *     departing player's effects always settle before further events for
 *     that player are processed.
 */

package match

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
	"github.com/juan10024/bombrelay-server/internal/core/ring"
	"github.com/juan10024/bombrelay-server/internal/core/scoreboard"
	"github.com/juan10024/bombrelay-server/internal/core/watch"
)

const (
	// JoinRequestCapacity bounds the intake channel sessions use to ask
	// the coordinator for match parameters.
	JoinRequestCapacity = 32
	// UpdateChannelCapacity bounds each session's coordinator->session
	// update channel.
	UpdateChannelCapacity = 4
	// scoreBonusBase and scoreBonusCutoffMs implement the move-bonus
	// formula: max(0, 4100-elapsed_ms), zero once elapsed_ms >= 4000.
	scoreBonusBase     = 4100
	scoreBonusCutoffMs = 4000
	// backpressureTimeout bounds how long the coordinator will wait to
	// enqueue one update before concluding the peer is unresponsive and
	// promoting it to a leave, per the implementation-defined back-pressure
	// clause. It is generous enough to absorb the startup burst of up to
	// BombCount BombReceived prompts landing on a freshly-buffered channel
	// before the new session's Live loop has started draining it.
	backpressureTimeout = 250 * time.Millisecond
)

// HistoryRecorder archives a finished match. Implementations live outside
// the core (e.g. a GORM-backed repository); a nil recorder is a valid,
// no-op choice — the live match never depends on persistence succeeding.
type HistoryRecorder interface {
	RecordMatch(ctx context.Context, summary MatchSummary) error
}

// MatchSummary is what gets archived once a match's ring empties.
type MatchSummary struct {
	MatchID   string
	StartedAt time.Time
	EndedAt   time.Time
	BombCount int
	Players   []scoreboard.Row
}

// Coordinator is the single authoritative actor for one match at a time.
// It is not safe for concurrent use from outside its own Run loop; every
// external interaction happens over the channels it exposes.
type Coordinator struct {
	bombCount int
	history   HistoryRecorder
	clock     func() time.Time
	rng       *mrand.Rand
	log       *logrus.Entry

	joinRequests  chan JoinRequest
	handshakeDone chan handshakeCompleteMsg
	bombReplies   chan bombReplyMsg
	leaveNotify   chan domain.PlayerID

	ring       *ring.Ring
	players    map[domain.PlayerID]*domain.PlayerRecord
	bombs      []domain.BombState
	scoreboard *watch.Value

	matchID   string
	startedAt time.Time
}

// NewCoordinator builds a coordinator for matches of bombCount bombs. A nil
// history is permitted; archival is best-effort only.
func NewCoordinator(bombCount int, history HistoryRecorder, log *logrus.Entry) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Coordinator{
		bombCount:     bombCount,
		history:       history,
		clock:         time.Now,
		rng:           mrand.New(mrand.NewSource(seedFromCrypto())),
		log:           log,
		joinRequests:  make(chan JoinRequest, JoinRequestCapacity),
		handshakeDone: make(chan handshakeCompleteMsg),
		bombReplies:   make(chan bombReplyMsg),
		leaveNotify:   make(chan domain.PlayerID, JoinRequestCapacity),
	}
}

func seedFromCrypto() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return time.Now().UnixNano()
	}
	return n.Int64()
}

// JoinRequests returns the send-only endpoint sessions use to request
// entry into whichever match is currently forming or running.
func (c *Coordinator) JoinRequests() chan<- JoinRequest { return c.joinRequests }

// Run drives the coordinator forever, cycling through matches: it resets
// state, waits for a first player to complete the handshake, then runs the
// main event loop until the seating ring empties, and repeats.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		c.resetMatch()
		first, ok := c.awaitFirstPlayer(ctx)
		if !ok {
			return
		}
		c.seedMatch(first)
		c.mainLoop(ctx)
	}
}

func (c *Coordinator) resetMatch() {
	c.ring = ring.New()
	c.players = make(map[domain.PlayerID]*domain.PlayerRecord)
	c.bombs = make([]domain.BombState, c.bombCount)
	c.scoreboard = watch.New("")
	c.matchID = ksuid.New().String()
	c.startedAt = c.clock()
	c.log = c.log.WithField("match_id", c.matchID)
}

// awaitFirstPlayer implements the pre-first-player phase: it services join
// requests (spawning handshake-awaiters) until the first OLLEH completes.
func (c *Coordinator) awaitFirstPlayer(ctx context.Context) (handshakeCompleteMsg, bool) {
	for {
		select {
		case req := <-c.joinRequests:
			c.handleJoinRequest(req)
		case hs := <-c.handshakeDone:
			return hs, true
		case <-ctx.Done():
			return handshakeCompleteMsg{}, false
		}
	}
}

// mainLoop runs until the seating ring empties (match end) or ctx is done.
// Each tick applies the fixed priority order: leave > reply > handshake >
// new-join, implemented as a ladder of non-blocking selects that falls
// through to a blocking select only once nothing is immediately ready.
func (c *Coordinator) mainLoop(ctx context.Context) {
	for {
		select {
		case id := <-c.leaveNotify:
			c.handleLeave(id)
			if c.ring.Empty() {
				return
			}
			continue
		default:
		}
		select {
		case msg := <-c.bombReplies:
			c.handleBombReply(msg)
			continue
		default:
		}
		select {
		case hs := <-c.handshakeDone:
			c.handleJoinComplete(hs)
			continue
		default:
		}
		select {
		case req := <-c.joinRequests:
			c.handleJoinRequest(req)
			continue
		default:
		}

		select {
		case id := <-c.leaveNotify:
			c.handleLeave(id)
			if c.ring.Empty() {
				return
			}
		case msg := <-c.bombReplies:
			c.handleBombReply(msg)
		case hs := <-c.handshakeDone:
			c.handleJoinComplete(hs)
		case req := <-c.joinRequests:
			c.handleJoinRequest(req)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Coordinator) handleJoinRequest(req JoinRequest) {
	ollehSink := make(chan OllehSubmission)
	go awaitHandshake(ollehSink, c.handshakeDone)
	req.Reply <- JoinAck{BombCount: uint32(c.bombCount), OllehSink: ollehSink}
}

// seedMatch replies with credentials before issuing a single bomb prompt:
// the session cannot start draining its bounded Updates channel until the
// credentials reply unblocks it (session.go's Credentialed state), so
// replying first lets it be draining by the time the startup burst of
// bombCount prompts lands, instead of deadlocking against its own channel.
func (c *Coordinator) seedMatch(first handshakeCompleteMsg) {
	rec, recv := c.seatNewPlayer(first.preferredID)
	c.publishScoreboard()
	first.reply <- c.buildCredentials(rec, recv)
	for idx := 0; idx < c.bombCount; idx++ {
		c.issuePrompt(idx, rec.ID)
	}
	c.log.WithFields(logrus.Fields{"player_id": rec.ID}).Info("match started")
}

// handleJoinComplete replies with credentials before syncing the newcomer's
// board, for the same reason as seedMatch: the sync loop below sends
// directly into the newcomer's own Updates channel, which nothing drains
// until the reply has unblocked its session.
func (c *Coordinator) handleJoinComplete(msg handshakeCompleteMsg) {
	rec, recv := c.seatNewPlayer(msg.preferredID)
	c.publishScoreboard()
	msg.reply <- c.buildCredentials(rec, recv)
	for idx := range c.bombs {
		holder := c.bombs[idx].Holder
		pos := domain.PositionL
		if holder > rec.ID {
			pos = domain.PositionR
		}
		c.sendUpdate(rec, domain.Update{Index: idx, Kind: domain.BombMoved, Position: pos})
	}
	c.log.WithField("player_id", rec.ID).Info("player joined")
}

func (c *Coordinator) handleBombReply(msg bombReplyMsg) {
	bomb := &c.bombs[msg.index]
	bomb.PromptOutstanding = false
	if !msg.delivered {
		// Session dropped the handle mid-prompt; the Leave this implies
		// will arrive separately and re-route the bomb there.
		return
	}

	elapsedMs := c.clock().Sub(msg.sendTime).Milliseconds()
	var delta uint64
	if elapsedMs < scoreBonusCutoffMs {
		bonus := int64(scoreBonusBase) - elapsedMs
		if bonus > 0 {
			delta = uint64(bonus)
		}
	}
	if rec, ok := c.players[bomb.Holder]; ok {
		rec.Score += delta
	}
	c.publishScoreboard()

	newHolder := c.ring.Step(bomb.Holder, msg.outcome.Action)
	c.broadcastTransfer(msg.index, newHolder)
	c.issuePrompt(msg.index, newHolder)
}

func (c *Coordinator) handleLeave(id domain.PlayerID) {
	if !c.ring.Contains(id) {
		return // idempotent: already gone
	}
	leavingScore := c.players[id]
	delete(c.players, id)
	c.ring.Remove(id)
	if c.ring.Empty() {
		c.archiveMatch(leavingScore)
		c.log.WithField("player_id", id).Info("last player left, match ending")
		return
	}

	rerouted := false
	for idx := range c.bombs {
		if c.bombs[idx].Holder != id {
			continue
		}
		newHolder, err := c.ring.Successor(id)
		if err != nil {
			c.log.WithError(err).Panic("invariant violated: successor on empty ring")
		}
		// The departed holder's prompt is abandoned; the reroute below
		// issues a fresh one to the new holder.
		c.bombs[idx].PromptOutstanding = false
		c.broadcastTransfer(idx, newHolder)
		c.issuePrompt(idx, newHolder)
		rerouted = true
	}
	if rerouted {
		c.publishScoreboard()
	}
	c.log.WithField("player_id", id).Info("player left")
}

// seatNewPlayer allocates an id, inserts it into the ring, and creates its
// record and update channel. It does not publish the scoreboard or notify
// anyone; callers decide ordering around that.
func (c *Coordinator) seatNewPlayer(preferred domain.PlayerID) (*domain.PlayerRecord, <-chan domain.Update) {
	id := preferred
	if c.ring.Contains(preferred) {
		max, _ := c.ring.Max()
		id = max + 1
	}
	ch := make(chan domain.Update, UpdateChannelCapacity)
	rec := &domain.PlayerRecord{
		ID:      id,
		Name:    randomName(c.rng),
		Color:   randomColor(c.rng),
		Score:   0,
		Updates: ch,
	}
	c.ring.Insert(id)
	c.players[id] = rec
	return rec, ch
}

func (c *Coordinator) buildCredentials(rec *domain.PlayerRecord, recv <-chan domain.Update) Credentials {
	return Credentials{
		PlayerID:    rec.ID,
		Name:        rec.Name,
		Color:       rec.Color,
		Updates:     recv,
		Scoreboard:  c.scoreboard,
		LeaveNotify: c.leaveNotify,
	}
}

// issuePrompt places bomb idx with holder and starts a fresh outstanding
// prompt: a one-shot reply channel, a prompt-awaiter goroutine fanning its
// result back onto c.bombReplies, and a BombReceived update to the holder.
func (c *Coordinator) issuePrompt(idx int, holder domain.PlayerID) {
	if c.bombs[idx].PromptOutstanding {
		c.log.Panic("invariant violated: bomb already has an outstanding prompt")
	}
	rec, ok := c.players[holder]
	if !ok {
		c.log.Panic("invariant violated: bomb holder not seated")
	}
	now := c.clock()
	reply := make(chan domain.MoveOutcome)
	c.bombs[idx] = domain.BombState{Holder: holder, PromptIssuedAt: now, PromptOutstanding: true}
	go awaitBombReply(idx, now, reply, c.bombReplies)
	c.sendUpdate(rec, domain.Update{Index: idx, Kind: domain.BombReceived, Reply: reply})
}

// broadcastTransfer tells every seated player except newHolder that bomb
// idx transited, using L/R relative to newHolder's seat.
func (c *Coordinator) broadcastTransfer(idx int, newHolder domain.PlayerID) {
	for id, rec := range c.players {
		if id == newHolder {
			continue
		}
		pos := domain.PositionL
		if id < newHolder {
			pos = domain.PositionR
		}
		c.sendUpdate(rec, domain.Update{Index: idx, Kind: domain.BombMoved, Position: pos})
	}
}

// sendUpdate enqueues u on rec's channel, waiting briefly to absorb
// transient startup bursts. A send that still cannot land is treated as an
// unresponsive peer and promotes that player straight to a leave, which is
// the implementation's chosen resolution of the back-pressure clause.
func (c *Coordinator) sendUpdate(rec *domain.PlayerRecord, u domain.Update) {
	select {
	case rec.Updates <- u:
		return
	default:
	}
	timer := time.NewTimer(backpressureTimeout)
	defer timer.Stop()
	select {
	case rec.Updates <- u:
	case <-timer.C:
		c.log.WithField("player_id", rec.ID).Warn("update channel saturated, dropping peer")
		c.handleLeave(rec.ID)
	}
}

func (c *Coordinator) publishScoreboard() {
	players := make([]domain.PlayerRecord, 0, len(c.players))
	for _, rec := range c.players {
		players = append(players, *rec)
	}
	c.scoreboard.Set(scoreboard.Render(players))
}

// archiveMatch records the finished match's final scoreboard. last is the
// record of the player whose leave just emptied the ring; by the time this
// runs it has already been removed from c.players, so it is passed in
// separately to keep it in the archived summary.
func (c *Coordinator) archiveMatch(last *domain.PlayerRecord) {
	if c.history == nil {
		return
	}
	players := make([]domain.PlayerRecord, 0, len(c.players)+1)
	for _, rec := range c.players {
		players = append(players, *rec)
	}
	if last != nil {
		players = append(players, *last)
	}
	rows := make([]scoreboard.Row, len(players))
	for i, p := range players {
		rows[i] = scoreboard.Row{Name: p.Name, Color: p.Color, Score: p.Score, ID: p.ID}
	}
	summary := MatchSummary{
		MatchID:   c.matchID,
		StartedAt: c.startedAt,
		EndedAt:   c.clock(),
		BombCount: c.bombCount,
		Players:   rows,
	}
	if err := c.history.RecordMatch(context.Background(), summary); err != nil {
		c.log.WithError(err).Warn("failed to archive match history")
	}
}

func randomName(r *mrand.Rand) string {
	return fmt.Sprintf("Player%04X", r.Intn(1<<16))
}

func randomColor(r *mrand.Rand) string {
	return fmt.Sprintf("#%06X", r.Intn(1<<24))
}
