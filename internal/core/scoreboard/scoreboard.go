/*
 * file: scoreboard.go
 * package: scoreboard
 * description:
 *     Renders a rank-ordered scoreboard from a snapshot of player records.
 *     The board is always derived fresh from current state; nothing here
 *     is stored between renders.
 */

package scoreboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
)

// Row is one scoreboard entry, exported for callers that want structured
// access (e.g. the archived match summary) without re-parsing rendered text.
type Row struct {
	Name  string
	Color string
	Score uint64
	ID    domain.PlayerID
}

// Render formats players in strictly descending (score, PlayerID) order,
// one three-line record per player, per the wire scoreboard-text grammar.
func Render(players []domain.PlayerRecord) string {
	rows := make([]Row, len(players))
	for i, p := range players {
		rows[i] = Row{Name: p.Name, Color: p.Color, Score: p.Score, ID: p.ID}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].ID > rows[j].ID
	})

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s\n%s\n%d\n", r.Name, r.Color, r.Score)
	}
	return b.String()
}
