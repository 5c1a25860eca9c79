/*
 * file: ports.go
 * package: ports
 * description:
 *     Defines the interfaces that form the boundary between the archival
 *     stats surface and its storage. Any persistence backend that can
 *     satisfy HistoryRepository can sit behind the stats handlers without
 *     the core match logic ever knowing a database exists.
 */

package ports

import "github.com/juan10024/bombrelay-server/internal/core/domain"

// HistoryRepository defines the read side of the match archive: querying a
// past match and aggregate statistics across all of them. The write side
// (archiving a just-finished match) is the narrower match.HistoryRecorder
// interface, which the same repository also implements.
type HistoryRepository interface {
	GetMatchByID(matchID string) (*domain.MatchRecord, error)
	GetRanking(limit int) ([]domain.PlayerAggregate, error)
	GetGeneralStats() (domain.GeneralStats, error)
}
