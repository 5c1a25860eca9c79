/*
 * file: archive.go
 * package: domain
 * description:
 *     GORM-mapped archival records for finished matches. These are written
 *     once a match's seating ring empties and read back only by the stats
 *     endpoints; the live match never depends on them.
 */

package domain

import (
	"time"

	"gorm.io/gorm"
)

// MatchRecord is one archived match and its final per-seat results.
type MatchRecord struct {
	gorm.Model
	MatchID   string         `gorm:"size:32;uniqueIndex;not null" json:"matchID"`
	BombCount int            `gorm:"not null" json:"bombCount"`
	StartedAt time.Time      `json:"startedAt"`
	EndedAt   time.Time      `json:"endedAt"`
	Results   []PlayerResult `gorm:"foreignKey:MatchRecordID" json:"results"`
}

// PlayerResult is one seat's final name, color, and score within a match.
type PlayerResult struct {
	gorm.Model
	MatchRecordID uint   `json:"-"`
	SeatID        uint32 `gorm:"not null" json:"seatID"`
	Name          string `gorm:"size:64;not null" json:"name"`
	Color         string `gorm:"size:16;not null" json:"color"`
	Score         uint64 `gorm:"not null" json:"score"`
}

// PlayerAggregate is one display name's standing across all archived matches.
type PlayerAggregate struct {
	Name          string `json:"name"`
	TotalScore    uint64 `json:"totalScore"`
	MatchesPlayed int64  `json:"matchesPlayed"`
}

// GeneralStats summarizes the archive as a whole.
type GeneralStats struct {
	TotalMatches int64 `json:"totalMatches"`
	TotalPlayers int64 `json:"totalPlayers"`
}
