/*
 * file: repository.go
 * package: repository
 * description:
 *     Provides the concrete GORM implementation of the archive ports.
 *     GormHistoryRepository adapts match.MatchSummary into durable rows and
 *     serves the read-side queries the stats handlers depend on, keeping
 *     the core match logic decoupled from storage details.
 */

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
	"github.com/juan10024/bombrelay-server/internal/match"
)

// GormHistoryRepository is the GORM-backed adapter for match archival. It
// satisfies both match.HistoryRecorder (the write side the coordinator
// calls) and ports.HistoryRepository (the read side the stats handlers call).
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository constructs a new GormHistoryRepository instance.
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// RecordMatch persists a finished match's final scoreboard. It implements
// match.HistoryRecorder.
func (r *GormHistoryRepository) RecordMatch(ctx context.Context, summary match.MatchSummary) error {
	results := make([]domain.PlayerResult, len(summary.Players))
	for i, row := range summary.Players {
		results[i] = domain.PlayerResult{
			SeatID: uint32(row.ID),
			Name:   row.Name,
			Color:  row.Color,
			Score:  row.Score,
		}
	}
	record := &domain.MatchRecord{
		MatchID:   summary.MatchID,
		BombCount: summary.BombCount,
		StartedAt: summary.StartedAt,
		EndedAt:   summary.EndedAt,
		Results:   results,
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// GetMatchByID retrieves one archived match with its results, looked up by
// match_id alone. It returns nil, nil when no such match exists.
func (r *GormHistoryRepository) GetMatchByID(matchID string) (*domain.MatchRecord, error) {
	var record domain.MatchRecord
	err := r.db.Preload("Results").Where("match_id = ?", matchID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetRanking aggregates total score and matches played per display name,
// ordered highest total score first.
func (r *GormHistoryRepository) GetRanking(limit int) ([]domain.PlayerAggregate, error) {
	var rows []domain.PlayerAggregate
	err := r.db.Model(&domain.PlayerResult{}).
		Select("name, SUM(score) as total_score, COUNT(*) as matches_played").
		Group("name").
		Order("total_score DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// GetGeneralStats counts archived matches and distinct display names seen.
func (r *GormHistoryRepository) GetGeneralStats() (domain.GeneralStats, error) {
	var stats domain.GeneralStats
	if err := r.db.Model(&domain.MatchRecord{}).Count(&stats.TotalMatches).Error; err != nil {
		return stats, err
	}
	err := r.db.Model(&domain.PlayerResult{}).
		Distinct("name").
		Count(&stats.TotalPlayers).Error
	return stats, err
}
