package repository

import (
	"context"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/dto"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QsCandidateRepository interface {
	Upsert(ctx context.Context, candidates []entity.QsCandidate) error
	Get(ctx context.Context, param dto.GetCandidatesParam) ([]entity.QsCandidate, error)
	UpdateSurvival(ctx context.Context, candidate *entity.QsCandidate) error
}

type qsCandidateRepository struct {
	db *gorm.DB
}

func NewQsCandidateRepository(db *gorm.DB) QsCandidateRepository {
	return &qsCandidateRepository{db: db}
}

// Upsert makes the candidate scan idempotent: rerunning the scan for a trade
// day refreshes the selection metrics of existing rows instead of duplicating
// them, and never resurrects a row the monitor already rejected.
func (r *qsCandidateRepository) Upsert(ctx context.Context, candidates []entity.QsCandidate) error {
	if len(candidates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trade_date"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gap_up_rate", "prev_close", "day_open", "volume_ratio", "high_distance",
		}),
	}).Create(&candidates).Error
}

func (r *qsCandidateRepository) Get(ctx context.Context, param dto.GetCandidatesParam) ([]entity.QsCandidate, error) {
	q := r.db.WithContext(ctx).Where("trade_date = ?", param.TradeDate)
	if len(param.Statuses) > 0 {
		q = q.Where("status IN ?", param.Statuses)
	}
	var candidates []entity.QsCandidate
	if err := q.Order("gap_up_rate DESC, code ASC").Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

// UpdateSurvival persists the monitor's view of one candidate: latest price,
// day high, refreshed selection metrics, status and reject reason.
func (r *qsCandidateRepository) UpdateSurvival(ctx context.Context, candidate *entity.QsCandidate) error {
	return r.db.WithContext(ctx).Model(&entity.QsCandidate{}).
		Where("trade_date = ? AND code = ?", candidate.TradeDate, candidate.Code).
		Updates(map[string]interface{}{
			"day_high":      candidate.DayHigh,
			"latest_price":  candidate.LatestPrice,
			"volume_ratio":  candidate.VolumeRatio,
			"high_distance": candidate.HighDistance,
			"status":        candidate.Status,
			"reject_reason": candidate.RejectReason,
		}).Error
}
