package ledger

import (
	"context"
	"errors"

	"github.com/safefeed-org/safefeed/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormLedger struct {
	DB *gorm.DB
}

var _ Ledger = (*GormLedger)(nil)

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{DB: db}
}

func (l *GormLedger) RecordDecision(ctx context.Context, communityID uint, author string, removed bool) error {
	if !removed {
		return nil
	}
	// single-statement upsert; the increment happens inside the database so
	// concurrent removals for the same author cannot lose updates
	return l.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "community_id"}, {Name: "author_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"violation_count": gorm.Expr("violators.violation_count + 1"),
		}),
	}).Create(&models.Violator{
		CommunityID:    communityID,
		AuthorName:     author,
		ViolationCount: 1,
	}).Error
}

func (l *GormLedger) GetViolationCount(ctx context.Context, communityID uint, author string) (int64, error) {
	var rec models.Violator
	err := l.DB.WithContext(ctx).Where("community_id = ? AND author_name = ?", communityID, author).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.ViolationCount, nil
}

// TopViolators lists the worst repeat offenders in a community, most
// violations first.
func (l *GormLedger) TopViolators(ctx context.Context, communityID uint, limit int) ([]models.Violator, error) {
	var recs []models.Violator
	err := l.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("violation_count DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}
