package repository

import (
	"context"
	"edu_player_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Create(ctx context.Context, record *model.ProgressRecord) error {
	return r.DB.WithContext(ctx).Create(record).Error
}

// Latest returns the most recent snapshot of a lesson for a user.
func (r *ProgressRepository) Latest(ctx context.Context, userID uint, lessonID string) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}
