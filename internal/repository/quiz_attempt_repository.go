package repository

import (
	"context"
	"edu_player_backend/internal/model"

	"gorm.io/gorm"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) Create(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Create(attempt).Error
}

func (r *QuizAttemptRepository) FindByView(ctx context.Context, viewID string) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	if err := r.DB.WithContext(ctx).Where("view_id = ?", viewID).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *QuizAttemptRepository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]model.QuizAttempt, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&model.QuizAttempt{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []model.QuizAttempt
	if page < 1 {
		page = 1
	}
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	err := query.Order("created_at DESC").Find(&attempts).Error
	return attempts, total, err
}
