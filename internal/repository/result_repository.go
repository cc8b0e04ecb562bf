package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"quiz-session-backend/internal/model"
)

var ErrDuplicateResult = errors.New("result already recorded")

type ResultRepository interface {
	SaveResult(result *model.SessionResult) error
	GetRecentResults(limit int) ([]model.SessionResult, error)
	GetResultBySessionID(sessionID string) (*model.SessionResult, error)
	GetMissStats(limit int) ([]model.QuestionMissStat, error)
}

type resultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// SaveResult stores a result and its answers. A second result for the same
// session is ignored and reported as ErrDuplicateResult.
func (r *resultRepository) SaveResult(result *model.SessionResult) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
			Omit("Answers").Create(result)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateResult
		}
		for i := range result.Answers {
			result.Answers[i].SessionResultID = result.ID
		}
		if len(result.Answers) == 0 {
			return nil
		}
		return tx.Create(&result.Answers).Error
	})
}

func (r *resultRepository) GetRecentResults(limit int) ([]model.SessionResult, error) {
	var results []model.SessionResult
	err := r.db.Preload("Answers", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Order("submitted_at desc").Limit(limit).Find(&results).Error
	return results, err
}

func (r *resultRepository) GetResultBySessionID(sessionID string) (*model.SessionResult, error) {
	var result model.SessionResult
	err := r.db.Preload("Answers").Where("session_id = ?", sessionID).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMissStats ranks questions by how often they were answered wrongly.
func (r *resultRepository) GetMissStats(limit int) ([]model.QuestionMissStat, error) {
	var stats []model.QuestionMissStat
	err := r.db.Model(&model.ResultAnswer{}).
		Select("question_text, COUNT(*) AS attempts, SUM(CASE WHEN is_correct THEN 0 ELSE 1 END) AS misses").
		Group("question_text").
		Order("misses desc, question_text asc").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}
