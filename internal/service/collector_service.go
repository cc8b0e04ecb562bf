package service

import (
	"errors"
	"fmt"
	"time"

	"quiz-session-backend/internal/model"
	"quiz-session-backend/internal/quiz"
	"quiz-session-backend/internal/repository"
)

var ErrInvalidSnapshot = errors.New("invalid result snapshot")

// CollectorService is the receiving end of the telemetry side channel.
type CollectorService interface {
	Record(snapshot model.ResultSnapshot) (*model.SessionResult, error)
	Recent(limit int) ([]model.SessionResult, error)
	MostMissed(limit int) ([]model.QuestionMissStat, error)
	Get(sessionID string) (*model.SessionResult, error)
}

type collectorService struct {
	resultRepo repository.ResultRepository
}

func NewCollectorService(resultRepo repository.ResultRepository) CollectorService {
	return &collectorService{resultRepo: resultRepo}
}

func (s *collectorService) Record(snapshot model.ResultSnapshot) (*model.SessionResult, error) {
	if snapshot.SessionID == "" {
		return nil, fmt.Errorf("%w: missing sessionId", ErrInvalidSnapshot)
	}
	summary, err := quiz.Summarize(snapshot.Answers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	submitted := snapshot.Timestamp
	if submitted.IsZero() {
		submitted = time.Now().UTC()
	}

	result := &model.SessionResult{
		SessionID:    snapshot.SessionID,
		SubmittedAt:  submitted,
		CorrectCount: summary.CorrectCount,
		Total:        summary.Total,
		Percent:      summary.Percent,
		Answers:      make([]model.ResultAnswer, len(snapshot.Answers)),
	}
	for i, a := range snapshot.Answers {
		result.Answers[i] = model.ResultAnswer{
			Position:      i + 1,
			QuestionText:  a.QuestionText,
			Type:          string(a.Type),
			UserAnswer:    a.UserAnswerText,
			CorrectAnswer: a.CorrectAnswerText,
			IsCorrect:     a.IsCorrect,
			Explanation:   a.Explanation,
		}
	}

	if err := s.resultRepo.SaveResult(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *collectorService) Recent(limit int) ([]model.SessionResult, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.resultRepo.GetRecentResults(limit)
}

func (s *collectorService) MostMissed(limit int) ([]model.QuestionMissStat, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.resultRepo.GetMissStats(limit)
}

func (s *collectorService) Get(sessionID string) (*model.SessionResult, error) {
	return s.resultRepo.GetResultBySessionID(sessionID)
}
