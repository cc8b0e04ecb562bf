package quiz

import (
	"fmt"

	"quiz-session-backend/internal/model"
)

// Summarize scores a finished answer log. It is pure: the same log always yields the same summary.
func Summarize(answers []model.AnswerRecord) (model.SessionSummary, error) {
	if len(answers) == 0 {
		return model.SessionSummary{}, fmt.Errorf("%w: cannot summarize", ErrEmptySession)
	}

	summary := model.SessionSummary{
		Total:        len(answers),
		WrongAnswers: make([]model.AnswerRecord, 0),
	}
	for _, a := range answers {
		if a.IsCorrect {
			summary.CorrectCount++
			continue
		}
		summary.WrongAnswers = append(summary.WrongAnswers, a)
	}

	summary.Percent = Percent(summary.CorrectCount, summary.Total)
	summary.Tier = TierFor(summary.Percent)
	return summary, nil
}

// Percent is correct/total as a whole percentage, rounded half up.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

func TierFor(percent int) model.Tier {
	switch {
	case percent >= 100:
		return model.TierPerfect
	case percent >= 80:
		return model.TierGreat
	case percent >= 60:
		return model.TierGood
	case percent >= 40:
		return model.TierRoomToGrow
	default:
		return model.TierGoFindOut
	}
}

// Band is the colour bracket of the result chart.
type Band string

const (
	BandGreen Band = "green"
	BandAmber Band = "amber"
	BandRed   Band = "red"
)

func BandFor(percent int) Band {
	switch {
	case percent >= 80:
		return BandGreen
	case percent >= 50:
		return BandAmber
	default:
		return BandRed
	}
}
