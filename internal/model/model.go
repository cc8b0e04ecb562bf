package model

import "time"

type QuestionType string

const (
	TypeTrueFalse QuestionType = "trueFalse"
	TypeChoice    QuestionType = "choice"
)

// Badge is the short label shown next to a question of this type.
func (t QuestionType) Badge() string {
	if t == TypeTrueFalse {
		return "○ ×"
	}
	return "4 choices"
}

// QuestionRecord is one entry of the question bank. The engine never mutates it.
type QuestionRecord struct {
	Question    string       `json:"question" yaml:"question"`
	Type        QuestionType `json:"type" yaml:"type"`
	Choices     []string     `json:"choices" yaml:"choices"`
	Answer      int          `json:"answer" yaml:"answer"` // index into Choices
	Explanation string       `json:"explanation" yaml:"explanation"`
	ReelURL     string       `json:"reel_url,omitempty" yaml:"reelUrl,omitempty"`
}

// CorrectText returns the canonical text of the correct choice.
func (q QuestionRecord) CorrectText() string {
	return q.Choices[q.Answer]
}

// PresentedQuestion is one rendering of a question, possibly with shuffled options.
type PresentedQuestion struct {
	DisplayChoices      []string `json:"display_choices"`
	CorrectDisplayIndex int      `json:"-"`
}

// AnswerRecord is one entry of the answer log. Its JSON keys are the ones
// telemetry collectors already receive from the browser client.
type AnswerRecord struct {
	QuestionText      string       `json:"question"`
	Type              QuestionType `json:"type"`
	UserAnswerText    string       `json:"userAnswer"`
	CorrectAnswerText string       `json:"correctAnswer"`
	IsCorrect         bool         `json:"isCorrect"`
	Explanation       string       `json:"explanation"`
}

type Tier string

const (
	TierPerfect    Tier = "perfect"
	TierGreat      Tier = "great"
	TierGood       Tier = "good"
	TierRoomToGrow Tier = "room to grow"
	TierGoFindOut  Tier = "go find out"
)

type SessionSummary struct {
	CorrectCount int            `json:"correct_count"`
	Total        int            `json:"total"`
	Percent      int            `json:"percent"`
	Tier         Tier           `json:"tier"`
	WrongAnswers []AnswerRecord `json:"wrong_answers"`
}

// ResultSnapshot is handed to the telemetry side channel when a session completes.
type ResultSnapshot struct {
	SessionID string         `json:"sessionId"`
	Timestamp time.Time      `json:"timestamp"`
	Answers   []AnswerRecord `json:"answers"`
}

// SessionResult is a telemetry snapshot as stored by the collector.
type SessionResult struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	SessionID    string         `json:"session_id" gorm:"not null;uniqueIndex"`
	SubmittedAt  time.Time      `json:"submitted_at" gorm:"not null"`
	CorrectCount int            `json:"correct_count"`
	Total        int            `json:"total"`
	Percent      int            `json:"percent"`
	Answers      []ResultAnswer `json:"answers" gorm:"foreignKey:SessionResultID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type ResultAnswer struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	SessionResultID uint      `json:"session_result_id" gorm:"index"`
	Position        int       `json:"position"`
	QuestionText    string    `json:"question" gorm:"not null"`
	Type            string    `json:"type"`
	UserAnswer      string    `json:"user_answer"`
	CorrectAnswer   string    `json:"correct_answer"`
	IsCorrect       bool      `json:"is_correct"`
	Explanation     string    `json:"explanation"`
	CreatedAt       time.Time `json:"created_at"`
}

// QuestionMissStat aggregates collected answers for one question.
type QuestionMissStat struct {
	QuestionText string `json:"question"`
	Attempts     int    `json:"attempts"`
	Misses       int    `json:"misses"`
}
