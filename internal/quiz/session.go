package quiz

import (
	"fmt"

	"quiz-session-backend/internal/model"
)

type State int

const (
	StateIdle State = iota
	StateInProgress
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Session is one quiz run. It is not safe for concurrent use; callers that share a
// Session between goroutines must serialize every call.
type Session struct {
	state        State
	questions    []model.QuestionRecord
	currentIndex int
	answers      []model.AnswerRecord

	// presented holds the last presentation of questions[currentIndex].
	presented *model.PresentedQuestion
}

func NewSession() *Session {
	return &Session{}
}

// Start selects the questions for a new run and discards any previous progress.
func (s *Session) Start(bank []model.QuestionRecord, requestedCount int) error {
	if len(bank) == 0 {
		return fmt.Errorf("%w: question bank is empty", ErrInvalidConfig)
	}
	if requestedCount < 0 {
		return fmt.Errorf("%w: requested count %d is negative", ErrInvalidConfig, requestedCount)
	}
	for i, q := range bank {
		if len(q.Choices) == 0 || q.Answer < 0 || q.Answer >= len(q.Choices) {
			return fmt.Errorf("%w: question %d has answer %d for %d choices", ErrInvalidConfig, i, q.Answer, len(q.Choices))
		}
	}

	shuffled := Shuffle(bank)
	total := EffectiveCount(requestedCount, len(shuffled))

	s.questions = shuffled[:total:total]
	s.currentIndex = 0
	s.answers = make([]model.AnswerRecord, 0, total)
	s.presented = nil
	s.state = StateInProgress
	return nil
}

// Retry starts a new run over the same bank with the previous run's question count.
func (s *Session) Retry(bank []model.QuestionRecord) error {
	return s.Start(bank, len(s.questions))
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) IsComplete() bool {
	return s.state == StateComplete
}

// Total is the number of questions selected for this run.
func (s *Session) Total() int {
	return len(s.questions)
}

// Index is the zero-based position of the current question; it equals Total once complete.
func (s *Session) Index() int {
	return s.currentIndex
}

func (s *Session) CurrentQuestion() (model.QuestionRecord, error) {
	if s.currentIndex >= len(s.questions) {
		return model.QuestionRecord{}, fmt.Errorf("%w: index %d of %d", ErrOutOfRange, s.currentIndex, len(s.questions))
	}
	return s.questions[s.currentIndex], nil
}

// Present renders the current question. Choice questions get a fresh option order on
// every call; the latest rendering is the one SubmitAnswer scores against.
func (s *Session) Present() (model.PresentedQuestion, error) {
	q, err := s.CurrentQuestion()
	if err != nil {
		return model.PresentedQuestion{}, err
	}

	p := present(q)
	s.presented = &p
	return clonePresented(p), nil
}

// Presentation returns the cached rendering of the current question, if any.
func (s *Session) Presentation() (model.PresentedQuestion, bool) {
	if s.presented == nil {
		return model.PresentedQuestion{}, false
	}
	return clonePresented(*s.presented), true
}

func present(q model.QuestionRecord) model.PresentedQuestion {
	if q.Type != model.TypeChoice {
		display := make([]string, len(q.Choices))
		copy(display, q.Choices)
		return model.PresentedQuestion{DisplayChoices: display, CorrectDisplayIndex: q.Answer}
	}

	indices := make([]int, len(q.Choices))
	for i := range indices {
		indices[i] = i
	}
	order := Shuffle(indices)

	p := model.PresentedQuestion{DisplayChoices: make([]string, len(order))}
	for pos, idx := range order {
		p.DisplayChoices[pos] = q.Choices[idx]
		if idx == q.Answer {
			p.CorrectDisplayIndex = pos
		}
	}
	return p
}

// SubmitAnswer records the participant's choice for the current question and advances.
func (s *Session) SubmitAnswer(selectedDisplayIndex int) (model.AnswerRecord, error) {
	q, err := s.CurrentQuestion()
	if err != nil {
		return model.AnswerRecord{}, err
	}

	if s.presented == nil {
		p := present(q)
		s.presented = &p
	}
	p := s.presented

	if selectedDisplayIndex < 0 || selectedDisplayIndex >= len(p.DisplayChoices) {
		return model.AnswerRecord{}, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidSelection, selectedDisplayIndex, len(p.DisplayChoices))
	}

	record := model.AnswerRecord{
		QuestionText:      q.Question,
		Type:              q.Type,
		UserAnswerText:    p.DisplayChoices[selectedDisplayIndex],
		CorrectAnswerText: q.CorrectText(),
		IsCorrect:         selectedDisplayIndex == p.CorrectDisplayIndex,
		Explanation:       q.Explanation,
	}

	s.answers = append(s.answers, record)
	s.currentIndex++
	s.presented = nil
	if s.currentIndex == len(s.questions) {
		s.state = StateComplete
	}
	return record, nil
}

// Answers returns a copy of the answer log.
func (s *Session) Answers() []model.AnswerRecord {
	out := make([]model.AnswerRecord, len(s.answers))
	copy(out, s.answers)
	return out
}

// Summarize scores the answers recorded so far.
func (s *Session) Summarize() (model.SessionSummary, error) {
	return Summarize(s.answers)
}

func clonePresented(p model.PresentedQuestion) model.PresentedQuestion {
	display := make([]string, len(p.DisplayChoices))
	copy(display, p.DisplayChoices)
	return model.PresentedQuestion{DisplayChoices: display, CorrectDisplayIndex: p.CorrectDisplayIndex}
}
