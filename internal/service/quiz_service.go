package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"quiz-session-backend/internal/model"
	"quiz-session-backend/internal/quiz"
	"quiz-session-backend/utilities"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

type QuizService interface {
	Options() QuizOptions
	StartSession(count *int) (*SessionInfo, error)
	RetrySession(sessionID string) (*SessionInfo, error)
	CurrentQuestion(sessionID string) (*QuestionView, error)
	SubmitAnswer(sessionID string, index int) (*AnswerFeedback, error)
	Summary(sessionID string) (*model.SessionSummary, error)
	EndSession(sessionID string) error
}

// QuizOptions describes what a client may ask for when starting a session.
type QuizOptions struct {
	CountOptions []int `json:"count_options"`
	DefaultCount int   `json:"default_count"`
	BankSize     int   `json:"bank_size"`
}

type SessionInfo struct {
	SessionID string `json:"session_id"`
	Total     int    `json:"total"`
}

// QuestionView is the current question as the participant sees it. It never
// carries the correct index.
type QuestionView struct {
	SessionID string             `json:"session_id"`
	Number    int                `json:"number"`
	Total     int                `json:"total"`
	Progress  int                `json:"progress"`
	Type      model.QuestionType `json:"type"`
	Badge     string             `json:"badge"`
	Question  string             `json:"question"`
	Choices   []string           `json:"choices"`
}

type AnswerFeedback struct {
	IsCorrect     bool   `json:"is_correct"`
	SelectedIndex int    `json:"selected_index"`
	CorrectIndex  int    `json:"correct_index"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	ReelURL       string `json:"reel_url,omitempty"`
	Completed     bool   `json:"completed"`
}

type QuizServiceOptions struct {
	CountOptions   []int
	DefaultCount   int
	SessionTimeout time.Duration
	MaxSessions    int
	Events         *utilities.EventBus
	Now            func() time.Time
}

// sessionEntry guards one engine session; mu serializes every call on it.
type sessionEntry struct {
	mu         sync.Mutex
	session    *quiz.Session
	lastActive atomic.Int64
}

type quizService struct {
	bank []model.QuestionRecord
	opts QuizServiceOptions

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func NewQuizService(bank []model.QuestionRecord, opts QuizServiceOptions) QuizService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Events == nil {
		opts.Events = utilities.GlobalEventBus
	}
	return &quizService{
		bank:     bank,
		opts:     opts,
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *quizService) Options() QuizOptions {
	counts := make([]int, len(s.opts.CountOptions))
	copy(counts, s.opts.CountOptions)
	return QuizOptions{
		CountOptions: counts,
		DefaultCount: s.opts.DefaultCount,
		BankSize:     len(s.bank),
	}
}

// StartSession begins a new run. A nil count uses the configured default.
func (s *quizService) StartSession(count *int) (*SessionInfo, error) {
	requested := s.opts.DefaultCount
	if count != nil {
		requested = *count
	}
	return s.start(requested)
}

func (s *quizService) start(requested int) (*SessionInfo, error) {
	sess := quiz.NewSession()
	if err := sess.Start(s.bank, requested); err != nil {
		return nil, err
	}

	entry := &sessionEntry{session: sess}
	entry.lastActive.Store(s.opts.Now().UnixNano())
	id := uuid.NewString()

	s.mu.Lock()
	s.evictExpiredLocked()
	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		s.mu.Unlock()
		return nil, ErrTooManySessions
	}
	s.sessions[id] = entry
	s.mu.Unlock()

	utilities.Info("session %s started with %d questions", id, sess.Total())
	return &SessionInfo{SessionID: id, Total: sess.Total()}, nil
}

// RetrySession replaces a session with a fresh run of the same length.
func (s *quizService) RetrySession(sessionID string) (*SessionInfo, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	current, ok := s.sessions[sessionID]
	if ok && current == entry {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	if !ok || current != entry {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	total := entry.session.Total()
	entry.mu.Unlock()
	return s.start(total)
}

func (s *quizService) CurrentQuestion(sessionID string) (*QuestionView, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	q, err := entry.session.CurrentQuestion()
	if err != nil {
		return nil, err
	}
	p, err := entry.session.Present()
	if err != nil {
		return nil, err
	}

	number := entry.session.Index() + 1
	total := entry.session.Total()
	return &QuestionView{
		SessionID: sessionID,
		Number:    number,
		Total:     total,
		Progress:  number * 100 / total,
		Type:      q.Type,
		Badge:     q.Type.Badge(),
		Question:  q.Question,
		Choices:   p.DisplayChoices,
	}, nil
}

func (s *quizService) SubmitAnswer(sessionID string, index int) (*AnswerFeedback, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	q, err := entry.session.CurrentQuestion()
	if err != nil {
		return nil, err
	}
	p, ok := entry.session.Presentation()
	if !ok {
		if p, err = entry.session.Present(); err != nil {
			return nil, err
		}
	}

	record, err := entry.session.SubmitAnswer(index)
	if err != nil {
		return nil, err
	}

	feedback := &AnswerFeedback{
		IsCorrect:     record.IsCorrect,
		SelectedIndex: index,
		CorrectIndex:  p.CorrectDisplayIndex,
		UserAnswer:    record.UserAnswerText,
		CorrectAnswer: record.CorrectAnswerText,
		Explanation:   q.Explanation,
		ReelURL:       q.ReelURL,
		Completed:     entry.session.IsComplete(),
	}

	if feedback.Completed {
		s.opts.Events.Publish(utilities.EventSessionCompleted, model.ResultSnapshot{
			SessionID: sessionID,
			Timestamp: s.opts.Now().UTC(),
			Answers:   entry.session.Answers(),
		})
		utilities.Info("session %s completed", sessionID)
	}
	return feedback, nil
}

func (s *quizService) Summary(sessionID string) (*model.SessionSummary, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	summary, err := entry.session.Summarize()
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *quizService) EndSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *quizService) lookup(sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || s.expired(entry) {
		return nil, ErrSessionNotFound
	}
	entry.lastActive.Store(s.opts.Now().UnixNano())
	return entry, nil
}

func (s *quizService) expired(entry *sessionEntry) bool {
	if s.opts.SessionTimeout <= 0 {
		return false
	}
	last := time.Unix(0, entry.lastActive.Load())
	return s.opts.Now().Sub(last) > s.opts.SessionTimeout
}

func (s *quizService) evictExpiredLocked() {
	for id, entry := range s.sessions {
		if s.expired(entry) {
			delete(s.sessions, id)
		}
	}
}
