package bank

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"quiz-session-backend/internal/model"
)

//go:embed default_bank.yaml
var defaultBank []byte

var ErrEmptyBank = errors.New("question bank has no questions")

type file struct {
	Questions []model.QuestionRecord `yaml:"questions"`
}

// Load reads a question bank from a YAML or JSON file. An empty path loads the
// bank compiled into the binary.
func Load(path string) ([]model.QuestionRecord, error) {
	if path == "" {
		return Parse(defaultBank)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a bank document.
func Parse(data []byte) ([]model.QuestionRecord, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, ErrEmptyBank
	}
	for i, q := range f.Questions {
		if err := Validate(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return f.Questions, nil
}

// Validate checks one record against the bank's shape rules.
func Validate(q model.QuestionRecord) error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("question text is empty")
	}

	want := 0
	switch q.Type {
	case model.TypeTrueFalse:
		want = 2
	case model.TypeChoice:
		want = 4
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	if len(q.Choices) != want {
		return fmt.Errorf("%s question needs %d choices, got %d", q.Type, want, len(q.Choices))
	}
	if q.Answer < 0 || q.Answer >= len(q.Choices) {
		return fmt.Errorf("answer %d out of range for %d choices", q.Answer, len(q.Choices))
	}
	return nil
}
