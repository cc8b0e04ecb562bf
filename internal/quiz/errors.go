package quiz

import "errors"

var (
	// ErrInvalidConfig is returned by Start for an empty bank or a negative count.
	ErrInvalidConfig = errors.New("invalid session config")
	// ErrOutOfRange is returned when there is no current question.
	ErrOutOfRange = errors.New("no current question")
	// ErrInvalidSelection is returned for a selection outside the presented choices.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrEmptySession is returned when summarizing a session with no answers.
	ErrEmptySession = errors.New("no answers recorded")
)
