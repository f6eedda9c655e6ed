package model

import "errors"

var (
	ErrNotStarted     = errors.New("wizard sequence not started")
	ErrAlreadyStarted = errors.New("wizard sequence already started")
	ErrSequenceClosed = errors.New("wizard sequence closed")
	ErrNoQuestions    = errors.New("wizard has no questions")
)
