package domain

import "errors"

var (
	// ErrQuizInProgress is returned when a chat already has a live or
	// pending-setup quiz.
	ErrQuizInProgress = errors.New("quiz already in progress")
	// ErrNoPendingSetup is returned when a setup step arrives for a chat
	// that never started one.
	ErrNoPendingSetup = errors.New("no quiz setup pending")
	// ErrMissingCategory is returned when round selection arrives before a
	// category was chosen.
	ErrMissingCategory = errors.New("category not selected")
	// ErrInsufficientQuestions indicates the category pool cannot cover the
	// requested number of rounds.
	ErrInsufficientQuestions = errors.New("not enough questions in category")
)
