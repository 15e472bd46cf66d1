package domain

import "errors"

var (
	// ErrNoQuestions is returned when the question source cannot supply
	// enough questions for the requested parameters.
	ErrNoQuestions = errors.New("not enough questions for the requested parameters")
	// ErrInvalidParameter indicates a malformed question request.
	ErrInvalidParameter = errors.New("invalid question request parameter")
	// ErrTokenNotFound maps the trivia API's missing-token response.
	ErrTokenNotFound = errors.New("trivia session token not found")
	// ErrTokenExhausted maps the trivia API's empty-token response.
	ErrTokenExhausted = errors.New("trivia session token exhausted")
	// ErrSessionNotFound is returned when acting on a session that was
	// never started.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrNoActiveQuiz is returned when answering without a loaded question set.
	ErrNoActiveQuiz = errors.New("no active quiz")
	// ErrQuizCompleted is returned when answering a finished session.
	ErrQuizCompleted = errors.New("quiz already completed")
	// ErrNoResumeOffer is returned when accepting or declining a resume that
	// was never offered.
	ErrNoResumeOffer = errors.New("no pending resume offer")
	// ErrUsernameRequired is returned on login with an empty username.
	ErrUsernameRequired = errors.New("username required")
)
