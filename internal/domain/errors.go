package domain

import "errors"

var (
	// ErrProfileNotFound is returned when a user's profile row does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrLessonNotFound indicates the lesson content could not be loaded.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrQuizNotFound indicates a lesson has no quiz questions.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrMalformedQuiz indicates quiz content failed shape validation at the
	// storage boundary (bad options payload or out-of-range answer index).
	ErrMalformedQuiz = errors.New("malformed quiz content")
	// ErrNoSelection is returned when revealing before selecting an option.
	ErrNoSelection = errors.New("no option selected")
	// ErrNotRevealed is returned when advancing before revealing the answer.
	ErrNotRevealed = errors.New("answer not revealed")
	// ErrAlreadyRevealed is returned when selecting after the answer is locked.
	ErrAlreadyRevealed = errors.New("answer already revealed")
	// ErrQuizFinished is returned for any transition after the final score.
	ErrQuizFinished = errors.New("quiz already finished")
	// ErrOptionOutOfRange is returned when a selected index has no option.
	ErrOptionOutOfRange = errors.New("option index out of range")
)
