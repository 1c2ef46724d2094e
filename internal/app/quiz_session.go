package app

import (
	"github.com/google/uuid"

	"kodein-progress-service/internal/domain"
)

// QuizState enumerates the session states for the current question.
type QuizState int

const (
	// StateAnswering means an option may be selected for the current question.
	StateAnswering QuizState = iota
	// StateRevealed means the answer is locked and the explanation visible.
	StateRevealed
	// StateFinished means the final score is fixed; no further transitions.
	StateFinished
)

// RevealOutcome describes the current question after its answer is locked.
type RevealOutcome struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
}

// QuizSession walks a user through an ordered, non-restartable question
// sequence. It is purely in-memory and single-threaded; one session serves
// exactly one attempt. The running score changes only on Advance, so each
// question contributes to the score exactly once, and the final score is
// never recomputed after StateFinished.
type QuizSession struct {
	id        string
	questions []domain.QuizQuestion
	index     int
	selected  int
	state     QuizState
	score     int
}

const noSelection = -1

// NewQuizSession starts a session over the given questions.
func NewQuizSession(questions []domain.QuizQuestion) (*QuizSession, error) {
	if len(questions) == 0 {
		return nil, domain.ErrQuizNotFound
	}
	return &QuizSession{
		id:        uuid.NewString(),
		questions: questions,
		selected:  noSelection,
	}, nil
}

// ID identifies the session in logs.
func (s *QuizSession) ID() string { return s.id }

// State returns the current session state.
func (s *QuizSession) State() QuizState { return s.state }

// Index returns the zero-based index of the current question.
func (s *QuizSession) Index() int { return s.index }

// Total returns the number of questions in the session.
func (s *QuizSession) Total() int { return len(s.questions) }

// Score returns the running score (final once the session is finished).
func (s *QuizSession) Score() int { return s.score }

// Current returns the question being answered or revealed.
func (s *QuizSession) Current() domain.QuizQuestion {
	return s.questions[s.index]
}

// Select records the chosen option for the current question. No scoring
// happens here; the choice can be changed until Reveal locks it.
func (s *QuizSession) Select(option int) error {
	switch s.state {
	case StateFinished:
		return domain.ErrQuizFinished
	case StateRevealed:
		return domain.ErrAlreadyRevealed
	}
	if option < 0 || option >= len(s.questions[s.index].Options) {
		return domain.ErrOptionOutOfRange
	}
	s.selected = option
	return nil
}

// Reveal locks the selected answer and exposes the correct option and
// explanation. The score is deliberately untouched here.
func (s *QuizSession) Reveal() (RevealOutcome, error) {
	switch s.state {
	case StateFinished:
		return RevealOutcome{}, domain.ErrQuizFinished
	case StateRevealed:
		return RevealOutcome{}, domain.ErrAlreadyRevealed
	}
	if s.selected == noSelection {
		return RevealOutcome{}, domain.ErrNoSelection
	}
	s.state = StateRevealed
	q := s.questions[s.index]
	return RevealOutcome{
		Correct:       s.selected == q.CorrectAnswer,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}, nil
}

// Advance scores the revealed question and moves on. On the last question it
// finishes the session and returns the final score; afterwards the session
// accepts no further transitions.
func (s *QuizSession) Advance() (finished bool, score int, err error) {
	switch s.state {
	case StateFinished:
		return false, s.score, domain.ErrQuizFinished
	case StateAnswering:
		return false, s.score, domain.ErrNotRevealed
	}
	if s.selected == s.questions[s.index].CorrectAnswer {
		s.score++
	}
	if s.index == len(s.questions)-1 {
		s.state = StateFinished
		return true, s.score, nil
	}
	s.index++
	s.selected = noSelection
	s.state = StateAnswering
	return false, s.score, nil
}
