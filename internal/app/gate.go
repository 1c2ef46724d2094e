package app

import "math"

// MinPassingScore is the smallest score that passes a quiz of the given
// length: at least 70% correct, rounded up.
func MinPassingScore(total int) int {
	return (total*7 + 9) / 10
}

// Passes reports whether a final quiz score completes the lesson. A perfect
// score always passes regardless of how the 70% line rounds.
func Passes(score, total int) bool {
	return score >= MinPassingScore(total) || score == total
}

// Percentage is the rounded percent score shown to the user.
func Percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
