package domain

import "math"

// LevelForXP maps accumulated experience to a level.
// Formula: level = floor(sqrt(xp / 100)) + 1, so level 1 starts at 0 XP,
// level 2 at 100, level 3 at 400. Negative input is a caller contract
// violation and is not defended against here.
func LevelForXP(xp int) int {
	return int(math.Sqrt(float64(xp)/100)) + 1
}

// XPForNextLevel returns the XP at which the next level begins. Used for
// progress-bar math only, never for awarding.
func XPForNextLevel(level int) int {
	return level * 100
}
