// Package difficulty maps the session's adaptive level onto module tuning.
package difficulty

import (
	"math"

	"github.com/stemsi/exsim-backend/internal/model"
)

const (
	MinLevel   = 1
	MaxLevel   = 5
	StartLevel = MinLevel
)

// Time shrinks and item count grows as the level rises.
var profiles = [MaxLevel]model.DifficultyProfile{
	{Level: 1, Name: "easy", TimeMultiplier: 1.5, ItemCountMultiplier: 0.6},
	{Level: 2, Name: "moderate", TimeMultiplier: 1.25, ItemCountMultiplier: 0.8},
	{Level: 3, Name: "medium", TimeMultiplier: 1.0, ItemCountMultiplier: 1.0},
	{Level: 4, Name: "hard", TimeMultiplier: 0.85, ItemCountMultiplier: 1.25},
	{Level: 5, Name: "expert", TimeMultiplier: 0.7, ItemCountMultiplier: 1.5},
}

// Clamp bounds level to [MinLevel, MaxLevel].
func Clamp(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// ProfileFor returns the profile of level, clamping out-of-range input.
func ProfileFor(level int) model.DifficultyProfile {
	return profiles[Clamp(level)-1]
}

// Profiles returns every profile, easiest first.
func Profiles() []model.DifficultyProfile {
	return append([]model.DifficultyProfile(nil), profiles[:]...)
}

// NextLevel steps one level up on a pass and one down on a fail.
func NextLevel(current int, passed bool) int {
	if passed {
		return Clamp(current + 1)
	}
	return Clamp(current - 1)
}

// TimeLimit scales a module's nominal seconds by the level's time multiplier.
func TimeLimit(nominalSeconds, level int) int {
	return int(math.Round(float64(nominalSeconds) * ProfileFor(level).TimeMultiplier))
}
