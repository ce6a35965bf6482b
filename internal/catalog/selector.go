package catalog

import (
	"math/rand/v2"

	"github.com/stemsi/exsim-backend/internal/model"
)

// RandomSource is the subset of *rand.Rand the selector needs.
type RandomSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Select returns min(count, active) distinct active modules in random order.
// The whole active set is Fisher-Yates shuffled before truncation so every
// subset and every ordering is equally likely. A nil rng uses the global
// generator.
func Select(mods []model.Module, count int, rng RandomSource) []model.Module {
	if rng == nil {
		rng = globalSource{}
	}

	pool := Active(mods)
	for i := len(pool) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	if count < 0 {
		count = 0
	}
	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count:count]
}
