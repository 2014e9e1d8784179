package engine

import (
	"math/rand/v2"
	"slices"

	"superstore-dashboard/internal/models"
)

// MaxSample caps the number of records drawn for the sales/profit scatter.
const MaxSample = 1000

// Sample draws up to limit records from v uniformly without replacement and
// returns them in view order. limit <= 0 or above MaxSample means MaxSample.
//
// This is the one non-deterministic operation in the package: two calls on
// the same view may differ. Pass a seeded rng to make it repeatable; a nil
// rng uses a randomly seeded source.
func Sample(v View, limit int, rng *rand.Rand) []models.Record {
	if limit <= 0 || limit > MaxSample {
		limit = MaxSample
	}
	n := v.Len()
	if n <= limit {
		return v.Records()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	// Partial Fisher-Yates over a private copy of the positions.
	pos := v.Positions()
	for i := 0; i < limit; i++ {
		j := i + rng.IntN(n-i)
		pos[i], pos[j] = pos[j], pos[i]
	}
	picked := pos[:limit]
	slices.Sort(picked)

	out := make([]models.Record, len(picked))
	for i, p := range picked {
		out[i] = v.set.At(int(p))
	}
	return out
}
