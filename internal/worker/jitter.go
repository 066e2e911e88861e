package worker

import (
	"math/rand"
	"time"
)

// JitterSource provides deterministic, per-worker jitter values. Using
// a per-worker seed keeps workers from tick-synchronizing with each
// other while staying reproducible for a given run seed.
type JitterSource struct {
	runSeed int64
}

// NewJitterSource creates a jitter source with the given run seed.
func NewJitterSource(runSeed int64) *JitterSource {
	return &JitterSource{runSeed: runSeed}
}

// NewJitterSourceFromTime creates a jitter source seeded from the current time.
func NewJitterSourceFromTime() *JitterSource {
	return NewJitterSource(time.Now().UnixNano())
}

// ForWorker returns a random number generator seeded for a specific
// worker. The same worker ID always produces the same sequence for a
// given run seed.
func (j *JitterSource) ForWorker(workerID int) *rand.Rand {
	seed := int64(workerID) ^ j.runSeed
	return rand.New(rand.NewSource(seed))
}

// Jitter returns a duration in [0, maxJitter) drawn from rng.
func Jitter(rng *rand.Rand, maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(int64(maxJitter)))
}
