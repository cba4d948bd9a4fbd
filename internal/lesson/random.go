package lesson

import (
	"math/rand"
	"sync"
	"time"
)

// Randomizer picks an index in [0, n)
type Randomizer interface {
	Choose(n int) int
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom returns a Randomizer backed by math/rand
func NewRandom() Randomizer {
	return &lockedRand{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *lockedRand) Choose(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// shuffle permutes s in place with r
func shuffle[T any](r Randomizer, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Choose(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
