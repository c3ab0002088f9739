package service

import (
	"math/rand"
	"time"
)

// Clock supplies the current time. Production code uses SystemClock; tests
// substitute a fixed clock to step through visibility windows and budget
// days deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Rand draws uniform random integers. Intn must behave like math/rand.Intn:
// uniform in [0, n), panic for n <= 0.
type Rand interface {
	Intn(n int) int
}

type systemRand struct{}

// The global math/rand source is safe for concurrent use, unlike a private
// rand.Rand.
func (systemRand) Intn(n int) int { return rand.Intn(n) }

// SystemRand returns a Rand backed by the global math/rand source.
func SystemRand() Rand { return systemRand{} }
