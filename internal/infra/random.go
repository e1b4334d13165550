package infra

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Random - источник случайности пайплайна. Внедряется, чтобы тесты были детерминированными.
type Random interface {
	Float64() float64 // [0,1)
	IntN(n int) int   // [0,n)
}

// LockedRand - потокобезопасная обертка над math/rand/v2:
// генератор тикает из своей горутины, а HTTP-хендлеры из своих.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom создает источник с фиксированным seed; seed == 0 берет текущее время.
func NewRandom(seed uint64) *LockedRand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &LockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Uniform возвращает U(0, max).
func Uniform(r Random, max float64) float64 {
	return r.Float64() * max
}
