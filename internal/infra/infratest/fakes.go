// Package infratest содержит детерминированные подмены Random и Scheduler для тестов.
package infratest

import (
	"sort"
	"sync"
	"time"
)

// FixedRandom всегда возвращает одно и то же значение u в [0,1).
// IntN(n) отдает floor(u*n), так что u=0.999 - "максимальный джиттер".
type FixedRandom struct {
	U float64
}

func (f FixedRandom) Float64() float64 { return f.U }

func (f FixedRandom) IntN(n int) int { return int(f.U * float64(n)) }

// ScriptedRandom отдает значения по очереди; после исчерпания повторяет последнее.
// Ints обслуживает IntN, Floats - Float64.
type ScriptedRandom struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
	fi, ii int
}

func (s *ScriptedRandom) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[min(s.fi, len(s.Floats)-1)]
	s.fi++
	return v
}

func (s *ScriptedRandom) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[min(s.ii, len(s.Ints)-1)]
	s.ii++
	if v >= n {
		v = n - 1
	}
	return v
}

// ManualScheduler копит задачи до явного Advance.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*task
}

type task struct {
	at       time.Duration
	seq      int
	f        func()
	canceled bool
	fired    bool
}

func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &task{at: m.now + d, seq: m.seq, f: f}
	m.tasks = append(m.tasks, t)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if t.fired || t.canceled {
			return false
		}
		t.canceled = true
		return true
	}
}

// Advance сдвигает виртуальное время и синхронно выполняет созревшие задачи.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	var due []*task
	rest := m.tasks[:0]
	for _, t := range m.tasks {
		switch {
		case t.canceled:
		case t.at <= m.now:
			t.fired = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	m.tasks = rest
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	for _, t := range due {
		t.f()
	}
}

// Pending - количество неотмененных задач в очереди.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.canceled {
			n++
		}
	}
	return n
}
