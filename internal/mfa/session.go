// Package mfa - симулированный телефон оператора: одно окно подтверждения за раз.
package mfa

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
	"go.uber.org/zap"
)

const DefaultAutoReset = 1500 * time.Millisecond

type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionDeny    Action = "DENY"
)

// ParseAction разбирает кнопку телефона (регистр не важен).
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToUpper(strings.TrimSpace(s))); a {
	case ActionApprove, ActionDeny:
		return a, nil
	}
	return "", fmt.Errorf("phone action %q: %w", s, domain.ErrUnknownAction)
}

// Publisher - шина с точки зрения сессии.
type Publisher interface {
	Publish(ev domain.ScoredEvent)
}

// Session - автомат IDLE -> PROMPTED -> (APPROVED | DENIED) -> IDLE.
type Session struct {
	mu      sync.Mutex
	state   domain.MFAState
	cancel  func() bool
	resetIn time.Duration

	sched    infra.Scheduler
	approved func() domain.ScoredEvent
	pub      Publisher
	logger   *zap.Logger

	onChange func(domain.MFAState)
}

// NewSession: approved строит событие подтверждения (MFA APPROVED BY DEVICE).
func NewSession(resetIn time.Duration, sched infra.Scheduler, approved func() domain.ScoredEvent, pub Publisher, logger *zap.Logger) *Session {
	if resetIn <= 0 {
		resetIn = DefaultAutoReset
	}
	return &Session{
		state:    domain.MFAState{Phase: domain.MFAIdle},
		resetIn:  resetIn,
		sched:    sched,
		approved: approved,
		pub:      pub,
		logger:   logger.With(zap.String("mod", "mfa")),
	}
}

// OnChange регистрирует наблюдателя за сменой фазы (трансляция в сокет).
func (s *Session) OnChange(f func(domain.MFAState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = f
}

// State возвращает текущую фазу и сообщение.
func (s *Session) State() domain.MFAState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Trigger показывает запрос на телефоне. Повторный вызов в PROMPTED перезаписывает сообщение.
func (s *Session) Trigger(msg string) error {
	s.mu.Lock()
	if s.state.Phase == domain.MFAApproved {
		s.mu.Unlock()
		return domain.ErrSessionBusy
	}
	s.state = domain.MFAState{Phase: domain.MFAPrompted, Message: msg}
	st, notify := s.state, s.onChange
	s.mu.Unlock()

	s.logger.Info("phone prompt", zap.String("msg", msg))
	if notify != nil {
		notify(st)
	}
	return nil
}

// Act обрабатывает нажатие кнопки на телефоне.
func (s *Session) Act(action Action) error {
	switch action {
	case ActionApprove:
		return s.Approve()
	case ActionDeny:
		return s.Deny()
	}
	return fmt.Errorf("phone action %q: %w", action, domain.ErrUnknownAction)
}

// Approve держит экран успеха resetIn, затем публикует подтверждение и возвращается в IDLE.
func (s *Session) Approve() error {
	s.mu.Lock()
	if s.state.Phase != domain.MFAPrompted {
		phase := s.state.Phase
		s.mu.Unlock()
		return fmt.Errorf("approve in %s: %w", phase, domain.ErrInvalidTransition)
	}
	s.state = domain.MFAState{Phase: domain.MFAApproved}
	s.cancel = s.sched.AfterFunc(s.resetIn, s.complete)
	st, notify := s.state, s.onChange
	s.mu.Unlock()

	s.logger.Info("phone approved")
	if notify != nil {
		notify(st)
	}
	return nil
}

func (s *Session) complete() {
	s.mu.Lock()
	if s.state.Phase != domain.MFAApproved {
		s.mu.Unlock()
		return
	}
	s.state = domain.MFAState{Phase: domain.MFAIdle}
	s.cancel = nil
	st, notify := s.state, s.onChange
	s.mu.Unlock()

	s.pub.Publish(s.approved())
	if notify != nil {
		notify(st)
	}
}

// Deny сразу возвращает телефон в IDLE, событий не публикуется.
func (s *Session) Deny() error {
	s.mu.Lock()
	if s.state.Phase != domain.MFAPrompted {
		phase := s.state.Phase
		s.mu.Unlock()
		return fmt.Errorf("deny in %s: %w", phase, domain.ErrInvalidTransition)
	}
	s.state = domain.MFAState{Phase: domain.MFAIdle}
	st, notify := s.state, s.onChange
	s.mu.Unlock()

	s.logger.Info("phone denied")
	if notify != nil {
		notify(st)
	}
	return nil
}

// Stop отменяет отложенный сброс (остановка сервиса).
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
