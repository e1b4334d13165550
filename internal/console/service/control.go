package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/mfa"
	"github.com/xela07ax/ztna-soc-console/internal/source"
	"go.uber.org/zap"
)

// ErrInvalidInput - параметры управляющего действия не прошли разбор.
var ErrInvalidInput = errors.New("invalid control input")

// AppState - состояние дашборда, которое нужно панели управления.
type AppState interface {
	Select(department, ip string) (domain.Selection, error)
	Selection() (domain.Selection, bool)
	Clear()
}

// ScenarioRunner - сценарные READ/WRITE через Risk Engine (публикует сам).
type ScenarioRunner interface {
	Scenario(department string, action domain.ActionKind) (domain.ScoredEvent, error)
}

type Phone interface {
	Trigger(msg string) error
	Act(action mfa.Action) error
}

type Publisher interface {
	Publish(ev domain.ScoredEvent)
}

type Blocker interface {
	MarkAsBlocked(ip string) bool
}

// Controller - входы панели управления SOC. Каждое действие превращается в событие на шине.
type Controller struct {
	state    AppState
	scenario ScenarioRunner
	synth    *source.Synthesizer
	phone    Phone
	pub      Publisher
	blocker  Blocker
	logger   *zap.Logger
}

func NewController(
	state AppState,
	scenario ScenarioRunner,
	synth *source.Synthesizer,
	phone Phone,
	pub Publisher,
	blocker Blocker,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		state:    state,
		scenario: scenario,
		synth:    synth,
		phone:    phone,
		pub:      pub,
		blocker:  blocker,
		logger:   logger.Named("control-service"),
	}
}

func (c *Controller) SelectDepartment(name, ip string) (domain.Selection, error) {
	return c.state.Select(name, ip)
}

func (c *Controller) selection() (domain.Selection, error) {
	sel, ok := c.state.Selection()
	if !ok {
		return domain.Selection{}, domain.ErrPreconditionRefused
	}
	return sel, nil
}

// TryAccess - READ/WRITE от имени выбранного отдела. PENDING_MFA поднимает запрос на телефоне.
func (c *Controller) TryAccess(action string) (domain.ScoredEvent, error) {
	sel, err := c.selection()
	if err != nil {
		return domain.ScoredEvent{}, err
	}
	kind, err := domain.ParseAccessAction(action)
	if err != nil {
		return domain.ScoredEvent{}, fmt.Errorf("access action %q: %w", action, err)
	}

	ev, err := c.scenario.Scenario(sel.Department, kind)
	if err != nil {
		return domain.ScoredEvent{}, fmt.Errorf("access scenario: %w", err)
	}

	if ev.Status == domain.StatusPendingMFA {
		msg := fmt.Sprintf("REQ: %s for %s [%s]", kind, ev.User, ev.RiskLabel)
		if err := c.phone.Trigger(msg); err != nil {
			// Событие уже опубликовано, занятость телефона не отменяет его
			c.logger.Warn("phone prompt skipped", zap.String("msg", msg), zap.Error(err))
		}
	}
	return ev, nil
}

// TrySystemSettings - попытка открыть системные настройки с машины отдела; всегда GPO_BLOCK.
func (c *Controller) TrySystemSettings() (domain.ScoredEvent, error) {
	sel, err := c.selection()
	if err != nil {
		return domain.ScoredEvent{}, err
	}
	ev := c.synth.SystemSettings(sel.Department)
	c.pub.Publish(ev)
	return ev, nil
}

// TriggerManualMFA - кнопка MFA в строке журнала. Скор приходит строкой, как его показала строка.
func (c *Controller) TriggerManualMFA(user, score string) (domain.ScoredEvent, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return domain.ScoredEvent{}, fmt.Errorf("user is required: %w", ErrInvalidInput)
	}
	score = strings.TrimSpace(score)
	val, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return domain.ScoredEvent{}, fmt.Errorf("score %q: %w", score, ErrInvalidInput)
	}
	// Скор любого события на шине лежит в [0,100]; NaN и Inf не сериализуются в JSON
	if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 || val > 100 {
		return domain.ScoredEvent{}, fmt.Errorf("score %q out of [0,100]: %w", score, ErrInvalidInput)
	}

	msg := fmt.Sprintf("SOC CHALLENGE: Verify Identity for %s (Risk: %s%%)", user, score)
	if err := c.phone.Trigger(msg); err != nil {
		// Телефон держит экран подтверждения: строка журнала все равно публикуется
		c.logger.Warn("phone prompt skipped", zap.String("msg", msg), zap.Error(err))
	}

	ev := c.synth.ManualMFA(user, val)
	c.pub.Publish(ev)
	return ev, nil
}

// ManualBlock - кнопка BLOCK в строке журнала.
func (c *Controller) ManualBlock(ip string) (domain.ScoredEvent, error) {
	return c.ManualAction("BLOCK", ip)
}

// ManualAction - произвольное вмешательство оператора (/soc/action, канал управления Redis).
func (c *Controller) ManualAction(action, ip string) (domain.ScoredEvent, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return domain.ScoredEvent{}, fmt.Errorf("target ip is required: %w", ErrInvalidInput)
	}

	action = strings.ToUpper(strings.TrimSpace(action))
	if action == "" {
		action = "BLOCK"
	}

	ev := c.synth.ManualAction(action, ip)
	if action == "BLOCK" {
		c.blocker.MarkAsBlocked(ip)
	}

	c.logger.Info("manual intervention", zap.String("action", action), zap.String("target_ip", ip))
	c.pub.Publish(ev)
	return ev, nil
}

// PhoneAction - APPROVE или DENY на симулированном телефоне.
func (c *Controller) PhoneAction(action string) error {
	a, err := mfa.ParseAction(action)
	if err != nil {
		return err
	}
	return c.phone.Act(a)
}

// Simulate - внешний триггер сценария: GET /simulate/{scenario}?action=. Без action - READ.
func (c *Controller) Simulate(scenario, action string) (domain.ScoredEvent, error) {
	if strings.TrimSpace(action) == "" {
		action = string(domain.KindRead)
	}
	kind, err := domain.ParseAccessAction(action)
	if err != nil {
		return domain.ScoredEvent{}, fmt.Errorf("simulate action %q: %w", action, err)
	}
	return c.scenario.Scenario(scenario, kind)
}

// ClearDashboard очищает журнал и карту.
func (c *Controller) ClearDashboard() {
	c.state.Clear()
	c.logger.Info("dashboard cleared")
}
