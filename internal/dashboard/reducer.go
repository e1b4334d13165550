package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
	"go.uber.org/zap"
)

// Значения по умолчанию для виджетов дашборда.
const (
	DefaultLogCap   = 30
	DefaultPulseTTL = 3 * time.Second
)

// InitialSparkline - стартовая серия графика "Traffic Pulse" (-3h, -2h, -1h, Now).
var InitialSparkline = []int{30, 45, 25, 60}

type Config struct {
	LogCap   int
	PulseTTL time.Duration
}

// Reducer - владелец состояния приложения: журнал, счетчики, факторы, карта,
// спарклайн, выбранный отдел. Подписан на шину как Sink.
type Reducer struct {
	mu sync.Mutex

	cfg    Config
	view   View
	sched  infra.Scheduler
	rng    infra.Random
	logger *zap.Logger

	log       []domain.LogRow
	counters  domain.Counters
	gauges    domain.Factors
	pulses    []domain.MapPulse
	nextPulse uint64
	spark     []int
	raw       string
	selection *domain.Selection
	link      domain.LinkState

	mfaState     func() domain.MFAState
	blockedIPs   func() []string
	onStepFailed func(step string, err error)
}

func NewReducer(cfg Config, view View, sched infra.Scheduler, rng infra.Random, logger *zap.Logger) *Reducer {
	if cfg.LogCap <= 0 {
		cfg.LogCap = DefaultLogCap
	}
	if cfg.PulseTTL <= 0 {
		cfg.PulseTTL = DefaultPulseTTL
	}
	if view == nil {
		view = NopView{}
	}
	return &Reducer{
		cfg:    cfg,
		view:   view,
		sched:  sched,
		rng:    rng,
		logger: logger.Named("dashboard"),
		spark:  append([]int(nil), InitialSparkline...),
		link:   domain.LinkDown,
	}
}

// AttachMFA подключает источник состояния телефона для снапшота.
func (r *Reducer) AttachMFA(f func() domain.MFAState) { r.mfaState = f }

// AttachBlocklist подключает список заблокированных вручную IP.
func (r *Reducer) AttachBlocklist(f func() []string) { r.blockedIPs = f }

// OnStepFailed - наблюдатель за упавшими подшагами (RenderError).
func (r *Reducer) OnStepFailed(f func(step string, err error)) { r.onStepFailed = f }

// Consume применяет событие. Каждый подшаг изолирован: ошибка логируется, остальные выполняются.
func (r *Reducer) Consume(ev domain.ScoredEvent) {
	r.mu.Lock()
	r.step("audit_log", ev, func() error { return r.appendRow(ev) })
	r.step("counters", ev, func() error { return r.updateCounters(ev) })
	r.step("gauges", ev, func() error { return r.updateGauges(ev) })
	r.step("map_pulse", ev, func() error { return r.spawnPulse(ev) })
	spark := r.advanceSparkline()
	r.step("raw_monitor", ev, func() error { return r.renderRaw(ev) })
	r.mu.Unlock()

	// Вызовы View - вне блокировки: View может запросить Snapshot
	r.step("chart", ev, func() error { return r.drawSparkline(spark) })
	r.step("view", ev, func() error {
		r.view.Render(ev)
		return nil
	})
}

func (r *Reducer) step(name string, ev domain.ScoredEvent, f func() error) {
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		return f()
	}()
	if err == nil {
		return
	}

	r.logger.Error("dashboard step failed",
		zap.String("step", name),
		zap.String("event_id", ev.ID),
		zap.Error(err))
	if r.onStepFailed != nil {
		r.onStepFailed(name, err)
	}
}

func (r *Reducer) appendRow(ev domain.ScoredEvent) error {
	row := domain.LogRow{
		Event:       ev,
		StatusColor: StatusColor(ev.Status),
		RiskColor:   RiskColor(ev.RiskLabel),
	}

	r.log = append(r.log, domain.LogRow{})
	copy(r.log[1:], r.log)
	r.log[0] = row

	if len(r.log) > r.cfg.LogCap {
		r.log[len(r.log)-1] = domain.LogRow{}
		r.log = r.log[:r.cfg.LogCap]
	}
	return nil
}

func (r *Reducer) updateCounters(ev domain.ScoredEvent) error {
	r.counters.Requests++
	if ev.RiskLabel == domain.LabelHigh {
		r.counters.Threats++
	}
	r.counters.LastRiskAvg = ev.RiskScore
	return nil
}

func (r *Reducer) updateGauges(ev domain.ScoredEvent) error {
	if ev.Factors != nil {
		r.gauges = *ev.Factors
	}
	return nil
}

func (r *Reducer) spawnPulse(ev domain.ScoredEvent) error {
	if ev.Coords == nil {
		return nil
	}
	r.nextPulse++
	id := r.nextPulse
	r.pulses = append(r.pulses, domain.MapPulse{ID: id, Coords: *ev.Coords})

	if r.sched != nil {
		r.sched.AfterFunc(r.cfg.PulseTTL, func() { r.removePulse(id) })
	}
	return nil
}

// removePulse - no-op, если пульс уже удален (например, после Clear).
func (r *Reducer) removePulse(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pulses {
		if p.ID == id {
			r.pulses = append(r.pulses[:i], r.pulses[i+1:]...)
			return
		}
	}
}

// advanceSparkline отражает активность пульсов, а не скор: сдвиг и новое значение U(0,100).
func (r *Reducer) advanceSparkline() []int {
	if len(r.spark) > 0 {
		r.spark = append(r.spark[:0], r.spark[1:]...)
	}
	r.spark = append(r.spark, r.rng.IntN(100))
	return append([]int(nil), r.spark...)
}

func (r *Reducer) drawSparkline(samples []int) error {
	chart, ok := r.view.(ChartView)
	if !ok {
		return nil
	}
	return chart.DrawSparkline(samples)
}

func (r *Reducer) renderRaw(ev domain.ScoredEvent) error {
	b, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal raw monitor: %w", err)
	}
	r.raw = string(b)
	return nil
}

// Select запоминает выбранный отдел (предусловие для сценариев и системных настроек).
func (r *Reducer) Select(department, ip string) (domain.Selection, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return domain.Selection{}, fmt.Errorf("department name is required: %w", domain.ErrPreconditionRefused)
	}
	sel := domain.Selection{Department: department, IP: strings.TrimSpace(ip)}

	r.mu.Lock()
	r.selection = &sel
	r.mu.Unlock()

	r.logger.Info("department unit selected", zap.String("dept", sel.Department), zap.String("ip", sel.IP))
	return sel, nil
}

// Selection возвращает выбранный отдел, если он есть.
func (r *Reducer) Selection() (domain.Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selection == nil {
		return domain.Selection{}, false
	}
	return *r.selection, true
}

// Clear очищает журнал и карту; счетчики сессии не сбрасываются.
func (r *Reducer) Clear() {
	r.mu.Lock()
	r.log = nil
	r.pulses = nil
	r.raw = ""
	r.mu.Unlock()

	r.view.Clear()
}

// SetLink меняет индикатор связи и транслирует его во View.
func (r *Reducer) SetLink(state domain.LinkState) {
	r.mu.Lock()
	changed := r.link != state
	r.link = state
	r.mu.Unlock()

	if changed {
		r.logger.Info("link indicator changed", zap.String("state", string(state)))
	}
	r.view.SetLinkIndicator(state)
}

// Snapshot - глубокая копия состояния для API.
func (r *Reducer) Snapshot() domain.DashboardSnapshot {
	r.mu.Lock()
	snap := domain.DashboardSnapshot{
		Log:        append([]domain.LogRow{}, r.log...),
		Counters:   r.counters,
		Gauges:     r.gauges,
		Pulses:     append([]domain.MapPulse{}, r.pulses...),
		Sparkline:  append([]int{}, r.spark...),
		RawMonitor: r.raw,
		Link:       r.link,
		MFA:        domain.MFAState{Phase: domain.MFAIdle},
		BlockedIPs: []string{},
	}
	if r.selection != nil {
		sel := *r.selection
		snap.Selection = &sel
	}
	r.mu.Unlock()

	if r.mfaState != nil {
		snap.MFA = r.mfaState()
	}
	if r.blockedIPs != nil {
		snap.BlockedIPs = r.blockedIPs()
	}
	return snap
}
