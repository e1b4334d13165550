package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/ztna-soc-console/internal/bus"
	"github.com/xela07ax/ztna-soc-console/internal/dashboard"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/identity"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
	"github.com/xela07ax/ztna-soc-console/internal/infra/infratest"
	"github.com/xela07ax/ztna-soc-console/internal/mfa"
	"github.com/xela07ax/ztna-soc-console/internal/policy"
	"github.com/xela07ax/ztna-soc-console/internal/risk"
	"github.com/xela07ax/ztna-soc-console/internal/source"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.ScoredEvent
}

func (r *recorder) Consume(ev domain.ScoredEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) all() []domain.ScoredEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ScoredEvent(nil), r.events...)
}

type blockSet struct {
	mu  sync.Mutex
	ips map[string]bool
}

func (b *blockSet) MarkAsBlocked(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ips == nil {
		b.ips = map[string]bool{}
	}
	fresh := !b.ips[ip]
	b.ips[ip] = true
	return fresh
}

func (b *blockSet) IsBlocked(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ips[ip]
}

type harness struct {
	ctl      *Controller
	reducer  *dashboard.Reducer
	phone    *mfa.Session
	blocks   *blockSet
	sched    *infratest.ManualScheduler
	received *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	sched := &infratest.ManualScheduler{}
	rng := infra.NewRandom(7)

	hub := bus.NewHub(logger)
	reducer := dashboard.NewReducer(dashboard.Config{}, nil, sched, rng, logger)
	hub.Subscribe("dashboard", reducer)
	rec := &recorder{}
	hub.Subscribe("recorder", rec)

	pdp := policy.NewMemoEnforcer(policy.DefaultPolicies(), logger)
	analyzer := risk.NewAnalyzer(pdp, rng, logger)
	gen := source.NewGenerator(source.Config{TickInterval: time.Second, AnomalyProbability: 0.3},
		identity.NewCatalog(), analyzer, rng, hub, logger)
	synth := source.NewSynthesizer("")
	phone := mfa.NewSession(0, sched, synth.MFAApproved, hub, logger)
	blocks := &blockSet{}

	return &harness{
		ctl:      NewController(reducer, gen, synth, phone, hub, blocks, logger),
		reducer:  reducer,
		phone:    phone,
		blocks:   blocks,
		sched:    sched,
		received: rec,
	}
}

func TestController_RequiresDepartment(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctl.TryAccess("WRITE")
	assert.ErrorIs(t, err, domain.ErrPreconditionRefused)

	_, err = h.ctl.TrySystemSettings()
	assert.ErrorIs(t, err, domain.ErrPreconditionRefused)

	assert.Empty(t, h.received.all())
}

func TestController_WriteDeniedForLogistics(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctl.SelectDepartment("Logistics", "10.62.8.10")
	require.NoError(t, err)

	ev, err := h.ctl.TryAccess("WRITE")
	require.NoError(t, err)

	events := h.received.all()
	require.Len(t, events, 1)
	assert.Equal(t, ev.ID, events[0].ID)
	assert.Equal(t, 82.5, ev.RiskScore)
	assert.Equal(t, domain.LabelHigh, ev.RiskLabel)
	assert.Equal(t, domain.StatusDenied, ev.Status)
	assert.Contains(t, ev.Message, "[ZTNA_BLOCK]")

	snap := h.reducer.Snapshot()
	assert.Equal(t, int64(1), snap.Counters.Threats)
	assert.Equal(t, domain.MFAIdle, h.phone.State().Phase)
}

func TestController_PendingMFAPromptsPhone(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctl.SelectDepartment("HR", "10.62.8.77")
	require.NoError(t, err)

	ev, err := h.ctl.TryAccess("write")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingMFA, ev.Status)

	st := h.phone.State()
	assert.Equal(t, domain.MFAPrompted, st.Phase)
	assert.Equal(t, "REQ: WRITE for Sari Dewi [MED RISK]", st.Message)
}

func TestController_UnknownAccessAction(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctl.SelectDepartment("HR", "")
	require.NoError(t, err)

	_, err = h.ctl.TryAccess("DELETE")
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
	assert.Empty(t, h.received.all())
}

func TestController_SystemSettings(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctl.SelectDepartment("Finance", "10.62.8.5")
	require.NoError(t, err)

	ev, err := h.ctl.TrySystemSettings()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusGPOBlock, ev.Status)
	assert.Equal(t, "Finance", ev.Department)
	assert.Len(t, h.received.all(), 1)
}

func TestController_ManualBlock(t *testing.T) {
	h := newHarness(t)

	ev, err := h.ctl.ManualBlock("1.2.3.4")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusIntervened, ev.Status)
	assert.Equal(t, domain.LabelNone, ev.RiskLabel)
	assert.Equal(t, 100.0, ev.RiskScore)
	assert.Equal(t, "MANUAL BLOCK APPLIED TO 1.2.3.4", ev.Message)

	snap := h.reducer.Snapshot()
	assert.Equal(t, int64(1), snap.Counters.Requests)
	assert.Equal(t, int64(0), snap.Counters.Threats)
	assert.True(t, h.blocks.IsBlocked("1.2.3.4"))

	_, err = h.ctl.ManualAction("isolate", "5.6.7.8")
	require.NoError(t, err)
	assert.False(t, h.blocks.IsBlocked("5.6.7.8"))

	_, err = h.ctl.ManualBlock(" ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestController_ManualMFAThenApprove(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctl.TriggerManualMFA("Rina S.", "55.0")
	require.NoError(t, err)
	assert.Equal(t, "SOC CHALLENGE: Verify Identity for Rina S. (Risk: 55.0%)", h.phone.State().Message)

	require.NoError(t, h.ctl.PhoneAction("APPROVE"))
	h.sched.Advance(mfa.DefaultAutoReset)

	events := h.received.all()
	require.Len(t, events, 2)
	assert.Equal(t, domain.StatusChallenging, events[0].Status)
	assert.Equal(t, domain.LabelManual, events[0].RiskLabel)
	assert.Equal(t, 55.0, events[0].RiskScore)
	assert.Equal(t, domain.StatusVerified, events[1].Status)
	assert.Equal(t, domain.LabelLow, events[1].RiskLabel)
	assert.Equal(t, "MFA APPROVED BY DEVICE", events[1].Message)
	assert.Equal(t, domain.MFAIdle, h.phone.State().Phase)
}

func TestController_ManualMFAValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		user  string
		score string
	}{
		{"not a number", "Rina S.", "high"},
		{"empty user", "", "10"},
		{"nan", "Rina S.", "NaN"},
		{"infinity", "Rina S.", "Inf"},
		{"negative infinity", "Rina S.", "-Inf"},
		{"above range", "Rina S.", "500"},
		{"below range", "Rina S.", "-20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.ctl.TriggerManualMFA(tt.user, tt.score)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Equal(t, domain.MFAIdle, h.phone.State().Phase, "невалидный скор не поднимает телефон")

	for _, edge := range []string{"0", "100", "0.0", "100.0"} {
		ev, err := h.ctl.TriggerManualMFA("Rina S.", edge)
		require.NoError(t, err, edge)
		assert.GreaterOrEqual(t, ev.RiskScore, 0.0)
		assert.LessOrEqual(t, ev.RiskScore, 100.0)
	}
	require.NoError(t, h.ctl.PhoneAction("DENY"))
	h.received.reset()

	assert.ErrorIs(t, h.ctl.PhoneAction("DENY"), domain.ErrInvalidTransition)
	assert.ErrorIs(t, h.ctl.PhoneAction("SNOOZE"), domain.ErrUnknownAction)
	assert.Empty(t, h.received.all())
}

func TestController_ManualMFADuringApprovedHold(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctl.TriggerManualMFA("Rina S.", "55.0")
	require.NoError(t, err)
	require.NoError(t, h.ctl.PhoneAction("APPROVE"))

	// Экран подтверждения занят: телефон не перезаписывается, но строка журнала публикуется
	ev, err := h.ctl.TriggerManualMFA("Agus Pratama", "72.5")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusChallenging, ev.Status)
	assert.Equal(t, domain.MFAApproved, h.phone.State().Phase)

	h.sched.Advance(1500 * time.Millisecond)
	events := h.received.all()
	require.Len(t, events, 3)
	assert.Equal(t, "SOC-Triggered MFA Challenge sent to Agus Pratama.", events[1].Message)
	assert.Equal(t, "MFA APPROVED BY DEVICE", events[2].Message)
	assert.Equal(t, domain.MFAIdle, h.phone.State().Phase)
}

func TestController_Simulate(t *testing.T) {
	h := newHarness(t)

	ev, err := h.ctl.Simulate("rd", "")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", ev.User)
	assert.GreaterOrEqual(t, ev.RiskScore, 75.0)

	_, err = h.ctl.Simulate("hr", "PATCH")
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
}

func TestController_ClearDashboard(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctl.ManualBlock("1.2.3.4")
	require.NoError(t, err)

	h.ctl.ClearDashboard()
	snap := h.reducer.Snapshot()
	assert.Empty(t, snap.Log)
	assert.Equal(t, int64(1), snap.Counters.Requests)
}
