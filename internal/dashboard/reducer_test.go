package dashboard

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/infra/infratest"
)

type recordingView struct {
	mu       sync.Mutex
	rendered []domain.ScoredEvent
	cleared  int
	links    []domain.LinkState
	charts   [][]int
}

func (v *recordingView) Render(ev domain.ScoredEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rendered = append(v.rendered, ev)
}

func (v *recordingView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
}

func (v *recordingView) SetLinkIndicator(s domain.LinkState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.links = append(v.links, s)
}

func (v *recordingView) DrawSparkline(samples []int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.charts = append(v.charts, samples)
	return nil
}

type panickingView struct{ NopView }

func (panickingView) Render(domain.ScoredEvent) { panic("view is gone") }

func newReducer(view View) (*Reducer, *infratest.ManualScheduler) {
	sched := &infratest.ManualScheduler{}
	return NewReducer(Config{}, view, sched, infratest.FixedRandom{U: 0.5}, zap.NewNop()), sched
}

func event(id string, score float64, label domain.RiskLabel) domain.ScoredEvent {
	return domain.ScoredEvent{
		ID:        id,
		RiskScore: score,
		RiskLabel: label,
		Status:    domain.StatusVerified,
		Factors:   &domain.Factors{Geo: 10, Velocity: 20, Integrity: 90},
		Coords:    &domain.Coords{X: 40, Y: 60},
	}
}

func TestReducer_Counters(t *testing.T) {
	r, _ := newReducer(nil)

	r.Consume(event("a", 12.3, domain.LabelLow))
	r.Consume(event("b", 82.5, domain.LabelHigh))
	r.Consume(domain.ScoredEvent{ID: "c", RiskScore: 95, RiskLabel: domain.LabelCritical, Status: domain.StatusGPOBlock})

	snap := r.Snapshot()
	assert.Equal(t, int64(3), snap.Counters.Requests)
	// CRITICAL не считается угрозой: счетчик привязан только к HIGH RISK
	assert.Equal(t, int64(1), snap.Counters.Threats)
	assert.Equal(t, 95.0, snap.Counters.LastRiskAvg)
	assert.Equal(t, domain.Factors{Geo: 10, Velocity: 20, Integrity: 90}, snap.Gauges, "gauges keep the last factors")
}

func TestReducer_LogCapEvictsOldest(t *testing.T) {
	r, _ := newReducer(nil)

	for i := 0; i < 31; i++ {
		r.Consume(event(fmt.Sprintf("ev-%02d", i), 10, domain.LabelLow))
	}

	snap := r.Snapshot()
	require.Len(t, snap.Log, DefaultLogCap)
	assert.Equal(t, "ev-30", snap.Log[0].Event.ID)
	assert.Equal(t, "ev-01", snap.Log[len(snap.Log)-1].Event.ID)
	for _, row := range snap.Log {
		assert.NotEqual(t, "ev-00", row.Event.ID)
	}
	assert.Equal(t, int64(31), snap.Counters.Requests)
}

func TestReducer_RowColors(t *testing.T) {
	r, _ := newReducer(nil)

	ev := event("x", 82.5, domain.LabelHigh)
	ev.Status = domain.StatusDenied
	r.Consume(ev)

	row := r.Snapshot().Log[0]
	assert.Equal(t, domain.ColorDanger, row.RiskColor)
	assert.Equal(t, domain.ColorDanger, row.StatusColor)
}

func TestReducer_PulseExpires(t *testing.T) {
	r, sched := newReducer(nil)

	r.Consume(event("a", 10, domain.LabelLow))
	sched.Advance(time.Second)
	r.Consume(event("b", 10, domain.LabelLow))
	require.Len(t, r.Snapshot().Pulses, 2)

	sched.Advance(2 * time.Second)
	pulses := r.Snapshot().Pulses
	require.Len(t, pulses, 1)
	assert.Equal(t, uint64(2), pulses[0].ID)

	sched.Advance(time.Second)
	assert.Empty(t, r.Snapshot().Pulses)
	assert.Zero(t, sched.Pending())
}

func TestReducer_ClearKeepsCounters(t *testing.T) {
	view := &recordingView{}
	r, sched := newReducer(view)

	r.Consume(event("a", 10, domain.LabelLow))
	r.Clear()

	snap := r.Snapshot()
	assert.Empty(t, snap.Log)
	assert.Empty(t, snap.Pulses)
	assert.Equal(t, int64(1), snap.Counters.Requests)
	assert.Equal(t, 1, view.cleared)

	// Таймер пульса после Clear - no-op
	assert.NotPanics(t, func() { sched.Advance(DefaultPulseTTL) })
}

func TestReducer_Sparkline(t *testing.T) {
	view := &recordingView{}
	r, _ := newReducer(view)

	r.Consume(event("a", 10, domain.LabelLow))

	want := []int{45, 25, 60, 50}
	assert.Equal(t, want, r.Snapshot().Sparkline)
	require.Len(t, view.charts, 1)
	assert.Equal(t, want, view.charts[0])
}

func TestReducer_RawMonitor(t *testing.T) {
	r, _ := newReducer(nil)
	r.Consume(event("raw-1", 10, domain.LabelLow))

	raw := r.Snapshot().RawMonitor
	assert.Contains(t, raw, `"id": "raw-1"`)
	assert.Contains(t, raw, `"riskLabel": "LOW RISK"`)
	assert.NotContains(t, raw, "Kind")
}

func TestReducer_ViewPanicIsIsolated(t *testing.T) {
	r, _ := newReducer(panickingView{})

	var failed []string
	r.OnStepFailed(func(step string, _ error) { failed = append(failed, step) })

	assert.NotPanics(t, func() {
		r.Consume(event("a", 10, domain.LabelLow))
		r.Consume(event("b", 10, domain.LabelLow))
	})

	assert.Equal(t, []string{"view", "view"}, failed)
	snap := r.Snapshot()
	assert.Len(t, snap.Log, 2)
	assert.Equal(t, int64(2), snap.Counters.Requests)
}

func TestReducer_SelectionAndLink(t *testing.T) {
	view := &recordingView{}
	r, _ := newReducer(view)

	_, ok := r.Selection()
	assert.False(t, ok)

	_, err := r.Select("  ", "10.62.8.1")
	assert.ErrorIs(t, err, domain.ErrPreconditionRefused)

	sel, err := r.Select("Finance", "10.62.8.44")
	require.NoError(t, err)
	got, ok := r.Selection()
	assert.True(t, ok)
	assert.Equal(t, sel, got)

	assert.Equal(t, domain.LinkDown, r.Snapshot().Link)
	r.SetLink(domain.LinkUp)
	assert.Equal(t, domain.LinkUp, r.Snapshot().Link)
	assert.Equal(t, []domain.LinkState{domain.LinkUp}, view.links)
}

func TestReducer_SnapshotProviders(t *testing.T) {
	r, _ := newReducer(nil)

	snap := r.Snapshot()
	assert.Equal(t, domain.MFAIdle, snap.MFA.Phase)
	assert.Empty(t, snap.BlockedIPs)

	r.AttachMFA(func() domain.MFAState { return domain.MFAState{Phase: domain.MFAPrompted, Message: "REQ"} })
	r.AttachBlocklist(func() []string { return []string{"1.2.3.4"} })

	snap = r.Snapshot()
	assert.Equal(t, domain.MFAPrompted, snap.MFA.Phase)
	assert.Equal(t, []string{"1.2.3.4"}, snap.BlockedIPs)
}
