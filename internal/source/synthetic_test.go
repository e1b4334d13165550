package source

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
)

func fixedSynth() *Synthesizer {
	at := time.Date(2026, 3, 4, 9, 15, 0, 0, time.Local)
	return NewSynthesizer("").WithClock(func() time.Time { return at })
}

func TestSynthesizer_ManualBlock(t *testing.T) {
	ev := fixedSynth().ManualBlock("1.2.3.4")

	assert.Equal(t, domain.StatusIntervened, ev.Status)
	assert.Equal(t, domain.LabelNone, ev.RiskLabel)
	assert.Equal(t, 100.0, ev.RiskScore)
	assert.Equal(t, "MANUAL BLOCK APPLIED TO 1.2.3.4", ev.Message)
	assert.Equal(t, "SOC_SYSTEM", ev.User)
	assert.Equal(t, domain.KindManualBlock, ev.Kind)
	assert.Equal(t, "09:15:00", ev.Timestamp)
	assert.Nil(t, ev.Factors)
}

func TestSynthesizer_ManualAction(t *testing.T) {
	s := fixedSynth()
	assert.Equal(t, "MANUAL ISOLATE APPLIED TO 10.62.8.1", s.ManualAction("isolate", "10.62.8.1").Message)
	assert.Equal(t, "MANUAL BLOCK APPLIED TO 10.62.8.1", s.ManualAction("", "10.62.8.1").Message)
}

func TestSynthesizer_ManualMFA(t *testing.T) {
	ev := fixedSynth().ManualMFA("Rina S.", 55.0)

	assert.Equal(t, "SOC_ADMIN", ev.User)
	assert.Equal(t, domain.StatusChallenging, ev.Status)
	assert.Equal(t, domain.LabelManual, ev.RiskLabel)
	assert.Equal(t, 55.0, ev.RiskScore)
	assert.Equal(t, domain.SeverityCritical, ev.Severity, "ручное вмешательство всегда CRITICAL")
	assert.Equal(t, "SOC-Triggered MFA Challenge sent to Rina S..", ev.Message)

	assert.Equal(t, domain.SeverityCritical, fixedSynth().ManualMFA("Rina S.", 5).Severity)
}

func TestSynthesizer_SystemSettings(t *testing.T) {
	ev := NewSynthesizer("corp.example").SystemSettings("Finance")

	assert.Equal(t, "SYS_LOCAL", ev.User)
	assert.Equal(t, "Finance", ev.Department)
	assert.Equal(t, domain.StatusGPOBlock, ev.Status)
	assert.Equal(t, domain.LabelCritical, ev.RiskLabel)
	assert.Equal(t, 95.0, ev.RiskScore)
	assert.True(t, strings.HasPrefix(ev.Message, "[GPO_VIOLATION]"))
	assert.Contains(t, ev.Message, "corp.example")
}

func TestSynthesizer_MFAApprovedAndHealth(t *testing.T) {
	s := fixedSynth()

	ok := s.MFAApproved()
	assert.Equal(t, "SYSTEM", ok.User)
	assert.Equal(t, domain.StatusVerified, ok.Status)
	assert.Equal(t, domain.LabelLow, ok.RiskLabel)
	assert.Equal(t, "MFA APPROVED BY DEVICE", ok.Message)

	h := s.ConnectionHealth()
	assert.Equal(t, "SYS_HEALTH", h.User)
	assert.Equal(t, &domain.Factors{Geo: 5, Velocity: 3, Integrity: 98}, h.Factors)
	assert.Equal(t, &domain.Coords{X: 50, Y: 50}, h.Coords)
}
