package risk

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
	"github.com/xela07ax/ztna-soc-console/internal/policy"
	"go.uber.org/zap"
)

// LocalPrefix - доверенная корпоративная сеть 10.62.0.0/16.
const LocalPrefix = "10.62."

// Базовые скоры действий над папкой отдела.
const (
	ReadScore         = 15.0
	WriteScore        = 45.0
	WriteDeniedScore  = 82.5
	CriticalUnitFloor = 75.0
	HRLeniency        = 5.0
)

// ScenarioRD - тег сценария R&D (критичный юнит).
const ScenarioRD = "rd"

// IsLocal - IP доверенный, только если начинается с 10.62.
func IsLocal(ip string) bool {
	return strings.HasPrefix(ip, LocalPrefix)
}

// Analyzer превращает RawEvent в ScoredEvent. Детерминирован при заданном Random и часах.
type Analyzer struct {
	pdp    policy.Enforcer
	rng    infra.Random
	now    func() time.Time
	logger *zap.Logger
}

func NewAnalyzer(pdp policy.Enforcer, rng infra.Random, logger *zap.Logger) *Analyzer {
	return &Analyzer{pdp: pdp, rng: rng, now: time.Now, logger: logger.Named("analyzer")}
}

// WithClock подменяет часы (для тестов и CLI-прогонов).
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Score - исчерпывающий разбор вариантов RawEvent.
// Синтетические события ручного вмешательства скоринг не проходят.
func (a *Analyzer) Score(raw domain.RawEvent) (domain.ScoredEvent, error) {
	switch raw.Kind {
	case domain.KindPulse:
		return a.scorePulse(raw), nil
	case domain.KindRead, domain.KindWrite:
		return a.scoreAction(raw, raw.Kind), nil
	case domain.KindScenario:
		// Сценарий без явного действия трактуется как READ
		return a.scoreAction(raw, domain.KindRead), nil
	case domain.KindManualMFA, domain.KindManualBlock, domain.KindMFAApproved,
		domain.KindMFADenied, domain.KindGPOViolation:
		return domain.ScoredEvent{}, fmt.Errorf("risk: %s: %w", raw.Kind, domain.ErrUnscoredKind)
	default:
		return domain.ScoredEvent{}, fmt.Errorf("risk: kind %q: %w", raw.Kind, domain.ErrUnknownAction)
	}
}

func (a *Analyzer) scorePulse(raw domain.RawEvent) domain.ScoredEvent {
	local := IsLocal(raw.IP)

	base := 50 + infra.Uniform(a.rng, 45)
	if local {
		base = 5 + infra.Uniform(a.rng, 25)
	}
	if raw.Principal.Department == domain.DeptHR {
		base -= HRLeniency
	}
	score := RoundScore(base)

	msg := fmt.Sprintf("[SUSPICIOUS_IP] External connection attempt from %s.0 subnet.", raw.Subnet)
	if local {
		msg = "[TRUSTED_IDENTITY] Access via secure enterprise subnet 10.62.0.0."
	}

	status := domain.StatusVerified
	switch {
	case score > domain.HighRiskThreshold:
		status = domain.StatusDenied
	case score > domain.MedRiskThreshold:
		status = domain.StatusMFARequired
	}

	factors := PulseFactors(a.rng, score, local)
	coords := RandomCoords(a.rng)
	return a.build(raw, score, status, msg, &factors, &coords)
}

func (a *Analyzer) scoreAction(raw domain.RawEvent, action domain.ActionKind) domain.ScoredEvent {
	p := raw.Principal

	score := ReadScore
	if action == domain.KindWrite {
		score = WriteScore
	}
	msg := fmt.Sprintf("[GPO_CHECK] User %s allowed %s access to Dept Folder.", p.Name, action)

	if action == domain.KindWrite && a.pdp.Authorize(p, action) == domain.EffectDeny {
		score = WriteDeniedScore
		msg = fmt.Sprintf("[ZTNA_BLOCK] GPO Policy violation: %s (%s) has no WRITE permission.", p.Name, p.Department)
		a.logger.Warn("gpo write violation",
			zap.String("user", p.Name),
			zap.String("dept", p.Department))
	}

	if raw.ScenarioTag == ScenarioRD {
		score = max(score, CriticalUnitFloor)
		msg = "[CRITICAL_UNIT] Access to R&D Cloud requires elevated verification."
	}

	status := domain.StatusVerified
	switch {
	case score > domain.HighRiskThreshold:
		status = domain.StatusDenied
	case score > domain.MedRiskThreshold:
		status = domain.StatusPendingMFA
	}

	factors := ActionFactors(a.rng, score)
	coords := RandomCoords(a.rng)
	return a.build(raw, score, status, msg, &factors, &coords)
}

func (a *Analyzer) build(raw domain.RawEvent, score float64, status domain.Status, msg string, f *domain.Factors, c *domain.Coords) domain.ScoredEvent {
	return domain.ScoredEvent{
		ID:         uuid.NewString(),
		Severity:   domain.SeverityFor(score),
		Timestamp:  domain.Stamp(a.now()),
		User:       raw.Principal.Name,
		Role:       raw.Principal.Role,
		Department: raw.Principal.Department,
		IP:         raw.IP,
		RiskScore:  score,
		RiskLabel:  domain.LabelFor(score),
		Factors:    f,
		Coords:     c,
		Status:     status,
		Message:    msg,
		Kind:       raw.Kind,
	}
}
