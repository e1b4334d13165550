package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
)

// Фиксированные адреса синтетических событий.
const (
	LoopbackIP    = "127.0.0.1"
	GatewayIP     = "10.62.8.200"
	DefaultGPODom = "trashure.local"
)

// Synthesizer собирает события ручного вмешательства и системные события.
// Они минуют Risk Engine: метка и статус задаются оператором, а не порогами.
type Synthesizer struct {
	now       func() time.Time
	gpoDomain string
}

func NewSynthesizer(gpoDomain string) *Synthesizer {
	if gpoDomain == "" {
		gpoDomain = DefaultGPODom
	}
	return &Synthesizer{now: time.Now, gpoDomain: gpoDomain}
}

func (s *Synthesizer) WithClock(now func() time.Time) *Synthesizer {
	s.now = now
	return s
}

func (s *Synthesizer) event(kind domain.ActionKind, p domain.Principal, ip string, score float64, label domain.RiskLabel, status domain.Status, sev domain.Severity, msg string) domain.ScoredEvent {
	return domain.ScoredEvent{
		ID:         uuid.NewString(),
		Severity:   sev,
		Timestamp:  domain.Stamp(s.now()),
		User:       p.Name,
		Role:       p.Role,
		Department: p.Department,
		IP:         ip,
		RiskScore:  score,
		RiskLabel:  label,
		Status:     status,
		Message:    msg,
		Kind:       kind,
	}
}

// ManualAction - вмешательство оператора SOC (BLOCK и прочие действия /soc/action).
func (s *Synthesizer) ManualAction(action, targetIP string) domain.ScoredEvent {
	action = strings.ToUpper(strings.TrimSpace(action))
	if action == "" {
		action = "BLOCK"
	}
	return s.event(domain.KindManualBlock, domain.PrincipalSOCSystem, LoopbackIP, 100,
		domain.LabelNone, domain.StatusIntervened, domain.SeverityCritical,
		fmt.Sprintf("MANUAL %s APPLIED TO %s", action, targetIP))
}

// ManualBlock - MANUAL BLOCK APPLIED TO <ip>.
func (s *Synthesizer) ManualBlock(targetIP string) domain.ScoredEvent {
	return s.ManualAction("BLOCK", targetIP)
}

// ManualMFA - строка журнала о ручном MFA-челлендже. Скор пробрасывается как есть,
// диапазон проверяет вызывающий.
func (s *Synthesizer) ManualMFA(user string, score float64) domain.ScoredEvent {
	return s.event(domain.KindManualMFA, domain.PrincipalSOCAdmin, LoopbackIP, score,
		domain.LabelManual, domain.StatusChallenging, domain.SeverityCritical,
		fmt.Sprintf("SOC-Triggered MFA Challenge sent to %s.", user))
}

// SystemSettings - попытка открыть системные настройки с машины выбранного отдела.
func (s *Synthesizer) SystemSettings(department string) domain.ScoredEvent {
	return s.event(domain.KindGPOViolation, domain.SysLocal(department), LoopbackIP, 95.0,
		domain.LabelCritical, domain.StatusGPOBlock, domain.SeverityCritical,
		fmt.Sprintf("[GPO_VIOLATION] Access to System Settings Blocked by %s Policy.", s.gpoDomain))
}

// MFAApproved - подтверждение с телефона.
func (s *Synthesizer) MFAApproved() domain.ScoredEvent {
	return s.event(domain.KindMFAApproved, domain.PrincipalSystem, GatewayIP, 5.0,
		domain.LabelLow, domain.StatusVerified, domain.SeverityInfo,
		"MFA APPROVED BY DEVICE")
}

// ConnectionHealth - первое сообщение новому подписчику сокета, подтверждает линк.
func (s *Synthesizer) ConnectionHealth() domain.ScoredEvent {
	ev := s.event(domain.KindPulse, domain.PrincipalSysHealth, LoopbackIP, 0,
		domain.LabelLow, domain.StatusVerified, domain.SeverityInfo,
		"SOC Connection Established. Monitoring Live...")
	ev.Factors = &domain.Factors{Geo: 5, Velocity: 3, Integrity: 98}
	ev.Coords = &domain.Coords{X: 50, Y: 50}
	return ev
}
