package domain

import (
	"strings"
	"time"
)

// ActionKind - тег варианта RawEvent.
type ActionKind string

const (
	KindPulse        ActionKind = "PULSE"
	KindRead         ActionKind = "READ"
	KindWrite        ActionKind = "WRITE"
	KindScenario     ActionKind = "SCENARIO"
	KindManualMFA    ActionKind = "MANUAL_MFA"
	KindManualBlock  ActionKind = "MANUAL_BLOCK"
	KindMFAApproved  ActionKind = "MFA_APPROVED"
	KindMFADenied    ActionKind = "MFA_DENIED"
	KindGPOViolation ActionKind = "GPO_VIOLATION"
)

// ParseAccessAction разбирает действие из UI/HTTP (READ или WRITE, регистр не важен).
func ParseAccessAction(s string) (ActionKind, error) {
	switch ActionKind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindRead:
		return KindRead, nil
	case KindWrite:
		return KindWrite, nil
	}
	return "", ErrUnknownAction
}

type RiskLabel string

const (
	LabelLow      RiskLabel = "LOW RISK"
	LabelMed      RiskLabel = "MED RISK"
	LabelHigh     RiskLabel = "HIGH RISK"
	LabelCritical RiskLabel = "CRITICAL"
	LabelManual   RiskLabel = "MANUAL"
	LabelNone     RiskLabel = "NONE"
	LabelWarn     RiskLabel = "WARN"
)

type Status string

const (
	StatusVerified    Status = "VERIFIED"
	StatusMFARequired Status = "MFA_REQUIRED"
	StatusPendingMFA  Status = "PENDING_MFA"
	StatusDenied      Status = "DENIED"
	StatusGPOBlock    Status = "GPO_BLOCK"
	StatusIntervened  Status = "INTERVENED"
	StatusChallenging Status = "CHALLENGING"
	StatusAccepted    Status = "ACCEPTED"
)

// Severity - грубая классификация для внешних потребителей ленты (INFO/WARN/CRITICAL).
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarn     Severity = "WARN"
	SeverityCritical Severity = "CRITICAL"
)

// Пороги риска (строгое сравнение ">").
const (
	HighRiskThreshold = 70.0
	MedRiskThreshold  = 35.0
)

// LabelFor возвращает метку для автоматически оцененного события.
func LabelFor(score float64) RiskLabel {
	switch {
	case score > HighRiskThreshold:
		return LabelHigh
	case score > MedRiskThreshold:
		return LabelMed
	default:
		return LabelLow
	}
}

// SeverityFor повторяет ту же лестницу порогов для поля "type".
func SeverityFor(score float64) Severity {
	switch {
	case score > HighRiskThreshold:
		return SeverityCritical
	case score > MedRiskThreshold:
		return SeverityWarn
	default:
		return SeverityInfo
	}
}

// RawEvent - событие до скоринга.
type RawEvent struct {
	Kind      ActionKind
	Principal Principal
	IP        string

	// Subnet - префикс из трех октетов, из которого собран IP (только для PULSE).
	Subnet string

	// ScenarioTag - нормализованный отдел сценария ("rd" для R&D), пусто вне сценариев.
	ScenarioTag string
}

// Factors - RBA-подфакторы, каждый в [0,100].
type Factors struct {
	Geo       int `json:"geo"`
	Velocity  int `json:"velocity"`
	Integrity int `json:"integrity"`
}

// Coords - смещение точки на карте в процентах.
type Coords struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScoredEvent - каноническая запись на шине. После публикации не изменяется.
type ScoredEvent struct {
	ID         string    `json:"id"`
	Severity   Severity  `json:"type"`
	Timestamp  string    `json:"timestamp"`
	User       string    `json:"user"`
	Role       string    `json:"role"`
	Department string    `json:"dept"`
	IP         string    `json:"ip"`
	RiskScore  float64   `json:"riskScore"`
	RiskLabel  RiskLabel `json:"riskLabel"`
	Factors    *Factors  `json:"factors,omitempty"`
	Coords     *Coords   `json:"coords,omitempty"`
	Status     Status    `json:"status"`
	Message    string    `json:"msg"`

	// Kind не уходит в JSON: нужен подписчикам шины для метрик.
	Kind ActionKind `json:"-"`
}

// Principal восстанавливает субъекта события.
func (e ScoredEvent) Principal() Principal {
	return Principal{Name: e.User, Role: e.Role, Department: e.Department}
}

// TimestampLayout - формат времени строки аудита (HH:MM:SS).
const TimestampLayout = "15:04:05"

// Stamp форматирует момент события для поля timestamp.
func Stamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
