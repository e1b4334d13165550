package domain

// LinkState - индикатор связи в шапке дашборда.
type LinkState string

const (
	LinkUp   LinkState = "UP"
	LinkDown LinkState = "DOWN"
)

// Color - семантический цвет чипа (маппинг на CSS делает фронтенд).
type Color string

const (
	ColorSuccess Color = "success"
	ColorWarning Color = "warning"
	ColorDanger  Color = "danger"
)

// DashboardSnapshot - копия состояния дашборда для отдачи в API.
type DashboardSnapshot struct {
	Log        []LogRow   `json:"log"`      // Новые сверху
	Counters   Counters   `json:"counters"` // Счетчики сессии
	Gauges     Factors    `json:"gauges"`   // Последние RBA-факторы
	Pulses     []MapPulse `json:"pulses"`
	Sparkline  []int      `json:"sparkline"`
	RawMonitor string     `json:"raw_monitor"`
	Selection  *Selection `json:"selection,omitempty"`
	Link       LinkState  `json:"link"`
	MFA        MFAState   `json:"mfa"`
	BlockedIPs []string   `json:"blocked_ips"`
}

type Counters struct {
	Requests    int64   `json:"requests"`
	Threats     int64   `json:"threats"`
	LastRiskAvg float64 `json:"last_risk_avg"` // Последний скор, а не среднее
}

// LogRow - строка аудита: событие плюс цвета чипов.
type LogRow struct {
	Event       ScoredEvent `json:"event"`
	StatusColor Color       `json:"status_color"`
	RiskColor   Color       `json:"risk_color"`
}

type MapPulse struct {
	ID     uint64 `json:"id"`
	Coords Coords `json:"coords"`
}

// Selection - выбранный отдел и его IP.
type Selection struct {
	Department string `json:"department"`
	IP         string `json:"ip"`
}

// MFAPhase - фаза симулированного телефона.
type MFAPhase string

const (
	MFAIdle     MFAPhase = "IDLE"
	MFAPrompted MFAPhase = "PROMPTED"
	MFAApproved MFAPhase = "APPROVED"
	MFADenied   MFAPhase = "DENIED"
)

type MFAState struct {
	Phase   MFAPhase `json:"phase"`
	Message string   `json:"message,omitempty"`
}
