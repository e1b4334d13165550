package domain

// PolicyEffect определяет, что делать с запросом к папке отдела
type PolicyEffect string

const (
	EffectAllow PolicyEffect = "ALLOW"
	EffectDeny  PolicyEffect = "DENY"
)

// Policy - GPO-правило: какой отдел какое действие может выполнять.
// Department "*" означает правило для всех отделов.
type Policy struct {
	Department string       `json:"department"`
	Action     ActionKind   `json:"action"`
	Effect     PolicyEffect `json:"effect"`
}

// Decide гарантирует валидный эффект даже для неинициализированной политики (Zero Trust).
func (p *Policy) Decide() PolicyEffect {
	if p == nil || p.Effect == "" {
		return EffectDeny
	}
	return p.Effect
}
