package policy

import "github.com/xela07ax/ztna-soc-console/internal/domain"

// Enforcer отвечает, разрешено ли субъекту действие над папкой своего отдела.
type Enforcer interface {
	Authorize(p domain.Principal, action domain.ActionKind) domain.PolicyEffect
}

// DefaultPolicies - GPO по умолчанию: READ разрешен всем, полный READ/WRITE только у HR.
func DefaultPolicies() []domain.Policy {
	return []domain.Policy{
		{Department: "*", Action: domain.KindRead, Effect: domain.EffectAllow},
		{Department: "*", Action: domain.KindWrite, Effect: domain.EffectDeny},
		{Department: domain.DeptHR, Action: domain.KindWrite, Effect: domain.EffectAllow},
	}
}
