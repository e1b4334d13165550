package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
)

func TestMemoEnforcer_DefaultPolicies(t *testing.T) {
	e := NewMemoEnforcer(DefaultPolicies(), zap.NewNop())

	tests := []struct {
		name   string
		dept   string
		action domain.ActionKind
		want   domain.PolicyEffect
	}{
		{"read logistics", "Logistics", domain.KindRead, domain.EffectAllow},
		{"write logistics", "Logistics", domain.KindWrite, domain.EffectDeny},
		{"read hr", "HR", domain.KindRead, domain.EffectAllow},
		{"write hr", "HR", domain.KindWrite, domain.EffectAllow},
		{"unknown action", "HR", domain.KindPulse, domain.EffectDeny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Authorize(domain.Principal{Name: "x", Department: tt.dept}, tt.action)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoEnforcer_LoadReplaces(t *testing.T) {
	e := NewMemoEnforcer(DefaultPolicies(), zap.NewNop())
	e.Load([]domain.Policy{{Department: "Finance", Action: domain.KindWrite, Effect: domain.EffectAllow}})

	assert.Equal(t, domain.EffectAllow, e.Authorize(domain.Principal{Department: "Finance"}, domain.KindWrite))
	assert.Equal(t, domain.EffectDeny, e.Authorize(domain.Principal{Department: "HR"}, domain.KindWrite))
	assert.Equal(t, domain.EffectDeny, e.Authorize(domain.Principal{Department: "HR"}, domain.KindRead))
}

func TestPolicy_DecideNil(t *testing.T) {
	var p *domain.Policy
	assert.Equal(t, domain.EffectDeny, p.Decide())
	assert.Equal(t, domain.EffectDeny, (&domain.Policy{}).Decide())
}

func TestMemoEnforcer_AllSorted(t *testing.T) {
	e := NewMemoEnforcer(DefaultPolicies(), zap.NewNop())

	all := e.All()
	assert.Len(t, all, 3)
	assert.Equal(t, "*", all[0].Department)
	assert.Equal(t, domain.KindRead, all[0].Action)
	assert.Equal(t, domain.DeptHR, all[2].Department)
}
