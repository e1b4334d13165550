package policy

import (
	"sort"
	"sync"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"go.uber.org/zap"
)

// MemoEnforcer реализует Enforcer на потокобезопасной мапе.
// Кэш: "department:action" -> Policy. Все решения принимаются только в RAM.
type MemoEnforcer struct {
	mu       sync.RWMutex
	policies map[string]domain.Policy
	logger   *zap.Logger
}

func NewMemoEnforcer(policies []domain.Policy, logger *zap.Logger) *MemoEnforcer {
	e := &MemoEnforcer{logger: logger.Named("enforcer")}
	e.Load(policies)
	return e
}

// GetPolicy ищет сначала политику отдела, затем глобальную (wildcard).
func (e *MemoEnforcer) GetPolicy(department string, action domain.ActionKind) *domain.Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if p, ok := e.policies[department+":"+string(action)]; ok {
		return &p
	}
	if p, ok := e.policies["*:"+string(action)]; ok {
		return &p
	}
	return nil
}

// Authorize - неизвестное действие или отсутствие политики означает DENY.
func (e *MemoEnforcer) Authorize(p domain.Principal, action domain.ActionKind) domain.PolicyEffect {
	return e.GetPolicy(p.Department, action).Decide()
}

// Load атомарно заменяет набор политик.
func (e *MemoEnforcer) Load(policies []domain.Policy) {
	next := make(map[string]domain.Policy, len(policies))
	for _, p := range policies {
		next[p.Department+":"+string(p.Action)] = p
	}

	e.mu.Lock()
	e.policies = next
	e.mu.Unlock()

	e.logger.Info("policy cache refreshed", zap.Int("count", len(next)))
}

// All - копия активных политик, отсортированная по отделу и действию.
func (e *MemoEnforcer) All() []domain.Policy {
	e.mu.RLock()
	out := make([]domain.Policy, 0, len(e.policies))
	for _, p := range e.policies {
		out = append(out, p)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Department == out[j].Department {
			return out[i].Action < out[j].Action
		}
		return out[i].Department < out[j].Department
	})
	return out
}
