package service

import (
	"github.com/xela07ax/ztna-soc-console/internal/domain"
)

// PolicySource - кэш GPO-политик, по которому Risk Engine решает READ/WRITE.
type PolicySource interface {
	All() []domain.Policy
	GetPolicy(department string, action domain.ActionKind) *domain.Policy
}

type PolicyService struct {
	src PolicySource
}

func NewPolicyService(src PolicySource) *PolicyService {
	return &PolicyService{src: src}
}

// GetAll возвращает активные политики; пустой набор отдается как [], а не null.
func (s *PolicyService) GetAll() []domain.Policy {
	list := s.src.All()
	if list == nil {
		return []domain.Policy{}
	}
	return list
}

// Effective - эффект для пары отдел/действие с учетом wildcard.
func (s *PolicyService) Effective(department string, action domain.ActionKind) domain.PolicyEffect {
	return s.src.GetPolicy(department, action).Decide()
}
