package handler

import (
	"net/http"

	"github.com/xela07ax/ztna-soc-console/internal/console/service"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
)

type PolicyHandler struct {
	service *service.PolicyService
}

func NewPolicyHandler(s *service.PolicyService) *PolicyHandler {
	return &PolicyHandler{service: s}
}

// List возвращает активные GPO-политики (только чтение)
// GET /api/v1/policies
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.service.GetAll())
}

type EffectResponse struct {
	Department string              `json:"department"`
	Action     domain.ActionKind   `json:"action"`
	Effect     domain.PolicyEffect `json:"effect"`
}

// Effective - GET /api/v1/policies/effective?dept=HR&action=WRITE
func (h *PolicyHandler) Effective(w http.ResponseWriter, r *http.Request) {
	dept := r.URL.Query().Get("dept")
	action, err := domain.ParseAccessAction(r.URL.Query().Get("action"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, EffectResponse{Department: dept, Action: action, Effect: h.service.Effective(dept, action)})
}
