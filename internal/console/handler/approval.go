package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"go.uber.org/zap"
)

// ApprovalService Описываем, что нам нужно от симулированного телефона
type ApprovalService interface {
	TriggerManualMFA(user, score string) (domain.ScoredEvent, error)
	PhoneAction(action string) error
}

type PhoneState interface {
	State() domain.MFAState
}

type ApprovalHandler struct {
	service ApprovalService
	phone   PhoneState
	logger  *zap.Logger
}

func NewApprovalHandler(s ApprovalService, phone PhoneState, logger *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{service: s, phone: phone, logger: logger.Named("approval-handler")}
}

// ChallengeRequest: score строкой, как его показывает строка журнала ("55.0").
type ChallengeRequest struct {
	User  string `json:"user"`
	Score string `json:"score"`
}

// Challenge - POST /api/v1/mfa/challenge
func (h *ApprovalHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	var req ChallengeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ev, err := h.service.TriggerManualMFA(req.User, req.Score)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, ev)
}

// Decide - POST /api/v1/phone/{action}, action = approve | deny
func (h *ApprovalHandler) Decide(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	if err := h.service.PhoneAction(action); err != nil {
		h.logger.Info("phone action rejected", zap.String("action", action), zap.Error(err))
		writeError(w, err)
		return
	}
	writeOK(w, h.phone.State())
}

// GetState - GET /api/v1/phone
func (h *ApprovalHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.phone.State())
}
