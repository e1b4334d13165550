package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"go.uber.org/zap"
)

// AccessService - сценарные действия от имени выбранного отдела.
type AccessService interface {
	SelectDepartment(name, ip string) (domain.Selection, error)
	TryAccess(action string) (domain.ScoredEvent, error)
	TrySystemSettings() (domain.ScoredEvent, error)
	Simulate(scenario, action string) (domain.ScoredEvent, error)
}

type AccessHandler struct {
	service AccessService
	logger  *zap.Logger
}

func NewAccessHandler(s AccessService, logger *zap.Logger) *AccessHandler {
	return &AccessHandler{service: s, logger: logger.Named("access-handler")}
}

type SelectDepartmentRequest struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

// SelectDepartment - POST /api/v1/department
func (h *AccessHandler) SelectDepartment(w http.ResponseWriter, r *http.Request) {
	var req SelectDepartmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sel, err := h.service.SelectDepartment(req.Name, req.IP)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, sel)
}

type AccessRequest struct {
	Action string `json:"action"`
}

// TryAccess - POST /api/v1/access {"action": "READ|WRITE"}
func (h *AccessHandler) TryAccess(w http.ResponseWriter, r *http.Request) {
	var req AccessRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ev, err := h.service.TryAccess(req.Action)
	if err != nil {
		h.logger.Info("access refused", zap.String("action", req.Action), zap.Error(err))
		writeError(w, err)
		return
	}
	writeOK(w, ev)
}

// TrySystemSettings - POST /api/v1/system-settings
func (h *AccessHandler) TrySystemSettings(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.TrySystemSettings()
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, ev)
}

// Simulate - GET /simulate/{scenario}?action=READ|WRITE
func (h *AccessHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	scenario := chi.URLParam(r, "scenario")
	if scenario == "" {
		http.Error(w, "scenario is required", http.StatusBadRequest)
		return
	}

	ev, err := h.service.Simulate(scenario, r.URL.Query().Get("action"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, ev)
}
