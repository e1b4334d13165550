package handler

import (
	"net/http"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
)

// DashboardService Описываем, что нам нужно от состояния дашборда
type DashboardService interface {
	Snapshot() domain.DashboardSnapshot
}

type Clearer interface {
	ClearDashboard()
}

type DashboardHandler struct {
	state   DashboardService
	control Clearer
}

func NewDashboardHandler(state DashboardService, control Clearer) *DashboardHandler {
	return &DashboardHandler{state: state, control: control}
}

// GetSnapshot - GET /api/v1/dashboard
func (h *DashboardHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// Clear - POST /api/v1/dashboard/clear. Счетчики сессии сохраняются.
func (h *DashboardHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.control.ClearDashboard()
	w.WriteHeader(http.StatusNoContent)
}
