package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"go.uber.org/zap"
)

// InterventionService - ручные действия оператора SOC.
type InterventionService interface {
	ManualAction(action, ip string) (domain.ScoredEvent, error)
}

type BlocklistService interface {
	List() []string
	Unblock(ip string) bool
}

type InterventionHandler struct {
	service   InterventionService
	blocklist BlocklistService
	logger    *zap.Logger
}

func NewInterventionHandler(s InterventionService, b BlocklistService, logger *zap.Logger) *InterventionHandler {
	return &InterventionHandler{service: s, blocklist: b, logger: logger.Named("intervention-handler")}
}

type SOCActionRequest struct {
	Action string `json:"action"`
	IP     string `json:"ip"`
}

// SOCAction - POST /soc/action {"action": "BLOCK", "ip": "1.2.3.4"}
func (h *InterventionHandler) SOCAction(w http.ResponseWriter, r *http.Request) {
	var req SOCActionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.service.ManualAction(req.Action, req.IP); err != nil {
		h.logger.Warn("manual action rejected", zap.String("ip", req.IP), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true})
}

type BlockRequest struct {
	IP string `json:"ip"`
}

// Block - POST /api/v1/block {"ip": "..."}; кнопка BLOCK в строке журнала.
func (h *InterventionHandler) Block(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ev, err := h.service.ManualAction("BLOCK", req.IP)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, ev)
}

// ListBlocked - GET /api/v1/blocklist
func (h *InterventionHandler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.blocklist.List())
}

// Unblock - DELETE /api/v1/blocklist/{ip}
func (h *InterventionHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")
	if !h.blocklist.Unblock(ip) {
		http.Error(w, "ip is not blocked", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
