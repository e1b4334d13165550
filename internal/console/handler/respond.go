package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/ztna-soc-console/internal/console/service"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
)

// Envelope - общий формат ответа: {"success": true, "data": ...}.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// writeError переводит доменные ошибки в HTTP-коды.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), Envelope{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPreconditionRefused),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(service.ErrInvalidInput, err)
	}
	return nil
}
