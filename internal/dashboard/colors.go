package dashboard

import "github.com/xela07ax/ztna-soc-console/internal/domain"

// RiskColor: HIGH/CRITICAL - danger, MED/WARN - warning, остальное - success.
func RiskColor(label domain.RiskLabel) domain.Color {
	switch label {
	case domain.LabelHigh, domain.LabelCritical:
		return domain.ColorDanger
	case domain.LabelMed, domain.LabelWarn:
		return domain.ColorWarning
	default:
		return domain.ColorSuccess
	}
}

// StatusColor: VERIFIED/ACCEPTED - success, DENIED/GPO_BLOCK - danger, остальное - warning.
func StatusColor(status domain.Status) domain.Color {
	switch status {
	case domain.StatusVerified, domain.StatusAccepted:
		return domain.ColorSuccess
	case domain.StatusDenied, domain.StatusGPOBlock:
		return domain.ColorDanger
	default:
		return domain.ColorWarning
	}
}
