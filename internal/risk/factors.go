package risk

import (
	"math"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
)

// RoundScore зажимает скор в [0,100] и округляет до десятых.
func RoundScore(v float64) float64 {
	v = math.Max(0, math.Min(100, v))
	return math.Round(v*10) / 10
}

func clampFactor(v int) int {
	return max(0, min(100, v))
}

func floorInt(v float64) int {
	return int(math.Floor(v))
}

// PulseFactors - RBA-факторы фонового пульса.
// geo низкий для локальной сети и растет со скором для внешней; integrity падает со скором.
func PulseFactors(r infra.Random, score float64, local bool) domain.Factors {
	geo := max(30, floorInt(score*0.6+infra.Uniform(r, 15)))
	if local {
		geo = max(2, floorInt(infra.Uniform(r, 10)))
	}
	return domain.Factors{
		Geo:       clampFactor(geo),
		Velocity:  clampFactor(max(5, floorInt(score*0.45+infra.Uniform(r, 10)))),
		Integrity: clampFactor(100 - floorInt(score*0.7+infra.Uniform(r, 5))),
	}
}

// ActionFactors - факторы для явных READ/WRITE. Сеть всегда локальная, поэтому geo следует за скором.
func ActionFactors(r infra.Random, score float64) domain.Factors {
	return domain.Factors{
		Geo:       clampFactor(max(5, floorInt(score*0.45+infra.Uniform(r, 15)))),
		Velocity:  clampFactor(max(3, floorInt(score*0.45+infra.Uniform(r, 15)))),
		Integrity: clampFactor(100 - floorInt(score*0.7+infra.Uniform(r, 10))),
	}
}

// RandomCoords - точка в центральной области карты: x ∈ [20,80], y ∈ [30,70].
func RandomCoords(r infra.Random) domain.Coords {
	return domain.Coords{
		X: 20 + infra.Uniform(r, 60),
		Y: 30 + infra.Uniform(r, 40),
	}
}
