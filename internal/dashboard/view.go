package dashboard

import "github.com/xela07ax/ztna-soc-console/internal/domain"

// View - тонкий sink в сторону UI. Верстку, графики и локаль делает фронтенд.
type View interface {
	Render(ev domain.ScoredEvent)
	Clear()
	SetLinkIndicator(state domain.LinkState)
}

// ChartView - необязательная возможность View отрисовать спарклайн.
// Если View ее не реализует, обновление графика - тихий no-op.
type ChartView interface {
	DrawSparkline(samples []int) error
}

// NopView - View для headless-режима (CLI, тесты).
type NopView struct{}

func (NopView) Render(domain.ScoredEvent) {}
func (NopView) Clear() {}
func (NopView) SetLinkIndicator(domain.LinkState) {}
