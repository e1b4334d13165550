package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/identity"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
	"go.uber.org/zap"
)

var (
	LocalSubnets   = []string{"10.62.8", "10.62.30", "10.62.150"}
	AnomalySubnets = []string{"172.16.10", "192.168.1", "103.11.24", "45.76.12"}
)

// ScenarioSubnet - сеть, из которой приходят сценарные READ/WRITE.
const ScenarioSubnet = "10.62.8"

// ErrGeneration - сбой синтеза пульса; тик пропускается.
var ErrGeneration = errors.New("pulse generation failed")

// Scorer - Risk Engine с точки зрения источника.
type Scorer interface {
	Score(raw domain.RawEvent) (domain.ScoredEvent, error)
}

// Publisher - шина событий с точки зрения источника.
type Publisher interface {
	Publish(ev domain.ScoredEvent)
}

type Config struct {
	TickInterval       time.Duration
	AnomalyProbability float64
}

// Generator - периодический источник синтетических событий доступа.
type Generator struct {
	catalog *identity.Catalog
	scorer  Scorer
	rng     infra.Random
	pub     Publisher
	cfg     Config
	logger  *zap.Logger

	onError func(err error)
}

func NewGenerator(cfg Config, catalog *identity.Catalog, scorer Scorer, rng infra.Random, pub Publisher, logger *zap.Logger) *Generator {
	return &Generator{
		catalog: catalog,
		scorer:  scorer,
		rng:     rng,
		pub:     pub,
		cfg:     cfg,
		logger:  logger.Named("generator"),
	}
}

// OnError регистрирует наблюдателя за пропущенными тиками (метрики).
func (g *Generator) OnError(f func(err error)) {
	g.onError = f
}

// Run выдает первый пульс сразу, затем по тикеру до отмены контекста.
func (g *Generator) Run(ctx context.Context) error {
	g.logger.Info("live simulation engine started",
		zap.Duration("tick", g.cfg.TickInterval),
		zap.Float64("anomaly_probability", g.cfg.AnomalyProbability))

	g.tick()

	ticker := time.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("live simulation engine stopping by context...")
			return ctx.Err()
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *Generator) tick() {
	if _, err := g.Pulse(); err != nil {
		g.logger.Error("pulse generation error", zap.Error(err))
		if g.onError != nil {
			g.onError(err)
		}
	}
}

// Pulse синтезирует, оценивает и публикует одно фоновое событие.
func (g *Generator) Pulse() (ev domain.ScoredEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrGeneration, r)
		}
	}()

	raw := g.NextRaw()
	ev, err = g.scorer.Score(raw)
	if err != nil {
		return domain.ScoredEvent{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if f := ev.Factors; f != nil {
		g.logger.Debug(fmt.Sprintf("PULSE: %s (%s) [%s] RBA: %d/%d/%d",
			ev.User, ev.IP, ev.RiskLabel, f.Geo, f.Velocity, f.Integrity))
	}

	g.pub.Publish(ev)
	return ev, nil
}

// NextRaw собирает RawEvent пульса: случайный субъект, аномалия с вероятностью AnomalyProbability.
func (g *Generator) NextRaw() domain.RawEvent {
	p := g.catalog.Random(g.rng)

	subnets := LocalSubnets
	if g.rng.Float64() < g.cfg.AnomalyProbability {
		subnets = AnomalySubnets
	}
	subnet := subnets[g.rng.IntN(len(subnets))]

	return domain.RawEvent{
		Kind:      domain.KindPulse,
		Principal: p,
		IP:        fmt.Sprintf("%s.%d", subnet, g.rng.IntN(254)),
		Subnet:    subnet,
	}
}

// Scenario - READ/WRITE от имени первого сотрудника отдела, чье имя содержит dept.
func (g *Generator) Scenario(dept string, action domain.ActionKind) (domain.ScoredEvent, error) {
	if action != domain.KindRead && action != domain.KindWrite {
		return domain.ScoredEvent{}, fmt.Errorf("scenario %q: %w", action, domain.ErrUnknownAction)
	}

	p := g.catalog.FirstByDeptSubstring(LookupDept(dept))
	raw := domain.RawEvent{
		Kind:        action,
		Principal:   p,
		IP:          fmt.Sprintf("%s.%d", ScenarioSubnet, g.rng.IntN(254)),
		ScenarioTag: ScenarioTag(dept),
	}

	ev, err := g.scorer.Score(raw)
	if err != nil {
		return domain.ScoredEvent{}, fmt.Errorf("scenario %s/%s: %w", dept, action, err)
	}

	g.logger.Info("scenario evaluated",
		zap.String("dept", dept),
		zap.String("action", string(action)),
		zap.String("user", ev.User),
		zap.String("status", string(ev.Status)),
		zap.Float64("score", ev.RiskScore))

	g.pub.Publish(ev)
	return ev, nil
}

// ScenarioTag нормализует отдел в тег сценария: нижний регистр, "r&d" -> "rd".
func ScenarioTag(dept string) string {
	tag := strings.ToLower(strings.TrimSpace(dept))
	return strings.ReplaceAll(tag, "&", "")
}

// LookupDept - обратное преобразование тега для поиска в каталоге ("rd" -> "r&d").
func LookupDept(s string) string {
	if ScenarioTag(s) == "rd" {
		return "r&d"
	}
	return s
}
