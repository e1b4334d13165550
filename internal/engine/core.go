package engine

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xela07ax/ztna-soc-console/internal/bus"
	"github.com/xela07ax/ztna-soc-console/internal/console/service"
	"github.com/xela07ax/ztna-soc-console/internal/console/stream"
	"github.com/xela07ax/ztna-soc-console/internal/dashboard"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/feed"
	"github.com/xela07ax/ztna-soc-console/internal/identity"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
	"github.com/xela07ax/ztna-soc-console/internal/mfa"
	"github.com/xela07ax/ztna-soc-console/internal/policy"
	"github.com/xela07ax/ztna-soc-console/internal/risk"
	"github.com/xela07ax/ztna-soc-console/internal/source"
	"go.uber.org/zap"
)

type Options struct {
	Config   *infra.Config
	Registry prometheus.Registerer
	Sched    infra.Scheduler // nil - time.AfterFunc
	Random   infra.Random    // nil - PCG с seed из конфига

	// Feed - внешняя лента (Redis/NATS); nil - только дашборд.
	Feed feed.BatchWriter
}

// SOCCore - сборка ядра консоли: источник -> Risk Engine -> шина -> подписчики.
type SOCCore struct {
	Bus       *bus.Hub
	Dashboard *dashboard.Reducer
	Generator *source.Generator
	Synth     *source.Synthesizer
	Phone     *mfa.Session
	Control   *service.Controller
	Policies  *policy.MemoEnforcer
	Blocklist *Blocklist
	Stream    *stream.Hub
	Metrics   *Metrics

	forwarder *feed.Forwarder
	cfg       *infra.Config
	logger    *zap.Logger
}

func NewSOCCore(opts Options, logger *zap.Logger) *SOCCore {
	cfg := opts.Config
	sched := opts.Sched
	if sched == nil {
		sched = infra.TimerScheduler{}
	}
	rng := opts.Random
	if rng == nil {
		rng = infra.NewRandom(cfg.Generator.Seed)
	}

	metrics := NewMetrics(opts.Registry)
	hub := bus.NewHub(logger)
	synth := source.NewSynthesizer(cfg.Policy.GPODomain)

	// View - WebSocket-канал; первое сообщение клиенту - health-событие
	ws := stream.NewHub(synth.ConnectionHealth, logger)
	ws.OnClientsChanged(func(n int) { metrics.StreamClients.Set(float64(n)) })

	reducer := dashboard.NewReducer(dashboard.Config{
		LogCap:   cfg.Dashboard.LogCap,
		PulseTTL: cfg.Dashboard.PulseTTL,
	}, ws, sched, rng, logger)
	reducer.OnStepFailed(func(string, error) { metrics.CountError("render") })

	pdp := policy.NewMemoEnforcer(policy.DefaultPolicies(), logger)
	analyzer := risk.NewAnalyzer(pdp, rng, logger)
	catalog := identity.NewCatalog()

	gen := source.NewGenerator(source.Config{
		TickInterval:       cfg.Generator.TickInterval,
		AnomalyProbability: cfg.Generator.AnomalyProbability,
	}, catalog, analyzer, rng, hub, logger)
	gen.OnError(func(error) { metrics.CountError("generation") })

	phone := mfa.NewSession(cfg.MFA.AutoReset, sched, synth.MFAApproved, hub, logger)
	phone.OnChange(ws.PhoneState)

	blocklist := NewBlocklist(logger)
	reducer.AttachMFA(phone.State)
	reducer.AttachBlocklist(blocklist.List)

	c := &SOCCore{
		Bus:       hub,
		Dashboard: reducer,
		Generator: gen,
		Synth:     synth,
		Phone:     phone,
		Control:   service.NewController(reducer, gen, synth, phone, hub, blocklist, logger),
		Policies:  pdp,
		Blocklist: blocklist,
		Stream:    ws,
		Metrics:   metrics,
		cfg:       cfg,
		logger:    logger.Named("core"),
	}

	// Порядок подписки = порядок доставки
	hub.OnSinkFailure(func(string, error) { metrics.CountError("sink_panic") })
	hub.Subscribe("dashboard", reducer)
	hub.Subscribe("metrics", metrics)
	if opts.Feed != nil {
		c.forwarder = c.newForwarder(opts.Feed)
		hub.Subscribe("feed", c.forwarder)
	}
	hub.Subscribe("console", bus.SinkFunc(c.logEvent))

	return c
}

func (c *SOCCore) newForwarder(out feed.BatchWriter) *feed.Forwarder {
	cfg := c.cfg.Feed
	safe := feed.NewReliabilityWrapper(out, feed.ReliabilityConfig{
		MaxRequests:   cfg.CBMaxRequests,
		Timeout:       cfg.CBTimeout,
		FailThreshold: cfg.CBFailThreshold,
		RateLimit:     cfg.RateLimit,
	}, c.logger)
	safe.OnLinkChange(c.Dashboard.SetLink)
	safe.OnStateGauge(func(name string, v float64) {
		c.Metrics.CircuitBreakerState.WithLabelValues(name).Set(v)
	})

	fwd := feed.NewForwarder(safe, feed.ForwarderConfig{
		BufferSize:    cfg.BufferSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, c.logger)
	fwd.OnBufferFill(func(n int) { c.Metrics.FeedBufferFill.Set(float64(n)) })
	fwd.OnFlushError(func(error) { c.Metrics.CountError("feed_write") })
	return fwd
}

func (c *SOCCore) logEvent(ev domain.ScoredEvent) {
	if ev.Kind == domain.KindPulse {
		return // Пульс уже залогирован генератором
	}
	c.logger.Info("event",
		zap.String("kind", string(ev.Kind)),
		zap.String("user", ev.User),
		zap.String("ip", ev.IP),
		zap.String("label", string(ev.RiskLabel)),
		zap.String("status", string(ev.Status)),
		zap.String("msg", ev.Message))
}

// Run запускает ленту и генератор; блокируется до отмены контекста.
func (c *SOCCore) Run(ctx context.Context) error {
	if c.forwarder != nil {
		c.forwarder.Start()
	}
	c.Dashboard.SetLink(domain.LinkUp)

	err := c.Generator.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop - финальный flush ленты, отключение клиентов и таймера телефона.
func (c *SOCCore) Stop() {
	c.Phone.Stop()
	if c.forwarder != nil {
		c.forwarder.Stop()
	}
	c.Stream.Close()
	c.logger.Info("soc core stopped")
}
