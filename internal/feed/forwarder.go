package feed

/*
Forwarder выносит события шины во внешнюю ленту (Redis Pub/Sub или NATS).

- Non-blocking: Consume вызывается синхронно из шины и только кладет событие
  в буферизованный канал. Медленный брокер не тормозит дашборд.
- Batching: воркер копит события и отдает их пачкой по таймеру или по лимиту.
- Drain Pattern: Stop закрывает вход, воркер вычитывает остаток и делает финальный flush.
  Отправка в канал и его закрытие разведены мьютексом: Consume после Stop только считает потерю.
- Load Shedding: при переполнении буфера событие отбрасывается с записью в лог.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"go.uber.org/zap"
)

// BatchWriter определяет, куда физически уходят события
type BatchWriter interface {
	// WriteBatch отправляет пачку событий за один раз. Слайс переиспользуется после возврата.
	WriteBatch(ctx context.Context, events []domain.ScoredEvent) error
}

type ForwarderConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

type Forwarder struct {
	ch     chan domain.ScoredEvent // Буфер для асинхронности
	out    BatchWriter
	cfg    ForwarderConfig
	logger *zap.Logger
	wg     sync.WaitGroup

	mu      sync.RWMutex // RLock - отправка в ch, Lock - закрытие ch
	closed  bool
	dropped atomic.Int64

	onFill  func(n int)
	onError func(err error)
}

func NewForwarder(out BatchWriter, cfg ForwarderConfig, logger *zap.Logger) *Forwarder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	return &Forwarder{
		ch:     make(chan domain.ScoredEvent, cfg.BufferSize),
		out:    out,
		cfg:    cfg,
		logger: logger.With(zap.String("mod", "feed")),
	}
}

// OnBufferFill - наблюдатель за заполненностью буфера (gauge в метриках).
func (f *Forwarder) OnBufferFill(fn func(n int)) { f.onFill = fn }

// OnFlushError - наблюдатель за неудачной записью пачки.
func (f *Forwarder) OnFlushError(fn func(err error)) { f.onError = fn }

// Dropped - сколько событий сброшено из-за переполнения или остановки.
func (f *Forwarder) Dropped() int64 { return f.dropped.Load() }

func (f *Forwarder) Start() {
	f.wg.Add(1)
	go f.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (f *Forwarder) Stop() {
	// Lock дождется Consume, которые уже внутри отправки
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.ch)
	f.mu.Unlock()

	f.logger.Info("stopping feed: channel closed, flushing buffer...")
	f.wg.Wait()
	f.logger.Info("feed stopped gracefully", zap.Int64("dropped", f.Dropped()))
}

// Consume - подписчик шины. Никогда не блокируется.
func (f *Forwarder) Consume(ev domain.ScoredEvent) {
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		f.dropped.Add(1)
		f.logger.Warn("feed event dropped: forwarder is stopping", zap.String("id", ev.ID))
		return
	}

	// Отправка неблокирующая, поэтому RLock не задерживает Stop
	var sent bool
	select {
	case f.ch <- ev:
		sent = true
	default:
	}
	f.mu.RUnlock()

	if sent {
		if f.onFill != nil {
			f.onFill(len(f.ch))
		}
	} else {
		f.dropped.Add(1)
		f.logger.Error("feed_buffer_overflow",
			zap.String("id", ev.ID),
			zap.String("user", ev.User),
			zap.String("label", string(ev.RiskLabel)),
		)
	}
}

func (f *Forwarder) worker() {
	defer f.wg.Done()

	batch := make([]domain.ScoredEvent, 0, f.cfg.BatchSize)
	ticker := time.NewTicker(f.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст может быть уже закрыт
			if err := f.out.WriteBatch(context.Background(), batch); err != nil {
				f.logger.Error("feed flush failed", zap.Int("batch", len(batch)), zap.Error(err))
				if f.onError != nil {
					f.onError(err)
				}
			}
			batch = batch[:0]
		}
		if f.onFill != nil {
			f.onFill(len(f.ch))
		}
	}

	for {
		select {
		case ev, ok := <-f.ch:
			if !ok {
				// Канал закрыт в Stop(): остаток уже вычитан, финальный сброс
				flush()
				f.logger.Info("feed worker finished")
				return
			}
			batch = append(batch, ev)
			if len(batch) >= f.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
