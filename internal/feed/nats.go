package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"go.uber.org/zap"
)

// NATSConn - то, что нужно от *nats.Conn.
type NATSConn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSPublisher публикует события в subject NATS и дожидается flush пачки.
type NATSPublisher struct {
	nc            NATSConn
	subject       string
	reconnectWait time.Duration
}

func NewNATSPublisher(nc NATSConn, subject string, reconnectWait time.Duration) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject, reconnectWait: reconnectWait}
}

func (p *NATSPublisher) WriteBatch(ctx context.Context, events []domain.ScoredEvent) error {
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", ev.ID, err)
		}
		if err := p.nc.Publish(p.subject, payload); err != nil {
			// Буфер переподключения переполнен: ждем следующей попытки реконнекта
			if errors.Is(err, nats.ErrReconnectBufExceeded) {
				return &ThrottleError{RetryAfter: p.reconnectWait, Err: err}
			}
			return fmt.Errorf("nats publish to %s: %w", p.subject, err)
		}
	}
	return p.nc.FlushWithContext(ctx)
}

// ConnectNATS открывает соединение с бесконечным реконнектом и логированием разрывов.
func ConnectNATS(url, name string, reconnectWait time.Duration, logger *zap.Logger) (*nats.Conn, error) {
	log := logger.With(zap.String("mod", "nats"))
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}
