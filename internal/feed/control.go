package feed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrBadSignal - payload канала управления не в формате "ACTION:ip".
var ErrBadSignal = errors.New("invalid control signal format")

// ParseControlSignal разбирает "BLOCK:10.62.8.14". Режем по первому ':', чтобы не ломать IPv6.
func ParseControlSignal(payload string) (action, ip string, err error) {
	action, ip, ok := strings.Cut(strings.TrimSpace(payload), ":")
	action = strings.ToUpper(strings.TrimSpace(action))
	ip = strings.TrimSpace(ip)
	if !ok || action == "" || ip == "" {
		return "", "", ErrBadSignal
	}
	return action, ip, nil
}

// ListenControlResilient - "живучая" подписка на канал управления SOC в Redis.
// Обрабатывает переподключения, логирование и разбор сигналов.
func ListenControlResilient(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onReconnect func() error, // Callback при каждом успешном коннекте
	onMessage func(action, ip string), // Callback для обработки сигнала
) {
	logger = logger.With(zap.String("mod", "control-listener"), zap.String("chan", channel))

	for {
		pubsub := rdb.Subscribe(ctx, channel)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to subscribe", zap.Error(err))
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}

		logger.Info("control listener subscribed")
		if onReconnect != nil {
			if err := onReconnect(); err != nil {
				logger.Error("sync failed on reconnect", zap.Error(err))
			}
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}

				action, ip, err := ParseControlSignal(msg.Payload)
				if err != nil {
					logger.Error("invalid signal format", zap.String("payload", msg.Payload))
					continue
				}
				onMessage(action, ip)
			}
		}

		pubsub.Close()
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
