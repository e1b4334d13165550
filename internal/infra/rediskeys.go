package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "trashure"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanFeed - внешняя лента оцененных событий (JSON ScoredEvent).
	RedisChanFeed = RedisNamespace + ":soc:ztna-log"

	// RedisChanControl - удаленные команды оператора в формате "ACTION:ip".
	RedisChanControl = RedisNamespace + ":soc:control"
)

// NATSSubjectFeed - subject внешней ленты в NATS.
const NATSSubjectFeed = "soc.ztna.log"
