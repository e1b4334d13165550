package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - корневая структура конфигурации консоли.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	MFA       MFAConfig       `mapstructure:"mfa"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Control   ControlConfig   `mapstructure:"control"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MetricsPort  int           `mapstructure:"metrics_port"` // 0 - метрики не публикуются
}

// Addr - адрес основного листенера.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GeneratorConfig - периодический источник пульсов.
type GeneratorConfig struct {
	TickInterval       time.Duration `mapstructure:"tick_interval"`
	AnomalyProbability float64       `mapstructure:"anomaly_probability"`
	Seed               uint64        `mapstructure:"seed"` // 0 - от времени старта
}

type DashboardConfig struct {
	LogCap   int           `mapstructure:"log_cap"`
	PulseTTL time.Duration `mapstructure:"pulse_ttl"`
}

type MFAConfig struct {
	AutoReset time.Duration `mapstructure:"auto_reset"`
}

// PolicyConfig - домен GPO, который фигурирует в сообщениях о нарушениях.
type PolicyConfig struct {
	GPODomain string `mapstructure:"gpo_domain"`
}

// FeedConfig - внешняя лента событий (Redis Pub/Sub или NATS).
type FeedConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Backend       string        `mapstructure:"backend"` // redis, nats
	Channel       string        `mapstructure:"channel"` // Redis
	Subject       string        `mapstructure:"subject"` // NATS
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`

	// Настройки Circuit Breaker и лимитера для записи в брокер
	CBMaxRequests   uint32        `mapstructure:"cb_max_requests"`
	CBTimeout       time.Duration `mapstructure:"cb_timeout"`
	CBFailThreshold uint32        `mapstructure:"cb_fail_threshold"`
	RateLimit       float64       `mapstructure:"rate_limit"`
}

// ControlConfig - удаленный канал управления SOC ("ACTION:ip" в Redis).
type ControlConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами

	// 2. Переменные окружения: GENERATOR_TICK_INTERVAL=1s перекроет generator.tick_interval
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет - работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3050)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.metrics_port", 9090)

	v.SetDefault("generator.tick_interval", 3*time.Second)
	v.SetDefault("generator.anomaly_probability", 0.3)
	v.SetDefault("generator.seed", 0)

	v.SetDefault("dashboard.log_cap", 30)
	v.SetDefault("dashboard.pulse_ttl", 3*time.Second)
	v.SetDefault("mfa.auto_reset", 1500*time.Millisecond)
	v.SetDefault("policy.gpo_domain", "trashure.local")

	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.backend", "redis")
	v.SetDefault("feed.channel", RedisChanFeed)
	v.SetDefault("feed.subject", NATSSubjectFeed)
	v.SetDefault("feed.buffer_size", 1000)
	v.SetDefault("feed.batch_size", 100)
	v.SetDefault("feed.flush_interval", 500*time.Millisecond)
	v.SetDefault("feed.cb_max_requests", 3)
	v.SetDefault("feed.cb_timeout", 30*time.Second)
	v.SetDefault("feed.cb_fail_threshold", 5)
	v.SetDefault("feed.rate_limit", 50)

	v.SetDefault("control.enabled", false)
	v.SetDefault("control.channel", RedisChanControl)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.reconnect_wait", 2*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
}

// Validate отсекает конфигурации, на которых генератор или дашборд не работают.
func (c *Config) Validate() error {
	var errs []error
	if c.Generator.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("generator.tick_interval must be positive, got %s", c.Generator.TickInterval))
	}
	if p := c.Generator.AnomalyProbability; p < 0 || p > 1 {
		errs = append(errs, fmt.Errorf("generator.anomaly_probability must be in [0,1], got %g", p))
	}
	if c.Dashboard.LogCap < 1 {
		errs = append(errs, fmt.Errorf("dashboard.log_cap must be at least 1, got %d", c.Dashboard.LogCap))
	}
	if c.Dashboard.PulseTTL <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.pulse_ttl must be positive, got %s", c.Dashboard.PulseTTL))
	}
	if c.MFA.AutoReset <= 0 {
		errs = append(errs, fmt.Errorf("mfa.auto_reset must be positive, got %s", c.MFA.AutoReset))
	}
	if c.Feed.Enabled {
		switch c.Feed.Backend {
		case "redis", "nats":
		default:
			errs = append(errs, fmt.Errorf("feed.backend must be redis or nats, got %q", c.Feed.Backend))
		}
		if c.Feed.FlushInterval <= 0 {
			errs = append(errs, fmt.Errorf("feed.flush_interval must be positive, got %s", c.Feed.FlushInterval))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
