package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Env             string
	Port            int
	DBDSN           string
	RedisURL        string
	JWTAccessTTL    time.Duration
	JWTSecret       string
	AllowOrigins    []string
	Location        *time.Location
	LogLevel        string
	LogFormat       string
	SentryDSN       string
	DebugEndpoints  bool
	MigrateOnStart  bool
	DB              DBConfig
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	Monitoring      MonitoringConfig
}

// DBConfig agrupa parâmetros do pool e da sonda de inicialização.
type DBConfig struct {
	MaxConns          int32
	MaxConnIdleTime   time.Duration
	ConnectTimeout    time.Duration
	StartupRetries    int
	StartupRetryDelay time.Duration
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// MonitoringConfig controla o job periódico de verificação do banco.
type MonitoringConfig struct {
	Enabled    bool
	Schedule   string
	Timeout    time.Duration
	WebhookURL string
}

// Load carrega variáveis de ambiente e falha cedo quando falta segredo obrigatório.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Env = strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "dev")))

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = strings.TrimSpace(getEnv("DATABASE_URL", ""))
	if cfg.DBDSN == "" {
		cfg.DBDSN = strings.TrimSpace(getEnv("DB_DSN", ""))
	}
	if cfg.DBDSN == "" {
		return nil, errors.New("DATABASE_URL obrigatório")
	}

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = strings.TrimSpace(getEnv("SECRET_KEY", ""))
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", "http://localhost:3000,http://localhost:3001"), ",")
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	tz := strings.TrimSpace(getEnv("TIMEZONE", "America/Sao_Paulo"))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.New("TIMEZONE inválido")
	}
	cfg.Location = loc

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info")))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", "")))
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if cfg.Env == "prod" {
			cfg.LogFormat = "json"
		}
	}
	cfg.SentryDSN = strings.TrimSpace(getEnv("SENTRY_DSN", ""))

	if cfg.DebugEndpoints, err = parseBoolEnv("DEBUG_ENDPOINTS", false); err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart, err = parseBoolEnv("MIGRATE_ON_START", true); err != nil {
		return nil, err
	}

	maxConns, err := parseIntEnv("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, err
	}
	retries, err := parseIntEnv("DB_STARTUP_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	if retries < 1 {
		return nil, errors.New("DB_STARTUP_RETRIES deve ser positivo")
	}
	idle, err := parseDurationEnv("DB_MAX_CONN_IDLE", 30*time.Second)
	if err != nil {
		return nil, err
	}
	connectTimeout, err := parseDurationEnv("DB_CONNECT_TIMEOUT", 2*time.Second)
	if err != nil {
		return nil, err
	}
	retryDelay, err := parseDurationEnv("DB_STARTUP_RETRY_DELAY", 2*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.DB = DBConfig{
		MaxConns:          int32(maxConns),
		MaxConnIdleTime:   idle,
		ConnectTimeout:    connectTimeout,
		StartupRetries:    retries,
		StartupRetryDelay: retryDelay,
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	if cfg.Monitoring.Enabled, err = parseBoolEnv("MONITOR_ENABLED", true); err != nil {
		return nil, err
	}
	cfg.Monitoring.Schedule = strings.TrimSpace(getEnv("MONITOR_SCHEDULE", "@every 1m"))
	if cfg.Monitoring.Timeout, err = parseDurationEnv("MONITOR_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}
	cfg.Monitoring.WebhookURL = strings.TrimSpace(getEnv("MONITOR_WEBHOOK_URL", ""))

	return cfg, nil
}

// IsProd indica ambiente de produção.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseIntEnv(key string, def int) (int, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.New(key + " inválido")
	}
	return b, nil
}
