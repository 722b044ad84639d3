package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Backpressure policies for the batching writer's enqueue path.
const (
	PolicyReject = "reject"
	PolicyBlock  = "block"
)

// Config holds all application configuration
type Config struct {
	Port    string
	Backend BackendConfig
	Writer  WriterConfig
	Redis   RedisConfig
}

// BackendConfig holds the time-series storage backend settings. The
// backend is consumed through its HTTP line-protocol write API only.
type BackendConfig struct {
	URL            string // base URL, e.g. http://127.0.0.1:8086
	Token          string // write credential, sent as "Authorization: Token <...>"
	WriteTimeoutMS int    // per-write network timeout in milliseconds
}

// WriterConfig holds the batching writer settings.
type WriterConfig struct {
	BatchSize          int    // records per flush before a size-triggered flush (default: 500)
	FlushIntervalMS    int    // max milliseconds between flushes (default: 1000)
	QueueCapacity      int    // capacity of the pending record queue (default: 10,000)
	MaxRetryAttempts   int    // total write attempts per batch, first try included (default: 5)
	BackoffBaseDelayMS int    // initial retry backoff delay in milliseconds (default: 100)
	BackpressurePolicy string // "reject" or "block" when the queue is full
}

// RedisConfig holds Redis connection settings for the dedup cache.
type RedisConfig struct {
	Host       string
	Port       string
	Password   string
	Endpoint   string
	DedupTTLMS int64 // how long processed-event keys are remembered
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "3000"),
		Backend: BackendConfig{
			URL:            getEnv("BACKEND_URL", "http://127.0.0.1:8086"),
			Token:          getEnv("BACKEND_TOKEN", ""),
			WriteTimeoutMS: getEnvAsInt("BACKEND_WRITE_TIMEOUT_MS", 30000),
		},
		Writer: WriterConfig{
			BatchSize:          getEnvAsInt("EVENT_BATCH_SIZE", 500),
			FlushIntervalMS:    getEnvAsInt("EVENT_FLUSH_INTERVAL_MS", 1000),
			QueueCapacity:      getEnvAsInt("EVENT_QUEUE_CAPACITY", 10000),
			MaxRetryAttempts:   getEnvAsInt("WRITER_MAX_RETRY_ATTEMPTS", 5),
			BackoffBaseDelayMS: getEnvAsInt("WRITER_BACKOFF_BASE_DELAY_MS", 100),
			BackpressurePolicy: policy(getEnv("WRITER_BACKPRESSURE_POLICY", PolicyReject)),
		},
		Redis: RedisConfig{
			Host:       getEnv("REDIS_HOST", "127.0.0.1"),
			Port:       getEnv("REDIS_PORT", "6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			Endpoint:   getEnv("REDIS_ENDPOINT", ""),
			DedupTTLMS: getEnvAsInt64("REDIS_DEDUP_TTL_MS", 60*60*1000),
		},
	}
}

// FlushInterval returns the flush interval as a duration.
func (w *WriterConfig) FlushInterval() time.Duration {
	return time.Duration(w.FlushIntervalMS) * time.Millisecond
}

// BackoffBaseDelay returns the initial retry delay as a duration.
func (w *WriterConfig) BackoffBaseDelay() time.Duration {
	return time.Duration(w.BackoffBaseDelayMS) * time.Millisecond
}

// WriteTimeout returns the per-write network timeout as a duration.
func (b *BackendConfig) WriteTimeout() time.Duration {
	return time.Duration(b.WriteTimeoutMS) * time.Millisecond
}

// WriteURL returns the backend write endpoint with second precision
// configured, per the pipeline's time-precision decision.
func (b *BackendConfig) WriteURL() string {
	return strings.TrimRight(b.URL, "/") + "/write?precision=s"
}

// PingURL returns the backend health endpoint.
func (b *BackendConfig) PingURL() string {
	return strings.TrimRight(b.URL, "/") + "/ping"
}

func (r *RedisConfig) GetRedisAddr() string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	return r.Host + ":" + r.Port
}

// policy normalizes the backpressure policy, falling back to reject on
// anything unrecognized.
func policy(value string) string {
	if strings.EqualFold(value, PolicyBlock) {
		return PolicyBlock
	}
	return PolicyReject
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
