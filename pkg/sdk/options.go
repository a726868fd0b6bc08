package docdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	username string
	password string

	embedder Embedder

	keyPrefix     string
	vectorWeight  float64
	historyStream string
	historyMaxLen int64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithUsername sets the database ACL user. Default: none.
func WithUsername(user string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = user
	})
}

// WithEmbedder sets the text embedding provider.
// Without it only keyword search is available.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithKeyPrefix sets the key namespace shared with the ingestion
// pipeline. Default: "docdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithVectorWeight sets the hybrid fusion weight for the vector leg,
// in [0, 1]. Default: 0.6.
func WithVectorWeight(w float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorWeight = w
	})
}

// WithHistory enables best-effort query history recording to a stream.
// maxLen bounds the stream with approximate trimming; 0 uses the
// default of 10000.
func WithHistory(stream string, maxLen int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.historyStream = stream
		c.historyMaxLen = maxLen
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
