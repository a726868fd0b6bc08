package search

import (
	"sort"
	"time"
)

// BoostStep maps a minimum vector score to a combined-score multiplier.
// Near-exact semantic matches get rewarded so a fixed linear weight does
// not dilute them.
type BoostStep struct {
	Min        float64
	Multiplier float64
}

// FieldWeights distributes keyword relevance across document fields. The
// weights sum to 1: a title hit is stronger evidence than a suggested-tag
// hit.
type FieldWeights struct {
	Title         float64
	Description   float64
	Summary       float64
	KeyPoints     float64
	Tags          float64
	SuggestedTags float64
}

// Config holds the tunables of the retrieval engine.
type Config struct {
	// VectorWeight is the hybrid fusion weight w: vector contributes
	// score*w, keyword score*(1-w).
	VectorWeight float64
	// BoostSteps are evaluated highest Min first; the first match wins.
	BoostSteps   []BoostStep
	FieldWeights FieldWeights

	DefaultLimit int
	MaxLimit     int

	// Default similarity thresholds when the caller passes none.
	HybridThreshold float64
	VectorThreshold float64

	CacheTTL  time.Duration
	CacheSize int

	// EmbedTimeout bounds each embedding provider call.
	EmbedTimeout time.Duration

	// RecentSampleSize bounds the keyword retriever's fallback pool of
	// recently updated documents.
	RecentSampleSize int

	// HistoryMaxWait bounds the detached best-effort history write.
	HistoryMaxWait time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		VectorWeight: 0.6,
		BoostSteps: []BoostStep{
			{Min: 0.90, Multiplier: 1.15},
			{Min: 0.80, Multiplier: 1.10},
			{Min: 0.70, Multiplier: 1.05},
		},
		FieldWeights: FieldWeights{
			Title:         0.35,
			Tags:          0.18,
			Summary:       0.17,
			Description:   0.12,
			KeyPoints:     0.12,
			SuggestedTags: 0.06,
		},
		DefaultLimit:     20,
		MaxLimit:         50,
		HybridThreshold:  0.4,
		VectorThreshold:  0.5,
		CacheTTL:         5 * time.Minute,
		CacheSize:        512,
		EmbedTimeout:     10 * time.Second,
		RecentSampleSize: 25,
		HistoryMaxWait:   5 * time.Second,
	}
}

// applyDefaults fills zero fields from DefaultConfig.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.VectorWeight <= 0 || c.VectorWeight > 1 {
		c.VectorWeight = def.VectorWeight
	}
	if len(c.BoostSteps) == 0 {
		c.BoostSteps = def.BoostSteps
	}
	sort.Slice(c.BoostSteps, func(i, j int) bool {
		return c.BoostSteps[i].Min > c.BoostSteps[j].Min
	})
	if c.FieldWeights == (FieldWeights{}) {
		c.FieldWeights = def.FieldWeights
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = def.DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = def.MaxLimit
	}
	if c.HybridThreshold <= 0 {
		c.HybridThreshold = def.HybridThreshold
	}
	if c.VectorThreshold <= 0 {
		c.VectorThreshold = def.VectorThreshold
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.CacheSize <= 0 {
		c.CacheSize = def.CacheSize
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = def.EmbedTimeout
	}
	if c.RecentSampleSize <= 0 {
		c.RecentSampleSize = def.RecentSampleSize
	}
	if c.HistoryMaxWait <= 0 {
		c.HistoryMaxWait = def.HistoryMaxWait
	}
}
