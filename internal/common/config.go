package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. Thresholds and weights are
// carried as explicit values into the detector/resolver/validator
// constructors, never read from ambient state, so concurrent batches can run
// with different settings.
type Config struct {
	Detection  DetectionConfig
	Resolution ResolutionConfig
	Validation ValidationConfig
	Store      StoreConfig
	Batch      BatchConfig
}

// DetectionConfig holds supplier-classification thresholds and weights.
type DetectionConfig struct {
	Threshold       float64 // minimum combined score to accept a supplier
	TieMargin       float64 // top-two scores closer than this are ambiguous
	PatternWeight   float64
	SignatureWeight float64
}

// ResolutionConfig holds name-matching thresholds.
type ResolutionConfig struct {
	Threshold       float64 // minimum similarity to consider a roster entry
	TieMargin       float64 // candidates closer than this are ambiguous
	FirstNameWeight float64 // discount applied to first-name-only similarity
}

// ValidationConfig holds discrepancy-check parameters.
type ValidationConfig struct {
	AmountEpsilon string  // currency-unit tolerance for total checks
	MinMatchRate  float64 // minimum acceptable resolution completeness
}

// StoreConfig holds profile-store configuration.
type StoreConfig struct {
	Path        string
	DialTimeout time.Duration
}

// BatchConfig holds worker-queue configuration.
type BatchConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Detection: DetectionConfig{
			Threshold:       getEnvAsFloat("DETECT_THRESHOLD", 0.70),
			TieMargin:       getEnvAsFloat("DETECT_TIE_MARGIN", 0.05),
			PatternWeight:   getEnvAsFloat("DETECT_PATTERN_WEIGHT", 0.7),
			SignatureWeight: getEnvAsFloat("DETECT_SIGNATURE_WEIGHT", 0.3),
		},
		Resolution: ResolutionConfig{
			Threshold:       getEnvAsFloat("RESOLVE_THRESHOLD", 0.80),
			TieMargin:       getEnvAsFloat("RESOLVE_TIE_MARGIN", 0.05),
			FirstNameWeight: getEnvAsFloat("RESOLVE_FIRSTNAME_WEIGHT", 0.90),
		},
		Validation: ValidationConfig{
			AmountEpsilon: getEnv("VALIDATE_AMOUNT_EPSILON", "0.01"),
			MinMatchRate:  getEnvAsFloat("VALIDATE_MIN_MATCH_RATE", 0.80),
		},
		Store: StoreConfig{
			Path:        getEnv("PROFILE_DB_PATH", "profiles.db"),
			DialTimeout: getEnvAsDuration("PROFILE_DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Batch: BatchConfig{
			Workers:        getEnvAsInt("BATCH_WORKERS", 4),
			QueueSize:      getEnvAsInt("BATCH_QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("BATCH_PROCESS_TIMEOUT", time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Detection.Threshold <= 0 || c.Detection.Threshold > 1 {
		return NewAppError("CONFIG_ERROR", "DETECT_THRESHOLD must be in (0, 1]", ErrInvalidInput)
	}
	if c.Resolution.Threshold <= 0 || c.Resolution.Threshold > 1 {
		return NewAppError("CONFIG_ERROR", "RESOLVE_THRESHOLD must be in (0, 1]", ErrInvalidInput)
	}
	if c.Detection.PatternWeight+c.Detection.SignatureWeight == 0 {
		return NewAppError("CONFIG_ERROR", "detection weights must not both be zero", ErrInvalidInput)
	}
	if c.Batch.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
