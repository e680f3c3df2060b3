package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Recognition  RecognitionConfig
	Quality      QualityConfig
	Embedding    EmbeddingConfig
	Enrollment   EnrollmentConfig
	Verification VerificationConfig
	Defaults     Defaults
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL          string // postgres:// URL or MySQL DSN; empty runs the in-memory store
	MaxOpenConns int    // default 25
	MaxIdleConns int    // default 5
	HNSWEnabled  bool   // build the in-memory similarity index on startup
}

// RecognitionConfig holds environment fallbacks for oracle settings. The
// authoritative values live in the settings store (see SettingsService);
// these apply only when the store has no value for a key.
type RecognitionConfig struct {
	PairwiseURL  string
	IndexedURL   string
	APIKey       string
	CollectionID string
}

type QualityConfig struct {
	Provider     string // "openai", "gemini" or "" (gate always passes)
	OpenAIToken  string
	GeminiAPIKey string
}

type EmbeddingConfig struct {
	URL string // optional embedding server; empty fills placeholder vectors
	Dim int    // defaults to 512
}

type EnrollmentConfig struct {
	Angles       []string // capture sequence, defaults from defaults.yaml
	AdvanceDelay time.Duration
}

type VerificationConfig struct {
	ConfidenceThreshold float64
	RequiredMatches     int // matches required with >= MultiReferenceMin references
	MultiReferenceMin   int
	OracleTimeout       time.Duration
	DisplayWindow       time.Duration
	CheckInLimit        int
}

// Defaults mirrors the embedded defaults.yaml.
type Defaults struct {
	Enrollment struct {
		Angles         []string `yaml:"angles"`
		AdvanceDelayMs int      `yaml:"advance_delay_ms"`
	} `yaml:"enrollment"`
	Consensus struct {
		ConfidenceThreshold   float64 `yaml:"confidence_threshold"`
		RequiredMatches       int     `yaml:"required_matches"`
		MultiReferenceMinimum int     `yaml:"multi_reference_minimum"`
	} `yaml:"consensus"`
	Verification struct {
		OracleTimeoutMs int `yaml:"oracle_timeout_ms"`
		DisplayWindowMs int `yaml:"display_window_ms"`
		CheckInLimit    int `yaml:"checkin_limit"`
	} `yaml:"verification"`
	OperatingPoints []OperatingPointDefault `yaml:"operating_points"`
}

// OperatingPointDefault is a fallback operating point for indexed oracles
// that do not report their own.
type OperatingPointDefault struct {
	Name            string  `yaml:"name"`
	Threshold       float64 `yaml:"threshold"`
	FalseAcceptRate float64 `yaml:"false_accept_rate"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envList reads a comma-separated environment variable.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var defaults Defaults
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// Embedded file, so this can only fail on a broken build.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Server: ServerConfig{
			Host: envString("SERVER_HOST", "0.0.0.0"),
			Port: envInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HNSWEnabled:  os.Getenv("SIMILARITY_INDEX") != "off",
		},
		Recognition: RecognitionConfig{
			PairwiseURL:  os.Getenv("PAIRWISE_ORACLE_URL"),
			IndexedURL:   os.Getenv("INDEXED_ORACLE_URL"),
			APIKey:       os.Getenv("RECOGNITION_API_KEY"),
			CollectionID: os.Getenv("RECOGNITION_COLLECTION_ID"),
		},
		Quality: QualityConfig{
			Provider:     os.Getenv("QUALITY_PROVIDER"),
			OpenAIToken:  os.Getenv("OPENAI_TOKEN"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
			Dim: envInt("EMBEDDING_DIM", 512),
		},
		Enrollment: EnrollmentConfig{
			Angles:       envList("CAPTURE_ANGLES", defaults.Enrollment.Angles),
			AdvanceDelay: time.Duration(envInt("CAPTURE_ADVANCE_DELAY_MS", defaults.Enrollment.AdvanceDelayMs)) * time.Millisecond,
		},
		Verification: VerificationConfig{
			ConfidenceThreshold: envFloat("CONSENSUS_THRESHOLD", defaults.Consensus.ConfidenceThreshold),
			RequiredMatches:     envInt("CONSENSUS_REQUIRED_MATCHES", defaults.Consensus.RequiredMatches),
			MultiReferenceMin:   defaults.Consensus.MultiReferenceMinimum,
			OracleTimeout:       time.Duration(envInt("ORACLE_TIMEOUT_MS", defaults.Verification.OracleTimeoutMs)) * time.Millisecond,
			DisplayWindow:       time.Duration(envInt("DISPLAY_WINDOW_MS", defaults.Verification.DisplayWindowMs)) * time.Millisecond,
			CheckInLimit:        envInt("CHECKIN_LIMIT", defaults.Verification.CheckInLimit),
		},
		Defaults: defaults,
	}
}
