package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"gopkg.in/yaml.v3"
)

//go:embed strategies.yaml
var strategiesYAML []byte

type Config struct {
	Embedding   EmbeddingConfig
	Recognition RecognitionConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Web         WebConfig
	Strategies  StrategiesConfig
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
}

type RecognitionConfig struct {
	Strategy      string        // built-in strategy name, defaults to the YAML default
	Tolerance     float64       // overrides the strategy tolerance when > 0
	MinConfidence float64       // detections scoring below are dropped (default 0.5)
	ProcessEveryN int           // process every N-th frame (default 3)
	FrameScale    float64       // downscale factor before detection (default 0.5)
	FaceMargin    int           // pixels added around each face box (default 20)
	StaleAfter    time.Duration // presence staleness window (default 5s)
	HNSWEnabled   bool          // use the HNSW candidate index for embedding strategies
}

type StorageConfig struct {
	GalleryPath    string // gob gallery file (default face_encodings.gob)
	KnownFacesDir  string // enrollment crops and bulk enrollment source (default known_faces)
	AttendancePath string // attendance CSV (default attendance.csv)
	CountLogPath   string // people count CSV (default logs/count_log.csv)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, empty = file storage
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
	APIToken       string   // bearer token required on /api/v1 when set
}

type StrategiesConfig struct {
	Default    string                    `yaml:"default"`
	Strategies map[string]StrategyConfig `yaml:"strategies"`
}

type StrategyConfig struct {
	Extractor string  `yaml:"extractor"`
	Metric    string  `yaml:"metric"`
	Tolerance float64 `yaml:"tolerance"`
	Dim       int     `yaml:"dim"`
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

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
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

// envBool reads an environment variable as a boolean ("1", "true", "yes" ...).
func envBool(key string, defaultVal bool) bool {
	s := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch s {
	case "":
		return defaultVal
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// envString reads an environment variable with a default for unset or empty values.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var strategies StrategiesConfig
	if err := yaml.Unmarshal(strategiesYAML, &strategies); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded strategies.yaml: " + err.Error())
	}

	return &Config{
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
		},
		Recognition: RecognitionConfig{
			Strategy:      envString("FACE_STRATEGY", strategies.Default),
			Tolerance:     envFloat("FACE_TOLERANCE", 0),
			MinConfidence: envFloat("MIN_CONFIDENCE", 0.5),
			ProcessEveryN: envInt("PROCESS_EVERY_N", 3),
			FrameScale:    envFloat("FRAME_SCALE", 0.5),
			FaceMargin:    envInt("FACE_MARGIN", 20),
			StaleAfter:    time.Duration(envInt("PRESENCE_STALE_SECONDS", 5)) * time.Second,
			HNSWEnabled:   envBool("HNSW_ENABLED", false),
		},
		Storage: StorageConfig{
			GalleryPath:    envString("GALLERY_PATH", "face_encodings.gob"),
			KnownFacesDir:  envString("KNOWN_FACES_DIR", "known_faces"),
			AttendancePath: envString("ATTENDANCE_PATH", "attendance.csv"),
			CountLogPath:   envString("COUNT_LOG_PATH", "logs/count_log.csv"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			APIToken:       os.Getenv("API_TOKEN"),
		},
		Strategies: strategies,
	}
}

// StrategyNames returns the built-in strategy names in alphabetical order.
func (c *Config) StrategyNames() []string {
	names := make([]string, 0, len(c.Strategies.Strategies))
	for name := range c.Strategies.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strategy resolves a named strategy, applying the FACE_TOLERANCE override.
// An empty name selects the configured strategy.
func (c *Config) Strategy(name string) (facematch.Strategy, error) {
	if name == "" {
		name = c.Recognition.Strategy
	}
	sc, ok := c.Strategies.Strategies[name]
	if !ok {
		return facematch.Strategy{}, fmt.Errorf("unknown strategy %q (available: %s)",
			name, strings.Join(c.StrategyNames(), ", "))
	}

	metric, err := facematch.ParseMetric(sc.Metric)
	if err != nil {
		return facematch.Strategy{}, fmt.Errorf("strategy %s: %w", name, err)
	}

	s := facematch.Strategy{
		Name:      name,
		Metric:    metric,
		Tolerance: sc.Tolerance,
		Dim:       sc.Dim,
		Extractor: facematch.ExtractorKind(sc.Extractor),
	}
	if c.Recognition.Tolerance > 0 {
		s.Tolerance = c.Recognition.Tolerance
	}
	if err := s.Validate(); err != nil {
		return facematch.Strategy{}, err
	}
	return s, nil
}
