package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/heatmap"
)

// Config 应用配置
type Config struct {
	Port         string
	DBPath       string
	JWTSecret    string
	AuthRequired bool // reject requests without a valid bearer token

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// National Weather Service
	NWSBaseURL           string
	NWSUserAgent         string
	NWSRequestsPerSecond float64
	LookupTimeout        time.Duration // per point lookup
	MaxConcurrentLookups int
	PointCacheTTL        time.Duration
	PointCacheSize       int

	// Inbound rate limit
	RateLimit  int
	RateWindow time.Duration

	TunablesFile string
	Tunables     Tunables
}

// Tunables are the algorithm constants that may be overridden from YAML
type Tunables struct {
	Sampler         aoi.SamplerConfig `yaml:"sampler"`
	Heatmap         heatmap.Config    `yaml:"heatmap"`
	AviationDensity int               `yaml:"aviation_density"`
	RasterCacheSize int               `yaml:"raster_cache_size"`
}

// DefaultTunables returns the built-in algorithm constants
func DefaultTunables() Tunables {
	return Tunables{
		Sampler:         aoi.DefaultSamplerConfig(),
		Heatmap:         heatmap.DefaultConfig(),
		AviationDensity: 3,
		RasterCacheSize: 64,
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", ":8080"),
		DBPath:       getEnv("DB_PATH", "./data/urban-twin.db"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		AuthRequired: getEnvBool("AUTH_REQUIRED", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		NWSBaseURL:           getEnv("NWS_BASE_URL", "https://api.weather.gov"),
		NWSUserAgent:         getEnv("NWS_USER_AGENT", "urban-twin-go (ops@example.com)"),
		NWSRequestsPerSecond: getEnvFloat("NWS_REQUESTS_PER_SECOND", 10),
		LookupTimeout:        getEnvDuration("LOOKUP_TIMEOUT", 8*time.Second),
		MaxConcurrentLookups: getEnvInt("MAX_CONCURRENT_LOOKUPS", 16),
		PointCacheTTL:        getEnvDuration("POINT_CACHE_TTL", 6*time.Hour),
		PointCacheSize:       getEnvInt("POINT_CACHE_SIZE", 4096),

		RateLimit:  getEnvInt("RATE_LIMIT", 120),
		RateWindow: getEnvDuration("RATE_WINDOW", time.Minute),

		TunablesFile: getEnv("TUNABLES_FILE", ""),
		Tunables:     DefaultTunables(),
	}

	if cfg.AuthRequired && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_REQUIRED is set but JWT_SECRET is empty")
	}

	if cfg.TunablesFile != "" {
		t, err := LoadTunables(cfg.TunablesFile)
		if err != nil {
			return nil, err
		}
		cfg.Tunables = t
	}
	return cfg, nil
}

// LoadTunables reads a YAML file over the defaults. Keys missing from the
// file keep their default values.
func LoadTunables(path string) (Tunables, error) {
	t := DefaultTunables()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tunables: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse tunables %s: %w", path, err)
	}
	if t.Sampler.Max < t.Sampler.MinRectangle || t.Sampler.Max < t.Sampler.MinPolygon {
		return t, fmt.Errorf("sampler max %d is below a minimum density", t.Sampler.Max)
	}
	if t.Sampler.HighSqMi <= t.Sampler.LowSqMi {
		return t, fmt.Errorf("sampler high_sq_mi must exceed low_sq_mi")
	}
	return t, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
