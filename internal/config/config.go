package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sprintforge/effort-estimator/internal/engine"
)

// Config is the full configuration surface of the service, loaded from
// the environment (optionally seeded from a .env file).
type Config struct {
	Port    string
	DataDir string

	// Monte-Carlo forecaster
	Trials        int
	Seed          int64
	SeedSet       bool
	Interpolation engine.Interpolation

	// Calibration
	MinSprintsForGreenfield int
	UncertaintyInflation    float64
	DefaultUncertainty      float64
	DecayTau                float64

	// Shell
	CacheTTL       time.Duration
	RequestsPerMin int
	RequestTimeout time.Duration
	AllowedOrigins []string
	SeedOnStart    bool
	LogLevel       slog.Level
}

// Load reads configuration from the environment, applying defaults for
// anything unset. A .env file in the working directory is honoured but
// not required.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                    getEnvOrDefault("PORT", "8080"),
		DataDir:                 getEnvOrDefault("DATA_DIR", "./data"),
		Interpolation:           engine.Interpolation(getEnvOrDefault("PERCENTILE_INTERPOLATION", string(engine.InterpNearestRank))),
		CacheTTL:                15 * time.Minute,
		RequestTimeout:          30 * time.Second,
		AllowedOrigins:          []string{getEnvOrDefault("ALLOWED_ORIGIN", "http://localhost:5173")},
		SeedOnStart:             getEnvOrDefault("SEED_ON_START", "false") == "true",
	}

	var err error
	if cfg.Trials, err = intEnv("SIMULATION_TRIALS", 2000); err != nil {
		return Config{}, err
	}
	if cfg.MinSprintsForGreenfield, err = intEnv("MIN_SPRINTS_GREENFIELD", 3); err != nil {
		return Config{}, err
	}
	if cfg.RequestsPerMin, err = intEnv("REQUESTS_PER_MIN", 60); err != nil {
		return Config{}, err
	}
	if cfg.UncertaintyInflation, err = floatEnv("UNCERTAINTY_INFLATION", 1.5); err != nil {
		return Config{}, err
	}
	if cfg.DefaultUncertainty, err = floatEnv("DEFAULT_UNCERTAINTY", 0.25); err != nil {
		return Config{}, err
	}
	if cfg.DecayTau, err = floatEnv("VELOCITY_DECAY_TAU", 3); err != nil {
		return Config{}, err
	}
	if ttl, err := intEnv("CACHE_TTL_MINUTES", 15); err != nil {
		return Config{}, err
	} else {
		cfg.CacheTTL = time.Duration(ttl) * time.Minute
	}

	if cfg.LogLevel, err = levelEnv("LOG_LEVEL", slog.LevelInfo); err != nil {
		return Config{}, err
	}

	if raw := os.Getenv("SIMULATION_SEED"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SIMULATION_SEED %q: %w", raw, err)
		}
		cfg.Seed = seed
		cfg.SeedSet = true
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot honour.
func (c Config) Validate() error {
	if c.Trials <= 0 {
		return fmt.Errorf("simulation trials must be positive, got %d", c.Trials)
	}
	if c.MinSprintsForGreenfield < 1 {
		return fmt.Errorf("greenfield minimum sprint count must be at least 1, got %d", c.MinSprintsForGreenfield)
	}
	if c.UncertaintyInflation < 1 {
		return fmt.Errorf("uncertainty inflation must be >= 1, got %g", c.UncertaintyInflation)
	}
	if c.DefaultUncertainty < 0 {
		return fmt.Errorf("default uncertainty must be non-negative, got %g", c.DefaultUncertainty)
	}
	switch c.Interpolation {
	case engine.InterpNearestRank, engine.InterpLinear:
	default:
		return fmt.Errorf("unknown percentile interpolation %q", c.Interpolation)
	}
	return nil
}

// Calibration maps the configuration onto the engine's calibration
// settings.
func (c Config) Calibration() engine.CalibrationConfig {
	return engine.CalibrationConfig{
		MinSprints:           c.MinSprintsForGreenfield,
		UncertaintyInflation: c.UncertaintyInflation,
		DefaultUncertainty:   c.DefaultUncertainty,
		DecayTau:             c.DecayTau,
	}
}

// Simulation maps the configuration onto the engine's simulation
// settings, with an optional per-request trial override.
func (c Config) Simulation(trialsOverride int) engine.SimulationConfig {
	trials := c.Trials
	if trialsOverride > 0 {
		trials = trialsOverride
	}
	return engine.SimulationConfig{
		Trials:        trials,
		Interpolation: c.Interpolation,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func levelEnv(key string, defaultValue slog.Level) (slog.Level, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
}

func floatEnv(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
