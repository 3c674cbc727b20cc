package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"scheduleluck/internal/league"
	"scheduleluck/internal/sampler"
	"scheduleluck/internal/standings"
)

// Config is the recognized configuration surface for a run. Values come
// from environment variables or an optional .env file.
type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DataFile   string `mapstructure:"DATA_FILE"`
	OutputFile string `mapstructure:"OUTPUT_FILE"`
	FocalTeam  string `mapstructure:"FOCAL_TEAM"`

	ScheduleMode         string  `mapstructure:"SCHEDULE_MODE"`
	SampleCount          int     `mapstructure:"SAMPLE_COUNT"`
	RandomSeed           int64   `mapstructure:"RANDOM_SEED"`
	FeasibilityThreshold float64 `mapstructure:"FEASIBILITY_THRESHOLD"`

	ByePolicy         string `mapstructure:"BYE_POLICY"`
	BoundaryTiePolicy string `mapstructure:"BOUNDARY_TIE_POLICY"`

	MaxPermutations int64         `mapstructure:"MAX_PERMUTATIONS"`
	WallClockBudget time.Duration `mapstructure:"WALL_CLOCK_BUDGET"`
	Workers         int           `mapstructure:"WORKERS"`
}

// LoadConfig reads configuration from the environment and an optional
// .env file, applying defaults first.
func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("DATA_FILE", "league_data.json")
	viper.SetDefault("OUTPUT_FILE", "")
	viper.SetDefault("FOCAL_TEAM", "")
	viper.SetDefault("SCHEDULE_MODE", "monte-carlo")
	viper.SetDefault("SAMPLE_COUNT", 100000)
	viper.SetDefault("RANDOM_SEED", 42)
	viper.SetDefault("FEASIBILITY_THRESHOLD", sampler.DefaultFeasibilityThreshold)
	viper.SetDefault("BYE_POLICY", "")
	viper.SetDefault("BOUNDARY_TIE_POLICY", "all")
	viper.SetDefault("MAX_PERMUTATIONS", 0)
	viper.SetDefault("WALL_CLOCK_BUDGET", time.Duration(0))
	viper.SetDefault("WORKERS", 0)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the run is in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Env) == "development"
}

// Mode parses the configured schedule mode.
func (c *Config) Mode() (sampler.Mode, error) {
	switch strings.ToLower(c.ScheduleMode) {
	case "exhaustive":
		return sampler.Exhaustive, nil
	case "monte-carlo", "montecarlo":
		return sampler.MonteCarlo, nil
	}
	return 0, fmt.Errorf("%w: unknown schedule mode %q", league.ErrConfiguration, c.ScheduleMode)
}

// ByeResult parses the configured bye policy. The second return value
// reports whether a policy was configured at all; leagues with odd
// active weeks require one.
func (c *Config) ByeResult() (standings.ByeResult, bool, error) {
	switch strings.ToLower(c.ByePolicy) {
	case "":
		return 0, false, nil
	case "win":
		return standings.ByeWin, true, nil
	case "loss":
		return standings.ByeLoss, true, nil
	case "tie":
		return standings.ByeTie, true, nil
	}
	return 0, false, fmt.Errorf("%w: unknown bye policy %q", league.ErrConfiguration, c.ByePolicy)
}

// BoundaryPolicy parses the playoff boundary-tie policy.
func (c *Config) BoundaryPolicy() (standings.BoundaryPolicy, error) {
	switch strings.ToLower(c.BoundaryTiePolicy) {
	case "", "all":
		return standings.BoundaryAll, nil
	case "strict":
		return standings.BoundaryStrict, nil
	}
	return 0, fmt.Errorf("%w: unknown boundary tie policy %q", league.ErrConfiguration, c.BoundaryTiePolicy)
}

// Validate checks the configuration eagerly. All configuration errors
// are fatal and reported before any computation starts.
func (c *Config) Validate() error {
	mode, err := c.Mode()
	if err != nil {
		return err
	}
	if mode == sampler.MonteCarlo && c.SampleCount <= 0 {
		return fmt.Errorf("%w: sample count must be positive for monte-carlo mode, got %d", league.ErrConfiguration, c.SampleCount)
	}
	if c.FeasibilityThreshold < 0 {
		return fmt.Errorf("%w: feasibility threshold must not be negative, got %g", league.ErrConfiguration, c.FeasibilityThreshold)
	}
	if c.MaxPermutations < 0 {
		return fmt.Errorf("%w: permutation budget must not be negative, got %d", league.ErrConfiguration, c.MaxPermutations)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: worker count must not be negative, got %d", league.ErrConfiguration, c.Workers)
	}
	if c.WallClockBudget < 0 {
		return fmt.Errorf("%w: wall-clock budget must not be negative, got %s", league.ErrConfiguration, c.WallClockBudget)
	}
	if _, _, err := c.ByeResult(); err != nil {
		return err
	}
	if _, err := c.BoundaryPolicy(); err != nil {
		return err
	}
	return nil
}
