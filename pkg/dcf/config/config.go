package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/stex99/dcf-tool/pkg/dcf/fcf"
	"github.com/stex99/dcf-tool/pkg/dcf/valuation"
)

// EnvPrefix is prepended to every environment variable, e.g. DCF_DISCOUNT_RATE.
const EnvPrefix = "DCF"

// Config holds all settings of a run. Rates are percentages as typed by
// users; Params converts them.
type Config struct {
	DiscountRate    float64       `mapstructure:"discount_rate"`
	GrowthRate      float64       `mapstructure:"growth_rate"`
	ProjectionYears int           `mapstructure:"projection_years"`
	Tolerance       float64       `mapstructure:"tolerance"`
	Workers         int           `mapstructure:"workers"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Statements      string        `mapstructure:"statements"`
	Archive         string        `mapstructure:"archive"`
	Server          ServerConfig  `mapstructure:"server"`
	Labels          fcf.Labels    `mapstructure:"labels"`
	Log             LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("discount_rate", valuation.DefaultDiscountRate*100)
	v.SetDefault("growth_rate", valuation.DefaultGrowthRate*100)
	v.SetDefault("projection_years", valuation.DefaultProjectionYears)
	v.SetDefault("tolerance", valuation.DefaultTolerance*100)
	v.SetDefault("workers", 4)
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("statements", "yahoo")
	v.SetDefault("archive", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads .env (if present), the config file and the environment into v,
// then decodes it. An explicit configFile must exist; otherwise ./dcf.yaml is
// optional.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("dcf")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Labels = cfg.Labels.Merge(fcf.DefaultLabels())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that are not valuation parameters. Parameter
// checks belong to valuation.Params.Validate so the API shares them.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance cannot be negative, got %v", c.Tolerance)
	}
	switch c.Statements {
	case "yahoo", "scrape":
	default:
		return fmt.Errorf("unknown statements source %q (want yahoo or scrape)", c.Statements)
	}
	return nil
}

// Params returns the valuation parameters as fractions.
func (c *Config) Params() valuation.Params {
	return valuation.FromPercent(c.DiscountRate, c.GrowthRate, c.ProjectionYears)
}

// ToleranceFraction returns the valuation flag tolerance as a fraction.
func (c *Config) ToleranceFraction() float64 {
	return c.Tolerance / 100
}
