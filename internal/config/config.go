package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sunwise/internal/common"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the typed view of the application's viper settings.
type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	Matcher  MatcherConfig
	Rebates  RebatesConfig
}

// DatabaseConfig selects where catalog and learning state live.
type DatabaseConfig struct {
	Driver string
	Path   string
	DSN    string
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string
	Format string
}

// RebatesConfig controls the rebate calculator.
type RebatesConfig struct {
	TablesPath             string
	STCPriceAUD            float64
	EnforceValidityWindows bool
}

// MatcherConfig controls the product matcher.
type MatcherConfig struct {
	CatalogPath string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "$HOME/.local/share/sunwise/sunwise.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("rebates.stc_price_aud", 38.0)
	v.SetDefault("rebates.enforce_validity_windows", false)
}

// Load reads configuration from v, applying defaults and expanding paths.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   ExpandPath(v.GetString("database.path")),
			DSN:    v.GetString("database.dsn"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Rebates: RebatesConfig{
			TablesPath:             ExpandPath(v.GetString("rebates.tables_path")),
			STCPriceAUD:            v.GetFloat64("rebates.stc_price_aud"),
			EnforceValidityWindows: v.GetBool("rebates.enforce_validity_windows"),
		},
		Matcher: MatcherConfig{
			CatalogPath: ExpandPath(v.GetString("matcher.catalog_path")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite", common.ErrMissingConfig)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database.dsn is required for postgres", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database.driver %q", common.ErrInvalidConfig, c.Database.Driver)
	}

	if c.Rebates.STCPriceAUD <= 0 {
		return fmt.Errorf("%w: rebates.stc_price_aud must be positive", common.ErrInvalidConfig)
	}

	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}
