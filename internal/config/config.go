// Package config provides Viper-based configuration loading for the battle
// simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BattleConfig holds simulation settings.
type BattleConfig struct {
	// Width and Height resize generated boards when positive. Drawn
	// scenario maps keep their own size.
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	// Seed drives dice and map generation; run i uses Seed+i. 0 keeps the
	// scenario's map seed and rolls with crypto randomness.
	Seed           int64 `mapstructure:"seed"`
	ClimbThreshold int   `mapstructure:"climb_threshold"`
	MoveDivisor    int   `mapstructure:"move_divisor"`
	// RoundLength is the number of turns in a round; 0 counts living units.
	RoundLength int `mapstructure:"round_length"`
	MaxTurns    int `mapstructure:"max_turns"`
	Runs        int `mapstructure:"runs"`
	// Parallel bounds how many runs play at once.
	Parallel int `mapstructure:"parallel"`
}

// ContentConfig locates content tables and the scenario.
type ContentConfig struct {
	// Dir holds the YAML tables; empty uses the built-in content.
	Dir string `mapstructure:"dir"`
	// Scenario is a scenario file; empty uses the built-in scenario.
	Scenario string `mapstructure:"scenario"`
}

// AIConfig selects the planning domain.
type AIConfig struct {
	// DomainDir holds domain YAML files; empty uses the built-in domain.
	DomainDir string `mapstructure:"domain_dir"`
	// Domain is the ID of the domain to plan with.
	Domain string `mapstructure:"domain"`
}

// ScriptingConfig locates AI Lua scripts.
type ScriptingConfig struct {
	// Dir holds *.lua files; empty disables scripting.
	Dir              string `mapstructure:"dir"`
	InstructionLimit int    `mapstructure:"instruction_limit"`
}

// StorageConfig selects where battle snapshots are kept.
type StorageConfig struct {
	// Driver is "none", "sqlite" or "postgres".
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Battle    BattleConfig    `mapstructure:"battle"`
	Content   ContentConfig   `mapstructure:"content"`
	AI        AIConfig        `mapstructure:"ai"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing
// all violations.
func (c Config) Validate() error {
	errs := []error{
		validateBattle(c.Battle),
		validateScripting(c.Scripting),
		validateStorage(c.Storage),
		validateLogging(c.Logging),
	}
	if c.Storage.Driver == "postgres" {
		errs = append(errs, validateDatabase(c.Database))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// joinf turns collected violation messages into one error, or nil.
func joinf(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.Width < 0 || b.Height < 0 {
		errs = append(errs, fmt.Sprintf("battle.width and battle.height must be >= 0, got %dx%d", b.Width, b.Height))
	}
	if b.ClimbThreshold < 1 {
		errs = append(errs, fmt.Sprintf("battle.climb_threshold must be >= 1, got %d", b.ClimbThreshold))
	}
	if b.MoveDivisor < 1 {
		errs = append(errs, fmt.Sprintf("battle.move_divisor must be >= 1, got %d", b.MoveDivisor))
	}
	if b.RoundLength < 0 {
		errs = append(errs, fmt.Sprintf("battle.round_length must be >= 0, got %d", b.RoundLength))
	}
	if b.MaxTurns < 1 {
		errs = append(errs, fmt.Sprintf("battle.max_turns must be >= 1, got %d", b.MaxTurns))
	}
	if b.Runs < 1 {
		errs = append(errs, fmt.Sprintf("battle.runs must be >= 1, got %d", b.Runs))
	}
	if b.Parallel < 1 {
		errs = append(errs, fmt.Sprintf("battle.parallel must be >= 1, got %d", b.Parallel))
	}
	return joinf(errs)
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case "none", "postgres":
		return nil
	case "sqlite":
		if s.SQLitePath == "" {
			return errors.New("storage.sqlite_path must not be empty for the sqlite driver")
		}
		return nil
	default:
		return fmt.Errorf("storage.driver must be one of [none, sqlite, postgres], got %q", s.Driver)
	}
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, fmt.Sprintf("database.min_conns must be in [0, max_conns], got %d", d.MinConns))
	}
	return joinf(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result. An empty path loads defaults
// and environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TACTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("battle.width", 0)
	v.SetDefault("battle.height", 0)
	v.SetDefault("battle.seed", 0)
	v.SetDefault("battle.climb_threshold", 2)
	v.SetDefault("battle.move_divisor", 10)
	v.SetDefault("battle.round_length", 0)
	v.SetDefault("battle.max_turns", 500)
	v.SetDefault("battle.runs", 1)
	v.SetDefault("battle.parallel", 4)

	v.SetDefault("content.dir", "")
	v.SetDefault("content.scenario", "")

	v.SetDefault("ai.domain_dir", "")
	v.SetDefault("ai.domain", "default")

	v.SetDefault("scripting.dir", "")
	v.SetDefault("scripting.instruction_limit", 100_000)

	v.SetDefault("storage.driver", "none")
	v.SetDefault("storage.sqlite_path", "tactics.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tactics")
	v.SetDefault("database.password", "tactics")
	v.SetDefault("database.name", "tactics")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
