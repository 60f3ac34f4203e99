package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Environment variables read by Load
const (
	EnvMode         = "LEDGER_MODE"
	EnvLockedPolicy = "LEDGER_LOCKED_POLICY"
	EnvLogLevel     = "LEDGER_LOG_LEVEL"
	EnvOutputFormat = "LEDGER_OUTPUT_FORMAT"
	EnvPrettyPrint  = "LEDGER_PRETTY"
)

const defaultEnvFile = ".env"

// Config holds the runtime settings of a replay
type Config struct {
	// Mode is "lenient" (skip malformed rows) or "strict" (abort on them)
	Mode string `yaml:"mode" validate:"required,oneof=lenient strict"`
	// LockedPolicy is "freeze" (reject records for locked accounts) or "allow"
	LockedPolicy string `yaml:"locked_policy" validate:"required,oneof=freeze allow"`
	LogLevel     string `yaml:"log_level" validate:"required,oneof=debug info warn error"`
	OutputFormat string `yaml:"output_format" validate:"required,oneof=csv json"`
	PrettyPrint  bool   `yaml:"pretty_print"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Mode:         "lenient",
		LockedPolicy: "freeze",
		LogLevel:     "info",
		OutputFormat: "csv",
		PrettyPrint:  true,
	}
}

// Load builds a Config from, in increasing precedence: the defaults, the YAML
// file at configFile, the dotenv file at envFile and the process environment.
// Both paths are optional. When envFile is empty a .env in the working
// directory is used if it exists.
func Load(configFile, envFile string) (Config, error) {
	cfg := Default()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// godotenv does not override variables that are already set
func loadEnvFile(envFile string) error {
	if envFile == "" {
		if _, err := os.Stat(defaultEnvFile); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		envFile = defaultEnvFile
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strVars := map[string]*string{
		EnvMode:         &c.Mode,
		EnvLockedPolicy: &c.LockedPolicy,
		EnvLogLevel:     &c.LogLevel,
		EnvOutputFormat: &c.OutputFormat,
	}

	for name, field := range strVars {
		if value, ok := lookup(name); ok && strings.TrimSpace(value) != "" {
			*field = value
		}
	}

	if value, ok := lookup(EnvPrettyPrint); ok && strings.TrimSpace(value) != "" {
		pretty, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPrettyPrint, err)
		}
		c.PrettyPrint = pretty
	}

	return nil
}

// Validate normalizes the settings and checks them
func (c *Config) Validate() error {
	c.Mode = normalize(c.Mode)
	c.LockedPolicy = normalize(c.LockedPolicy)
	c.LogLevel = normalize(c.LogLevel)
	c.OutputFormat = normalize(c.OutputFormat)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			fe := validationErrs[0]
			if fe.Tag() == "oneof" {
				return fmt.Errorf("invalid config: %s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
			}
			return fmt.Errorf("invalid config: %s failed %q validation", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
