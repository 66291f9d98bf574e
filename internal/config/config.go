// Package config loads harness settings from a YAML file and REGRESS_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/ilyakaznacheev/cleanenv"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigEnv       = errors.New("failed to read environment")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppName names the user config directory.
const AppName = "go-md2html-regress"

// DefaultConfigName is the config looked up when none is given.
const DefaultConfigName = "regress"

// MaxInputSize limits config files (1MB).
const MaxInputSize = 1 << 20

// Field length limits.
const (
	MaxPathLength    = 4096
	MaxCommandLength = 4096
	MaxFlagLength    = 64
	MaxArgs          = 32
)

// Render modes.
const (
	RenderStatic  = "static"
	RenderBrowser = "browser"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Defaults.
const (
	DefaultDocuments      = "documents"
	DefaultCommand        = "builtin"
	DefaultConvertTimeout = 2 * time.Minute
	DefaultRenderTimeout  = 30 * time.Second
)

// Config holds all harness settings.
type Config struct {
	Documents string          `yaml:"documents" env:"REGRESS_DOCUMENTS" env-description:"directory of source documents and rendered output"`
	Converter ConverterConfig `yaml:"converter"`
	Render    RenderConfig    `yaml:"render"`
	Report    ReportConfig    `yaml:"report"`
}

// ConverterConfig describes the external converter and its flag spellings.
// Empty flag names fall back to the standard contract.
type ConverterConfig struct {
	Command            string        `yaml:"command" env:"REGRESS_CONVERTER" env-description:"converter executable, or builtin"`
	Args               []string      `yaml:"args"`
	PreserveSourceFlag string        `yaml:"preserveSourceFlag"`
	NoStylesheetFlag   string        `yaml:"noStylesheetFlag"`
	TOCFlag            string        `yaml:"tocFlag"`
	NumberSectionsFlag string        `yaml:"numberSectionsFlag"`
	DirFlag            string        `yaml:"dirFlag"`
	Timeout            time.Duration `yaml:"timeout" env:"REGRESS_TIMEOUT" env-description:"limit for one converter invocation"`
}

// RenderConfig selects how rendered documents are loaded.
type RenderConfig struct {
	Mode    string        `yaml:"mode" env:"REGRESS_RENDER" env-description:"static or browser"`
	Timeout time.Duration `yaml:"timeout" env:"REGRESS_RENDER_TIMEOUT" env-description:"page load limit in browser mode"`
}

// ReportConfig selects the report format.
type ReportConfig struct {
	Format string `yaml:"format" env:"REGRESS_FORMAT" env-description:"text or json"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Documents: DefaultDocuments,
		Converter: ConverterConfig{
			Command: DefaultCommand,
			Timeout: DefaultConvertTimeout,
		},
		Render: RenderConfig{
			Mode:    RenderStatic,
			Timeout: DefaultRenderTimeout,
		},
		Report: ReportConfig{Format: FormatText},
	}
}

// Validate checks enum values, durations and field lengths.
// Called automatically by Load, but available for callers that build a
// Config by hand or apply command-line overrides.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Documents) == "" {
		return fmt.Errorf("%w: documents: must not be empty", ErrInvalidValue)
	}
	if err := validateFieldLength("documents", c.Documents, MaxPathLength); err != nil {
		return err
	}

	if strings.TrimSpace(c.Converter.Command) == "" {
		return fmt.Errorf("%w: converter.command: must not be empty", ErrInvalidValue)
	}
	if err := validateFieldLength("converter.command", c.Converter.Command, MaxCommandLength); err != nil {
		return err
	}
	if len(c.Converter.Args) > MaxArgs {
		return fmt.Errorf("%w: converter.args: %d arguments, max %d", ErrInvalidValue, len(c.Converter.Args), MaxArgs)
	}
	for i, arg := range c.Converter.Args {
		if err := validateFieldLength(fmt.Sprintf("converter.args[%d]", i), arg, MaxCommandLength); err != nil {
			return err
		}
	}

	flags := map[string]string{
		"converter.preserveSourceFlag": c.Converter.PreserveSourceFlag,
		"converter.noStylesheetFlag":   c.Converter.NoStylesheetFlag,
		"converter.tocFlag":            c.Converter.TOCFlag,
		"converter.numberSectionsFlag": c.Converter.NumberSectionsFlag,
		"converter.dirFlag":            c.Converter.DirFlag,
	}
	for name, value := range flags {
		if err := validateFlagName(name, value); err != nil {
			return err
		}
	}

	if c.Converter.Timeout < 0 {
		return fmt.Errorf("%w: converter.timeout: must not be negative, got %s", ErrInvalidValue, c.Converter.Timeout)
	}
	if c.Render.Timeout < 0 {
		return fmt.Errorf("%w: render.timeout: must not be negative, got %s", ErrInvalidValue, c.Render.Timeout)
	}

	switch c.Render.Mode {
	case RenderStatic, RenderBrowser:
	default:
		return fmt.Errorf("%w: render.mode: %q (must be %s or %s)", ErrInvalidValue, c.Render.Mode, RenderStatic, RenderBrowser)
	}
	switch c.Report.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: report.format: %q (must be %s or %s)", ErrInvalidValue, c.Report.Format, FormatText, FormatJSON)
	}
	return nil
}

// validateFlagName accepts empty (use the default) or a dash-prefixed flag.
func validateFlagName(field, value string) error {
	if value == "" {
		return nil
	}
	if err := validateFieldLength(field, value, MaxFlagLength); err != nil {
		return err
	}
	if !strings.HasPrefix(value, "-") || strings.ContainsAny(value, " \t\n=") {
		return fmt.Errorf("%w: %s: %q is not a flag", ErrInvalidValue, field, value)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// Load builds the effective configuration: defaults, then the config file
// when nameOrPath is not empty, then environment overrides. The result is
// validated.
func Load(nameOrPath string) (*Config, error) {
	cfg := DefaultConfig()

	if nameOrPath != "" {
		path, err := Resolve(nameOrPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigEnv, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the default config name when such a file exists and
// falls back to defaults plus environment otherwise.
func LoadDefault() (*Config, error) {
	if _, err := Resolve(DefaultConfigName); err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return Load("")
		}
		return nil, err
	}
	return Load(DefaultConfigName)
}

// readFile decodes path over c. Unknown keys are errors.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %s: %d bytes (max %d)", ErrConfigParse, path, len(data), MaxInputSize)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	return nil
}

// Resolve maps a config name or path to a file. If nameOrPath contains a
// path separator, it's treated as a file path. Otherwise it's searched as
// <name>.yaml then <name>.yml in the current directory, then in the user
// config directory.
func Resolve(nameOrPath string) (string, error) {
	if nameOrPath == "" {
		return "", ErrEmptyConfigName
	}
	if strings.ContainsAny(nameOrPath, "/\\") {
		return nameOrPath, nil
	}

	paths := SearchPaths(nameOrPath)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// SearchPaths lists the candidate files for a config name in lookup order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, AppName, name+ext))
		}
	}
	return paths
}

// EnvUsage describes the recognised environment variables.
func EnvUsage() string {
	text, err := cleanenv.GetDescription(DefaultConfig(), nil)
	if err != nil {
		return ""
	}
	return text
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
