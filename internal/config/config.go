// Package config provides Viper-based configuration loading for the developer console.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// ColorsConfig holds the transcript colors as six digit hex RGB strings.
type ColorsConfig struct {
	Log        string `mapstructure:"log"`
	Error      string `mapstructure:"error"`
	Warning    string `mapstructure:"warning"`
	Exception  string `mapstructure:"exception"`
	Assert     string `mapstructure:"assert"`
	Executable string `mapstructure:"executable"`
	Parameters string `mapstructure:"parameters"`
}

// ConsoleConfig holds the dispatch and session settings.
type ConsoleConfig struct {
	// MaxHints bounds the hint list.
	MaxHints int `mapstructure:"max_hints"`
	// WelcomeMessage is shown at the top of a fresh or cleared transcript.
	WelcomeMessage string `mapstructure:"welcome_message"`
	// StartOpen toggles the console open at startup.
	StartOpen bool `mapstructure:"start_open"`
	// AliasFile is an optional YAML file of command aliases.
	AliasFile string       `mapstructure:"alias_file"`
	Colors    ColorsConfig `mapstructure:"colors"`
}

// DiagnosticsConfig holds the FPS and CPU probe settings.
type DiagnosticsConfig struct {
	// SampleInterval is the CPU sampling period.
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	// FrameWindow is the number of frames averaged for the FPS badge.
	FrameWindow int `mapstructure:"frame_window"`
	// ShutdownTimeout bounds the wait for the sampler to stop.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	FPSColor        string        `mapstructure:"fps_color"`
}

// EngineConfig holds the headless engine loop settings.
type EngineConfig struct {
	TargetFPS   int    `mapstructure:"target_fps"`
	ProductName string `mapstructure:"product_name"`
	CompanyName string `mapstructure:"company_name"`
	Version     string `mapstructure:"version"`
}

// FrameInterval returns the duration of one frame at TargetFPS.
//
// Precondition: TargetFPS must be positive.
func (e EngineConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(e.TargetFPS)
}

// ScriptingConfig holds Lua scripting settings.
type ScriptingConfig struct {
	// Dir is the directory searched by the exec command.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps the VM instructions per script run.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout", "none", or a file path.
	Output string `mapstructure:"output"`
}

// FrontendConfig selects the interactive front-end.
type FrontendConfig struct {
	// Mode is "tui" or "line".
	Mode string `mapstructure:"mode"`
}

// Config is the top-level application configuration.
type Config struct {
	Console     ConsoleConfig     `mapstructure:"console"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Scripting   ScriptingConfig   `mapstructure:"scripting"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Frontend    FrontendConfig    `mapstructure:"frontend"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateConsole(c.Console); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDiagnostics(c.Diagnostics); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateFrontend(c.Frontend); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateConsole(c ConsoleConfig) error {
	var errs []string
	if c.MaxHints < 1 {
		errs = append(errs, fmt.Sprintf("console.max_hints must be >= 1, got %d", c.MaxHints))
	}
	colors := map[string]string{
		"log":        c.Colors.Log,
		"error":      c.Colors.Error,
		"warning":    c.Colors.Warning,
		"exception":  c.Colors.Exception,
		"assert":     c.Colors.Assert,
		"executable": c.Colors.Executable,
		"parameters": c.Colors.Parameters,
	}
	for _, name := range []string{"log", "error", "warning", "exception", "assert", "executable", "parameters"} {
		if !hexColor.MatchString(colors[name]) {
			errs = append(errs, fmt.Sprintf("console.colors.%s must be a six digit hex color, got %q", name, colors[name]))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDiagnostics(d DiagnosticsConfig) error {
	var errs []string
	if d.SampleInterval <= 0 {
		errs = append(errs, "diagnostics.sample_interval must be positive")
	}
	if d.FrameWindow < 1 {
		errs = append(errs, fmt.Sprintf("diagnostics.frame_window must be >= 1, got %d", d.FrameWindow))
	}
	if d.ShutdownTimeout <= 0 {
		errs = append(errs, "diagnostics.shutdown_timeout must be positive")
	}
	if !hexColor.MatchString(d.FPSColor) {
		errs = append(errs, fmt.Sprintf("diagnostics.fps_color must be a six digit hex color, got %q", d.FPSColor))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.TargetFPS < 1 || e.TargetFPS > 1000 {
		errs = append(errs, fmt.Sprintf("engine.target_fps must be 1-1000, got %d", e.TargetFPS))
	}
	if e.ProductName == "" {
		errs = append(errs, "engine.product_name must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
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
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validateFrontend(f FrontendConfig) error {
	validModes := map[string]bool{"tui": true, "line": true}
	if !validModes[f.Mode] {
		return fmt.Errorf("frontend.mode must be one of [tui, line], got %q", f.Mode)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and DEVCONSOLE_ environment
// overrides applied, ready for flag binding.
//
// Postcondition: Returns a non-nil *viper.Viper.
func NewViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with DEVCONSOLE_ prefix
	v.SetEnvPrefix("DEVCONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("console.max_hints", 5)
	v.SetDefault("console.welcome_message", "Welcome to <color=#4895EF>devconsole</color>!")
	v.SetDefault("console.start_open", false)
	v.SetDefault("console.alias_file", "")
	v.SetDefault("console.colors.log", "FFFFFF")
	v.SetDefault("console.colors.error", "FF0000")
	v.SetDefault("console.colors.warning", "FFEB04")
	v.SetDefault("console.colors.exception", "FF0000")
	v.SetDefault("console.colors.assert", "FFEB04")
	v.SetDefault("console.colors.executable", "4895EF")
	v.SetDefault("console.colors.parameters", "FFFFFF")

	v.SetDefault("diagnostics.sample_interval", "1s")
	v.SetDefault("diagnostics.frame_window", 50)
	v.SetDefault("diagnostics.shutdown_timeout", "2s")
	v.SetDefault("diagnostics.fps_color", "FFFFFF")

	v.SetDefault("engine.target_fps", 60)
	v.SetDefault("engine.product_name", "devconsole")
	v.SetDefault("engine.company_name", "cory-johannsen")
	v.SetDefault("engine.version", "0.1.0")

	v.SetDefault("scripting.dir", "scripts")
	v.SetDefault("scripting.instruction_limit", 100000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("frontend.mode", "tui")
}
