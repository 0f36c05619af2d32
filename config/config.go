// Package config loads gokernel settings from an optional YAML file and
// GOKERNEL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. GOKERNEL_LOG_LEVEL.
const EnvPrefix = "GOKERNEL"

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds gokernel settings.
type Config struct {
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Kernel KernelConfig `mapstructure:"kernel" yaml:"kernel"`
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`
	Timeit TimeitConfig `mapstructure:"timeit" yaml:"timeit"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// KernelConfig configures the execution core.
type KernelConfig struct {
	// Redirect captures the process standard streams while a session runs.
	Redirect bool   `mapstructure:"redirect" yaml:"redirect"`
	Shell    string `mapstructure:"shell" yaml:"shell"`
	WorkDir  string `mapstructure:"workdir" yaml:"workdir"`
	DocsURL  string `mapstructure:"docs_url" yaml:"docs_url"`
}

// EngineConfig configures the yaegi interpreter.
type EngineConfig struct {
	GoPath          string   `mapstructure:"gopath" yaml:"gopath"`
	BuildTags       []string `mapstructure:"build_tags" yaml:"build_tags"`
	Unrestricted    bool     `mapstructure:"unrestricted" yaml:"unrestricted"`
	AllowedPackages []string `mapstructure:"allowed_packages" yaml:"allowed_packages"`
}

// TimeitConfig holds the %timeit defaults.
type TimeitConfig struct {
	Repeat    int `mapstructure:"repeat" yaml:"repeat"`
	Precision int `mapstructure:"precision" yaml:"precision"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Kernel: KernelConfig{
			Redirect: true,
			Shell:    "/bin/sh",
			DocsURL:  "https://pkg.go.dev",
		},
		Engine: EngineConfig{
			BuildTags:       []string{},
			AllowedPackages: []string{},
		},
		Timeit: TimeitConfig{Repeat: 7, Precision: 3},
	}
}

// Load reads configuration from path, when non-empty, and from the
// environment. Environment variables take precedence over the file.
func Load(path string) (Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("kernel.redirect", d.Kernel.Redirect)
	v.SetDefault("kernel.shell", d.Kernel.Shell)
	v.SetDefault("kernel.workdir", d.Kernel.WorkDir)
	v.SetDefault("kernel.docs_url", d.Kernel.DocsURL)
	v.SetDefault("engine.gopath", d.Engine.GoPath)
	v.SetDefault("engine.build_tags", d.Engine.BuildTags)
	v.SetDefault("engine.unrestricted", d.Engine.Unrestricted)
	v.SetDefault("engine.allowed_packages", d.Engine.AllowedPackages)
	v.SetDefault("timeit.repeat", d.Timeit.Repeat)
	v.SetDefault("timeit.precision", d.Timeit.Precision)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration. Errors wrap ErrInvalid.
func (c Config) Validate() error {
	if _, err := c.Log.ZapLevel(); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	if c.Kernel.Shell == "" {
		return fmt.Errorf("%w: kernel.shell is empty", ErrInvalid)
	}
	if c.Timeit.Repeat < 1 {
		return fmt.Errorf("%w: timeit.repeat must be positive, got %d", ErrInvalid, c.Timeit.Repeat)
	}
	if c.Timeit.Precision < 1 {
		return fmt.Errorf("%w: timeit.precision must be positive, got %d", ErrInvalid, c.Timeit.Precision)
	}
	return nil
}

// ZapLevel parses Level.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	return zapcore.ParseLevel(l.Level)
}

// YAML renders the configuration as a YAML document.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}
