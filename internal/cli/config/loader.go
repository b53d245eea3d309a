package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "SQLDF_"

var configNames = []string{"sqldf.yaml", "sqldf.yml"}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
)

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"limit":  "row_limit",
	"format": "output",
}

// skippedFlags are flags that are not configuration keys.
var skippedFlags = map[string]bool{
	"config": true,
	"input":  true,
	"var":    true,
	"help":   true,
}

var varName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// configIn returns the config file in dir, if any.
func configIn(dir string) string {
	for _, name := range configNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// findConfigFile finds the config file to use.
// Priority: explicit path > sqldf.yaml or sqldf.yml in the working directory
// or the nearest parent.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if p := configIn(dir); p != "" {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"engine":       DefaultEngine,
		"row_limit":    0,
		"output":       DefaultOutput,
		"verbose":      false,
		"history_file": "",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (SQLDF_ prefix)
	// Transform: SQLDF_ROW_LIMIT -> row_limit
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed || skippedFlags[f.Name] {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}

		vars, err := parseVarFlags(flags)
		if err != nil {
			return nil, err
		}
		if len(vars) > 0 {
			if err := k.Load(confmap.Provider(map[string]interface{}{"vars": vars}, ""), nil); err != nil {
				return nil, fmt.Errorf("failed to load vars: %w", err)
			}
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	expandParamEnvVars(cfg.EngineParams)
	for key, v := range cfg.EngineOptions {
		cfg.EngineOptions[key] = expandEnvVars(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

func parseVarFlags(flags *pflag.FlagSet) (map[string]interface{}, error) {
	f := flags.Lookup("var")
	if f == nil || !f.Changed {
		return nil, nil
	}
	specs, err := flags.GetStringArray("var")
	if err != nil {
		return nil, err
	}
	vars := make(map[string]interface{}, len(specs))
	for _, spec := range specs {
		name, value, err := ParseVar(spec)
		if err != nil {
			return nil, err
		}
		vars[name] = value
	}
	return vars, nil
}

// ParseVar parses a name=value parameter. The value is read as a YAML
// scalar, so 10 is an integer, 2.5 a float, true a bool, and anything else a
// string. An empty value is the empty string.
func ParseVar(spec string) (string, any, error) {
	name, raw, ok := strings.Cut(spec, "=")
	name = strings.TrimSpace(name)
	if !ok || !varName.MatchString(name) {
		return "", nil, fmt.Errorf("invalid var %q: expected name=value", spec)
	}
	if raw == "" {
		return name, "", nil
	}
	var v any
	if err := yamlv3.Unmarshal([]byte(raw), &v); err != nil {
		return name, raw, nil
	}
	switch v.(type) {
	case map[string]any, []any:
		return name, raw, nil
	}
	return name, v, nil
}

// NewContext returns a context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx, if any.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	return cfg, ok
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandParamEnvVars expands environment variables in string engine params.
func expandParamEnvVars(params map[string]any) {
	for key, v := range params {
		switch x := v.(type) {
		case string:
			params[key] = expandEnvVars(x)
		case map[string]any:
			expandParamEnvVars(x)
		}
	}
}
