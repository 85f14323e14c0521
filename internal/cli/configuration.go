package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/getpup/seeder/internal/logging"
	"github.com/getpup/seeder/store/sqlstore"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	configurationName       = "seeder"
	configurationType       = "yaml"
	environmentPrefix       = "SEEDER"
	defaultConnectionName   = "default"
	defaultSeedDirectory    = "seeders"
	defaultLockTimeout      = 30 * time.Second
	configurationSearchPath = "."
	envKeySeparator         = "_"
	keySeparator            = "."
)

// Configuration describes the persisted configuration of the seeder command.
type Configuration struct {
	Environment           string                             `mapstructure:"environment"`
	Table                 string                             `mapstructure:"table"`
	Dir                   string                             `mapstructure:"dir"`
	DefaultConnection     string                             `mapstructure:"default_connection"`
	Connections           map[string]ConnectionConfiguration `mapstructure:"connections"`
	LockTimeout           time.Duration                      `mapstructure:"lock_timeout"`
	ProtectedEnvironments []string                           `mapstructure:"protected_environments"`
	Log                   LogConfiguration                   `mapstructure:"log"`
	MetricsFile           string                             `mapstructure:"metrics_file"`
}

// ConnectionConfiguration names a database/sql driver and data source.
type ConnectionConfiguration struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfiguration selects the diagnostic logger.
type LogConfiguration struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Connection returns the named connection, or the default one when name is empty.
func (c Configuration) Connection(name string) (string, ConnectionConfiguration, error) {
	if name == "" {
		name = c.DefaultConnection
	}

	connection, ok := c.Connections[name]
	if !ok {
		return name, ConnectionConfiguration{}, fmt.Errorf("unknown database connection %q", name)
	}
	if connection.DSN == "" {
		return name, ConnectionConfiguration{}, fmt.Errorf("database connection %q has no dsn", name)
	}
	if _, err := sqlstore.ParseDialect(connection.Driver); err != nil {
		return name, ConnectionConfiguration{}, fmt.Errorf("database connection %q: %w", name, err)
	}

	return name, connection, nil
}

// Protected reports whether commands against env require confirmation.
func (c Configuration) Protected(env string) bool {
	for _, protected := range c.ProtectedEnvironments {
		if strings.EqualFold(strings.TrimSpace(protected), env) {
			return true
		}
	}
	return false
}

// DefaultConfigurationValues returns the defaults applied before any file or
// environment override.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		"environment":                "",
		"table":                      sqlstore.DefaultTable,
		"dir":                        defaultSeedDirectory,
		"default_connection":         defaultConnectionName,
		"connections.default.driver": "",
		"connections.default.dsn":    "",
		"lock_timeout":               defaultLockTimeout.String(),
		"protected_environments":     []string{"production"},
		"log.level":                  string(logging.LevelWarn),
		"log.format":                 string(logging.FormatConsole),
		"metrics_file":               "",
	}
}

// ConfigurationLoader wraps Viper to load the configuration file and
// environment overrides.
type ConfigurationLoader struct {
	fs          afero.Fs
	searchPaths []string
	replacer    *strings.Replacer
}

// NewConfigurationLoader creates a loader reading from fs.
func NewConfigurationLoader(fs afero.Fs, searchPaths ...string) *ConfigurationLoader {
	if len(searchPaths) == 0 {
		searchPaths = []string{configurationSearchPath}
	}

	return &ConfigurationLoader{
		fs:          fs,
		searchPaths: append([]string(nil), searchPaths...),
		replacer:    strings.NewReplacer(keySeparator, envKeySeparator),
	}
}

// Load populates target from defaults, the configuration file and SEEDER_*
// environment variables. It returns the configuration file used, if any.
func (l *ConfigurationLoader) Load(configurationFile string, defaults map[string]any, target *Configuration) (string, error) {
	v := viper.New()
	v.SetFs(l.fs)
	v.SetConfigName(configurationName)
	v.SetConfigType(configurationType)
	for _, path := range l.searchPaths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix(environmentPrefix)
	v.SetEnvKeyReplacer(l.replacer)
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configurationFile != "" {
		v.SetConfigFile(configurationFile)
	}

	if err := v.MergeInConfig(); err != nil {
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			return "", fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(target, hooks); err != nil {
		return "", fmt.Errorf("failed to parse configuration: %w", err)
	}

	return v.ConfigFileUsed(), nil
}
