// pkg/config/config.go
package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/vulntor/netspectre/pkg/logging"
	"github.com/vulntor/netspectre/pkg/storage"
)

// FallbackDataDir is used when no platform data directory can be resolved.
const FallbackDataDir = "./netspectre-data"

// Manager handles loading and accessing the engine configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{koanfInstance: koanf.New(".")}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
func DefaultConfig() Config {
	dir, err := storage.DefaultDataDir()
	if err != nil {
		dir = FallbackDataDir
	}
	return Config{
		Log: LogConfig{
			Level:  "error",
			Format: logging.FormatConsole,
		},
		Data: DataConfig{Dir: dir},
		Profiles: ProfilesConfig{
			Watch:    true,
			Debounce: 100 * time.Millisecond,
		},
	}
}

// Load reads the configuration from sources, lowest priority first, and
// replaces the current configuration.
func (m *Manager) Load(sources ...ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := append([]ConfigSource(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	for _, src := range ordered {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
		log.Debug().Str("component", "config").Str("source", src.Name()).Msg("Configuration source loaded")
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	if err := postProcessConfig(&newCfg); err != nil {
		return err
	}
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// String returns the raw value of key from the merged sources.
func (m *Manager) String(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance.String(key)
}

// StorageConfig returns the validated store locations.
func (c Config) StorageConfig() *storage.Config {
	return &storage.Config{DataDir: c.Data.Dir}
}

// postProcessConfig validates the merged values and normalizes paths.
func postProcessConfig(cfg *Config) error {
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("log.format: unsupported format %q", cfg.Log.Format)
	}
	if cfg.Profiles.Debounce < 0 {
		return fmt.Errorf("profiles.debounce: must not be negative")
	}

	sc := storage.Config{DataDir: cfg.Data.Dir}
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("data.dir: %w", err)
	}
	cfg.Data.Dir = sc.DataDir
	return nil
}

// DefaultConfigAsMap converts the DefaultConfig struct to a map[string]interface{}
// for Koanf's confmap.Provider.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":    def.Log.Level,
		"log.format":   def.Log.Format,
		"log.no_color": def.Log.NoColor,

		"data.dir": def.Data.Dir,

		"profiles.watch":    def.Profiles.Watch,
		"profiles.debounce": def.Profiles.Debounce.String(),
	}
}

// flagKeys maps command-line flag names onto koanf keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"no-color":   "log.no_color",
	"data-dir":   "data.dir",
}

// BindFlags defines command-line flags corresponding to configuration settings.
// These flags override config file and environment settings.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-level", defaults.Log.Level, "Log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "Log format (console, json)")
	flags.Bool("no-color", false, "Disable colored log and table output")
	flags.String("data-dir", "", "Data directory for profiles and baselines")

	// The --config flag is defined on the root command.
}
