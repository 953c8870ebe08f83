// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for the NetSpectre engine.
type Config struct {
	Log      LogConfig      `description:"Logging configuration" koanf:"log"`
	Data     DataConfig     `description:"Data directory configuration" koanf:"data"`
	Profiles ProfilesConfig `description:"Scan profile store configuration" koanf:"profiles"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level   string `description:"Log level: debug | info | warn | error" koanf:"level"`
	Format  string `description:"Log format: console | json" koanf:"format"`
	NoColor bool   `description:"Disable colored console logs" koanf:"no_color"`
}

// DataConfig locates the on-disk stores.
type DataConfig struct {
	Dir string `description:"Root directory for profiles and baselines" koanf:"dir"`
}

// ProfilesConfig controls the profile store.
type ProfilesConfig struct {
	// Watch reloads the profile cache when files change outside the engine.
	Watch    bool          `description:"Watch the profiles directory for external edits" koanf:"watch"`
	Debounce time.Duration `description:"Delay before reloading after a file change" koanf:"debounce"`
}
