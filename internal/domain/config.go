package domain

// Config holds the complete pet shop configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Component configurations
	Storage  StorageConfig  `json:"storage"`
	EventBus EventBusConfig `json:"eventBus"`
	Keeper   KeeperConfig   `json:"keeper"`

	// Observability
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// KeeperConfig holds the periodic decay scheduler settings.
type KeeperConfig struct {
	Enabled bool `json:"enabled"`

	// IntervalSeconds is the time between decay ticks.
	IntervalSeconds int `json:"intervalSeconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// DefaultConfig returns the default single-node configuration: file-backed
// snapshots, channel bus, decay tick every minute.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Storage: StorageConfig{
			Driver:   "file",
			FilePath: "./petshop.json",
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Keeper: KeeperConfig{
			Enabled:         true,
			IntervalSeconds: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
