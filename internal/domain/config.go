package domain

// Config holds the complete Heron configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// History controls the in-memory session log of assessments.
	History HistoryConfig `json:"history"`

	// EventBus settings
	EventBus EventBusConfig `json:"eventBus"`

	// AdvisoryRulesPath optionally points at a JSON file with advisory
	// rules that replace the built-in defaults.
	AdvisoryRulesPath string `json:"advisoryRulesPath"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// HistoryConfig holds session-history settings.
type HistoryConfig struct {
	// MaxEntries bounds the in-memory log; oldest entries are evicted.
	MaxEntries int `json:"maxEntries"`
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// ChannelBufferSize is the per-subscription channel depth.
	ChannelBufferSize int `json:"channelBufferSize"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
}

// DefaultConfig returns the default single-process configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		History: HistoryConfig{
			MaxEntries: 500,
		},
		EventBus: EventBusConfig{
			ChannelBufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "heron",
		},
	}
}
