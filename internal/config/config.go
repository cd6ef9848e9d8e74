package config

import (
	"encoding/json"
	"errors"
	"os"
)

// Paths controls where rangebench reads traces from and stores its
// corpus database.
type Paths struct {
	CorpusDB     string `json:"corpus_db"`
	DefaultTrace string `json:"default_trace"`
}

// Replay controls how the replay engine fans work out across trackers.
type Replay struct {
	Concurrency int `json:"concurrency"`
}

// DebugAPI controls the introspection HTTP server.
type DebugAPI struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// Logging controls the zap logger construction.
type Logging struct {
	Level string `json:"level"` // debug|info|warn|error
	JSON  bool   `json:"json"`  // force JSON encoding even on a TTY
}

type Config struct {
	Paths    Paths    `json:"paths"`
	Replay   Replay   `json:"replay"`
	DebugAPI DebugAPI `json:"debug_api"`
	Logging  Logging  `json:"logging"`
}

func Default() Config {
	return Config{
		Paths: Paths{
			CorpusDB:     "/config/rangebench.db",
			DefaultTrace: "",
		},
		Replay: Replay{Concurrency: 8},
		DebugAPI: DebugAPI{
			Enabled: true,
			Addr:    ":1517",
		},
		Logging: Logging{Level: "info", JSON: false},
	}
}

// Load reads a JSON config from path, filling in defaults for anything
// the file omits. An empty path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Replay.Concurrency <= 0 {
		cfg.Replay.Concurrency = 8
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.DebugAPI.Addr == "" {
		cfg.DebugAPI.Addr = ":1517"
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Replay.Concurrency <= 0 {
		return errors.New("replay.concurrency must be >= 1")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be debug|info|warn|error")
	}
	if c.DebugAPI.Enabled && c.DebugAPI.Addr == "" {
		return errors.New("debug_api.addr required when debug_api.enabled")
	}
	return nil
}
