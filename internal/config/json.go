package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/flagx"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "500ms" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	LocalDBPath      string         `json:"local_db_path"`
	RemoteDSN        string         `json:"remote_dsn"`
	DebounceWindow   timex.Duration `json:"debounce_window"`
	RemoteTimeout    timex.Duration `json:"remote_timeout"`
	RestoreWindow    int            `json:"restore_window"`
	RetryMaxAttempts uint64         `json:"retry_max_attempts"`
	RetryBaseDelay   timex.Duration `json:"retry_base_delay"`
	ProbeAddr        string         `json:"probe_addr"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.LocalDBPath = jc.LocalDBPath
	cfg.RemoteDSN = jc.RemoteDSN
	cfg.DebounceWindow = time.Duration(jc.DebounceWindow.Duration)
	cfg.RemoteTimeout = time.Duration(jc.RemoteTimeout.Duration)
	cfg.RestoreWindow = jc.RestoreWindow
	cfg.RetryMaxAttempts = jc.RetryMaxAttempts
	cfg.RetryBaseDelay = time.Duration(jc.RetryBaseDelay.Duration)
	cfg.ProbeAddr = jc.ProbeAddr
}
