package config

import "time"

// Config holds runtime settings for the sync engine.
//
// Fields:
//   - LocalDBPath: path of the on-device SQLite database file.
//   - RemoteDSN: connection string of the cloud relational backend.
//   - DebounceWindow: quiet window merged local writes share before a sync
//     pass is scheduled.
//   - RemoteTimeout: per-call timeout for remote requests.
//   - RestoreWindow: how many recent append-only rows a restore pulls per
//     entity kind.
//   - RetryMaxAttempts: attempts per remote operation before the pass gives
//     up on transient failures.
//   - RetryBaseDelay: base delay of the exponential retry backoff.
//   - ProbeAddr: host:port probed for reachability hints; empty disables the
//     probe.
//   - RunOnce: run a single pass and exit instead of watching for changes.
type Config struct {
	LocalDBPath      string
	RemoteDSN        string
	DebounceWindow   time.Duration
	RemoteTimeout    time.Duration
	RestoreWindow    int
	RetryMaxAttempts uint64
	RetryBaseDelay   time.Duration
	ProbeAddr        string
	RunOnce          bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.LocalDBPath = "platemate.db"
	c.RemoteDSN = ""
	c.DebounceWindow = 500 * time.Millisecond
	c.RemoteTimeout = 20 * time.Second
	c.RestoreWindow = 100
	c.RetryMaxAttempts = 4
	c.RetryBaseDelay = time.Second
	c.ProbeAddr = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
