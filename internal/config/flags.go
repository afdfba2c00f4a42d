package config

import (
	"flag"
	"os"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-l string   path of the local SQLite database file
//	-r string   DSN of the cloud backend
//	-w int      debounce window in milliseconds
//	-p string   host:port probed for reachability hints
//	-once       run a single sync pass and exit
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-l", "-r", "-w", "-p", "-once"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.LocalDBPath, "l", cfg.LocalDBPath, "path of the local SQLite database file")
	fs.StringVar(&cfg.RemoteDSN, "r", cfg.RemoteDSN, "DSN of the cloud backend")
	debounceMs := fs.Int("w", int(cfg.DebounceWindow.Milliseconds()), "debounce window (in milliseconds)")
	fs.StringVar(&cfg.ProbeAddr, "p", cfg.ProbeAddr, "host:port probed for reachability hints")
	fs.BoolVar(&cfg.RunOnce, "once", cfg.RunOnce, "run a single sync pass and exit")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.DebounceWindow = time.Duration(*debounceMs) * time.Millisecond
}
