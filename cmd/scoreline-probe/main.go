// Command scoreline-probe checks a scoreline server's lookups against the
// local implementation.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/scoreline/internal/probe"
	"github.com/okian/scoreline/pkg/logger"
)

// Default configuration constants.
const (
	defaultCount   = 50_000
	defaultSamples = 200
	defaultTimeout = 10 * time.Second
	probeTimeout   = 5 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "", "Base URL of the service; empty checks the local lookup only")
		fixture  = flag.String("fixture", "", "YAML or JSON fixture to probe instead of a generated timeline")
		output   = flag.String("output", "", "Write the probed timeline to this YAML fixture")
		name     = flag.String("name", "probe", "Match name used for generated timelines")
		count    = flag.Int("count", defaultCount, "Stamps to generate after the initial one")
		seed     = flag.Int64("seed", 0, "Generator and sampling seed (0 uses the clock for generation)")
		samples  = flag.Int("samples", defaultSamples, "Offsets sampled per category")
		workers  = flag.Int("workers", runtime.NumCPU(), "Concurrent score requests")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logLevel = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
		verbose  = flag.Bool("verbose", false, "List passing checks too")
	)
	flag.Parse()

	if err := logger.Init(logger.WithOutput(os.Stderr), logger.WithLevel(*logLevel)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cfg := &probe.Config{
		BaseURL: *baseURL,
		Fixture: *fixture,
		Output:  *output,
		Name:    *name,
		Count:   *count,
		Seed:    *seed,
		Samples: *samples,
		Workers: *workers,
		Timeout: *timeout,
		Verbose: *verbose,
	}

	if _, err := probe.Run(ctx, cfg, os.Stdout); err != nil {
		_, _ = os.Stderr.WriteString("probe failed: " + err.Error() + "\n")
		if errors.Is(err, probe.ErrMismatch) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
