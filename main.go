package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/biosynth/config"
	"github.com/pthm-cable/biosynth/game"
	"github.com/pthm-cable/biosynth/renderer"
	"github.com/pthm-cable/biosynth/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Uint64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	seedText := flag.String("seed-text", "", "Comma-separated extra seed texts")
	restore := flag.String("restore", "", "Snapshot file to restore instead of seeding")
	tickInterval := flag.Duration("tick-interval", 20*time.Millisecond, "Headless tick interval")

	flag.Parse()

	runID := uuid.NewString()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("run_id", runID)
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}
	if output != nil {
		defer output.Close()
		if err := output.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := telemetry.NewMetrics(reg)

	ws := renderer.NewWebSocket(logger)
	defer ws.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Telemetry.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		serve(ctx, g, "metrics", cfg.Telemetry.MetricsAddr, mux)
	}
	if cfg.Render.WSAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", ws)
		serve(ctx, g, "websocket", cfg.Render.WSAddr, mux)
	}

	var view *worldFrontend
	sinks := renderer.Multi{ws}
	if !*headless {
		view = newWorldFrontend(cfg)
		sinks = append(sinks, view.world)
	}

	sim, err := game.NewSimulation(game.Options{
		Config:      cfg,
		Sink:        sinks,
		Logger:      logger,
		Metrics:     metrics,
		Output:      output,
		Seed:        rngSeed,
		RunID:       runID,
		LogStats:    *logStats,
		SnapshotDir: *snapshotDir,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer sim.Close()

	if err := populate(sim, *restore, splitSeeds(*seedText)); err != nil {
		slog.Error("failed to populate", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"headless", *headless,
		"max_ticks", *maxTicks,
		"population", sim.Store().Len(),
	)

	if *headless {
		sim.Start(game.NewTickerClock(*tickInterval))
		waitHeadless(ctx, sim, *maxTicks)
	} else {
		view.run(ctx, sim, splitSeeds(*seedText), *maxTicks)
	}

	sim.Stop()
	stop()
	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
	}
}

// populate seeds the simulation, or restores it from a snapshot file.
func populate(sim *game.SimulationContext, restorePath string, extra []string) error {
	if restorePath == "" {
		return sim.SeedInitial(extra...)
	}
	snap, err := telemetry.LoadSnapshot(restorePath)
	if err != nil {
		return err
	}
	return sim.Restore(snap)
}

// waitHeadless blocks until ctx is done or maxTicks is reached.
func waitHeadless(ctx context.Context, sim *game.SimulationContext, maxTicks uint64) {
	poll := time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown requested", "tick", sim.Tick())
			return
		case <-poll.C:
			if maxTicks > 0 && sim.Tick() >= maxTicks {
				slog.Info("max ticks reached", "tick", sim.Tick())
				return
			}
		}
	}
}

// serve runs an HTTP server in g until ctx is done.
func serve(ctx context.Context, g *errgroup.Group, name, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		slog.Info("http_listening", "server", name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func splitSeeds(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
