// Command ecoquest runs the Eco-Quest simulation server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/greenfield-games/ecoquest/internal/api"
	"github.com/greenfield-games/ecoquest/internal/config"
	"github.com/greenfield-games/ecoquest/internal/engine"
	"github.com/greenfield-games/ecoquest/internal/events"
	"github.com/greenfield-games/ecoquest/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfgPath := os.Getenv("ECOQUEST_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("config load failed", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Eco-Quest simulation server",
		"tick_interval_ms", cfg.TickIntervalMS,
		"db", cfg.DBPath,
	)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	store, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Session (restore or fresh) ────────────────────────────────────
	bus := events.NewBus(cfg.EventLogCapacity)
	tuning := cfg.Tuning()

	var session *engine.Session
	if snap, ok, loadErr := store.LoadLatestSnapshot(); loadErr != nil {
		slog.Error("failed to load saved session", "error", loadErr)
		os.Exit(1)
	} else if ok {
		session = engine.NewSessionFromSnapshot(snap, tuning, bus, engine.SlogNotifier{})
		slog.Info("session restored",
			"session_id", session.ID,
			"tick", snap.Tick,
			"outcome", snap.Outcome,
		)
	} else {
		session = engine.NewSession(tuning, bus, engine.SlogNotifier{})
		slog.Info("new session created", "session_id", session.ID)
	}

	// ── Persistence wiring ────────────────────────────────────────────
	// Snapshots are debounced; discrete events append straight through.
	// Neither path ever blocks or fails the simulation.
	syncer := persistence.NewSyncer(store, cfg.SyncDebounce())
	session.OnChange(syncer.Notify)

	sessionID := session.ID
	bus.SubscribeAll(func(e events.Event) {
		if err := store.AppendEvent(sessionID, e); err != nil {
			slog.Warn("event persist failed", "type", e.Type, "error", err)
		}
	})

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{
		Session:  session,
		Store:    store,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	server.Start()

	st := session.State()
	fmt.Printf("\nEco-Quest is ready: %s credits, %s citizens, eco score %d.\n",
		humanize.Comma(int64(st.Resources.Credits)),
		humanize.Comma(int64(st.Resources.Population)),
		int(st.Resources.EcoScore),
	)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	fmt.Println("POST /api/v1/start to begin the simulation. (Ctrl+C to stop)")

	// ── Shutdown ──────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	if session.State().Started {
		session.ToggleStart()
	}
	syncer.Close()
	if err := store.SaveSnapshot(session.Snapshot()); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. Session saved.")
}
