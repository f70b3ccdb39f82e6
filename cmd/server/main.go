package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/taglimit/internal/api"
	"github.com/dgallion1/taglimit/internal/config"
	"github.com/dgallion1/taglimit/internal/controller"
	"github.com/dgallion1/taglimit/internal/importer"
	"github.com/dgallion1/taglimit/internal/rules"
	"github.com/dgallion1/taglimit/internal/stats"
	"github.com/dgallion1/taglimit/internal/vault"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rule store.
	store := rules.NewStore(cfg.RulesPath, log)
	if err := store.Load(); err != nil {
		log.Error("load rules", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}

	// Vault and policy controller.
	v, err := vault.Open(cfg.VaultDir, log)
	if err != nil {
		log.Error("open vault", "dir", cfg.VaultDir, "error", err)
		os.Exit(1)
	}
	recorder := stats.NewRecorder(time.Hour)
	board := controller.NewStatusBoard(log)
	ctrl := controller.New(store, board, controller.LogNotifier{Log: log}, recorder, log)

	// Sweep existing notes once so the vault starts in a compliant state.
	sweep(ctrl, v, log)

	// Watch the vault for edits.
	watcher := vault.NewWatcher(v, cfg.WatchDebounce, log)
	events, err := watcher.Watch(ctx)
	if err != nil {
		log.Error("start watcher", "error", err)
		os.Exit(1)
	}
	go func() {
		for ev := range events {
			if v.ConsumeSelfWrite(ev.Path) {
				continue
			}
			ctrl.HandleChange(v.Buffer(ev.Path))
		}
	}()

	// Import pipeline.
	orch := importer.NewOrchestrator(cfg, v, log)
	orch.Start(ctx)

	// HTTP server.
	srv := api.NewServer(store, ctrl, board, v, orch, recorder, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting taglimit", "port", cfg.Port, "vault", cfg.VaultDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// sweep runs the policy once over every existing note.
func sweep(ctrl *controller.Controller, v *vault.Vault, log *slog.Logger) {
	notes, err := v.Notes()
	if err != nil {
		log.Warn("initial sweep skipped", "error", err)
		return
	}
	for _, path := range notes {
		ctrl.HandleChange(v.Buffer(path))
	}
	log.Info("initial sweep complete", "notes", len(notes))
}
