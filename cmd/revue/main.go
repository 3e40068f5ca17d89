// Command revue runs the code-review agent server: a supervisor/worker
// orchestration engine exposed over HTTP with streaming runs, session
// persistence and a workspace tool gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oskhen/revue/internal/breaker"
	"github.com/oskhen/revue/internal/config"
	"github.com/oskhen/revue/internal/engine"
	"github.com/oskhen/revue/internal/index"
	"github.com/oskhen/revue/internal/project"
	"github.com/oskhen/revue/internal/providers"
	"github.com/oskhen/revue/internal/ratelimit"
	"github.com/oskhen/revue/internal/sandbox"
	"github.com/oskhen/revue/internal/server"
	"github.com/oskhen/revue/internal/session"
	"github.com/oskhen/revue/internal/tools"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("revue: %v", err)
	}
}

func run() error {
	// A missing .env is fine; the environment may be set elsewhere.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	var (
		listenAddr = flag.String("listen", "", "listen address (overrides REVUE_LISTEN_ADDR)")
		workspace  = flag.String("workspace", "", "workspace root (overrides REVUE_WORKSPACE)")
		noWatch    = flag.Bool("no-watch", false, "disable filesystem watching for the search index")
	)
	flag.Parse()

	settings := config.Load()
	if *listenAddr != "" {
		settings.ListenAddr = *listenAddr
	}
	if *workspace != "" {
		settings.WorkspaceRoot = *workspace
	}

	// Saved preferences fill in whatever the environment left unset.
	if mgr, err := config.NewManager(); err == nil {
		if prefs, err := mgr.Load(); err == nil {
			prefs.Apply(&settings)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := providers.NewModelClient(settings)
	if err != nil {
		return err
	}

	store, err := session.NewStore(ctx, settings.SessionDBPath, settings.SessionTTL)
	if err != nil {
		return err
	}
	defer store.Close()

	ix, err := index.Open(settings.WorkspaceRoot, settings.IndexPath)
	if err != nil {
		return err
	}
	defer ix.Close()
	if _, err := ix.Build(ctx); err != nil {
		log.Printf("initial index build incomplete: %v", err)
	}

	watch := !*noWatch
	if projCfg, err := project.LoadConfig(settings.WorkspaceRoot); err != nil {
		log.Printf("ignoring project config: %v", err)
	} else if projCfg != nil && !projCfg.WatchEnabled {
		watch = false
	}
	if watch {
		watcher, err := index.NewWatcher(settings.WorkspaceRoot, ix)
		if err != nil {
			log.Printf("filesystem watching disabled: %v", err)
		} else if err := watcher.Start(); err != nil {
			log.Printf("filesystem watching disabled: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	repoMap, err := index.BuildRepoMap(settings.WorkspaceRoot)
	if err != nil {
		log.Printf("repository map unavailable: %v", err)
	}
	if rules, err := project.LoadRules(settings.WorkspaceRoot); err != nil {
		log.Printf("ignoring project rules: %v", err)
	} else if rules != "" {
		repoMap += "\n\nProject review rules:\n" + rules
	}

	ws, err := tools.NewWorkspace(settings.WorkspaceRoot, settings.AllowedExtensions, settings.MaxFileSizeMB)
	if err != nil {
		return err
	}

	sandboxCfg := sandbox.ConfigFromEnv()
	if settings.SandboxImage != "" {
		sandboxCfg.Image = settings.SandboxImage
	}
	if !settings.SandboxEnabled {
		sandboxCfg.Mode = sandbox.ModeHost
	}
	runner := sandbox.NewRunner(sandboxCfg)

	breakers := breaker.NewRegistry(breaker.Config{
		FailureThreshold: settings.BreakerFailureThreshold,
		SuccessThreshold: settings.BreakerSuccessThreshold,
		Timeout:          settings.BreakerTimeout,
		CallTimeout:      settings.BreakerCallTimeout,
	})

	registry := tools.NewRegistry(ws, runner, ix, settings.CommandTimeout)
	eng := engine.New(model, registry, breakers, engine.Options{
		MaxIterations: settings.MaxIterations,
		RepoMap:       repoMap,
	})

	limiter := ratelimit.NewLimiter(settings.RateLimitPerMinute, settings.RateLimitBurst, time.Minute)
	srv := server.New(eng, store, breakers, limiter)
	srv.SetSummarizer(session.NewSummarizer(model))

	httpServer := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (workspace %s, provider %s)", settings.ListenAddr, settings.WorkspaceRoot, settings.Provider)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
