package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ironvale.gg/internal/auth"
	"ironvale.gg/internal/persistence/archive"
	"ironvale.gg/internal/persistence/gamedb"
	"ironvale.gg/internal/sim/catalogs"
	"ironvale.gg/internal/sim/tuning"
	"ironvale.gg/internal/transport/httpapi"
	"ironvale.gg/internal/transport/ws"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		dbPath      = flag.String("db", "./data/ironvale.db", "sqlite database path")
		configDir   = flag.String("configs", "./configs", "config directory")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		staticDir   = flag.String("static", "", "client asset directory (empty to disable)")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		archiveKeep = flag.Int("archive_keep", 20, "archived saves retained per account")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	secret := os.Getenv("IRONVALE_JWT_SECRET")
	authSvc, err := auth.NewService(secret)
	if err != nil {
		logger.Fatalf("IRONVALE_JWT_SECRET must be set")
	}

	tpath := *tuningPath
	if tpath == "" {
		tpath = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tpath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning: %s not found, using defaults", tpath)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	if err := cats.Validate(); err != nil {
		logger.Fatalf("validate catalogs: %v", err)
	}

	db, err := gamedb.Open(*dbPath, tune, cats, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := db.EnsureBaseItems(ctx); err != nil {
		logger.Fatalf("item catalog fixup: %v", err)
	}

	arch := archive.NewWriter(filepath.Join(*dataDir, "archives"), *archiveKeep, logger)
	defer arch.Close()

	hub := ws.NewHub(logger)
	api := httpapi.New(logger, authSvc, db, tune, cats, arch, hub, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := api.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP ironvale_signups_total Accounts created.\n")
		fmt.Fprintf(rw, "# TYPE ironvale_signups_total counter\n")
		fmt.Fprintf(rw, "ironvale_signups_total %d\n", m.Signups.Load())

		fmt.Fprintf(rw, "# HELP ironvale_logins_total Successful logins.\n")
		fmt.Fprintf(rw, "# TYPE ironvale_logins_total counter\n")
		fmt.Fprintf(rw, "ironvale_logins_total %d\n", m.Logins.Load())

		fmt.Fprintf(rw, "# HELP ironvale_logins_denied_total Rejected login attempts.\n")
		fmt.Fprintf(rw, "# TYPE ironvale_logins_denied_total counter\n")
		fmt.Fprintf(rw, "ironvale_logins_denied_total %d\n", m.LoginDenied.Load())

		fmt.Fprintf(rw, "# HELP ironvale_saves_total Accepted progress saves.\n")
		fmt.Fprintf(rw, "# TYPE ironvale_saves_total counter\n")
		fmt.Fprintf(rw, "ironvale_saves_total %d\n", m.Saves.Load())

		fmt.Fprintf(rw, "# HELP ironvale_save_failures_total Failed progress saves.\n")
		fmt.Fprintf(rw, "# TYPE ironvale_save_failures_total counter\n")
		fmt.Fprintf(rw, "ironvale_save_failures_total %d\n", m.SaveFailures.Load())

		fmt.Fprintf(rw, "# HELP ironvale_ws_clients Connected event-stream clients.\n")
		fmt.Fprintf(rw, "# TYPE ironvale_ws_clients gauge\n")
		fmt.Fprintf(rw, "ironvale_ws_clients %d\n", hub.ActiveClients())
	})

	api.Register(mux)
	mux.Handle("/v1/events", authSvc.RequireAuth(hub.Handler()))
	httpapi.RegisterStatic(mux, *staticDir)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
