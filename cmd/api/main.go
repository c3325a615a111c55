package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusgate.org/internal/auth"
	"campusgate.org/internal/httpapi"
	"campusgate.org/internal/obs"
	"campusgate.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("CAMPUSGATE_AUTH_SECRET")
	if secret == "" {
		log.Fatal("CAMPUSGATE_AUTH_SECRET is required")
	}

	var store auth.Store
	probe := httpapi.ReadyProbe{}
	if dsn := os.Getenv("CAMPUSGATE_PG_DSN"); dsn != "" {
		db, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		store = auth.NewPGStore(db)
		probe.DB = db
	} else {
		// No DSN: in-memory store for local development only.
		log.Println("CAMPUSGATE_PG_DSN not set, using in-memory credential store")
		store = auth.NewInMemory()
	}

	svc, err := auth.NewService(store, auth.Config{Secret: []byte(secret)})
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	addr := os.Getenv("CAMPUSGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	api := httpapi.New(probe, version, svc)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting campusgate-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
