package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/incident.report/internal/api"
	"github.com/banshee-data/incident.report/internal/dashboard"
	"github.com/banshee-data/incident.report/internal/gtd"
)

var (
	dataPath     = flag.String("data", "global_terrorism.csv", "Path to the incident CSV export")
	snapshotPath = flag.String("snapshot", "incidents.db", "Path to the sqlite snapshot cache (empty to disable)")
	listen       = flag.String("listen", ":8080", "Listen address")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	ds, err := gtd.Load(gtd.Options{
		DataPath:     *dataPath,
		SnapshotPath: *snapshotPath,
	})
	if err != nil {
		log.Fatalf("failed to load incident data: %v", err)
	}
	log.Printf("loaded %d incidents (%d–%d)", len(ds.Incidents), ds.Meta.YearMin, ds.Meta.YearMax)

	// New runs the initial refresh, so every source is published before the
	// HTTP surface comes up.
	state := dashboard.New(ds)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(state).ServeMux()
		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Println("shutdown complete")
}
