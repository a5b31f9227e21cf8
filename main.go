package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"
)

const (
	// World size and sample count
	defaultWidth  = 1200.0
	defaultHeight = 700.0
	defaultDots   = 1000

	defaultCapacity = 4
	statsInterval   = 5 * time.Second

	// Server settings
	defaultAddr     = ":8080"
	shutdownTimeout = 5 * time.Second
)

func parseConfig(args []string) (Config, error) {
	fs := flag.NewFlagSet("regionquad", flag.ContinueOnError)
	cfg := Config{}
	fs.StringVar(&cfg.Addr, "addr", defaultAddr, "listen address")
	fs.StringVar(&cfg.StaticDir, "static", "static", "directory served at /, empty to disable")
	fs.Float64Var(&cfg.Width, "width", defaultWidth, "world width")
	fs.Float64Var(&cfg.Height, "height", defaultHeight, "world height")
	fs.IntVar(&cfg.Dots, "dots", defaultDots, "number of random sample points")
	fs.IntVar(&cfg.Capacity, "capacity", defaultCapacity, "points per leaf before it subdivides")
	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed, 0 for time based")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Config{}, errors.New("width and height must be positive")
	}
	if cfg.Dots < 0 {
		return Config{}, errors.New("dots must not be negative")
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	scene := NewScene(cfg)
	log.Printf("Generated %d points over %vx%v (seed %d)", scene.Len(), cfg.Width, cfg.Height, scene.Seed())

	if cfg.StaticDir != "" {
		if err := os.MkdirAll(cfg.StaticDir, 0755); err != nil {
			log.Fatalf("Failed to create static directory: %v", err)
		}
	}

	srv := NewServer(scene, cfg)
	httpServer := &http.Server{Addr: cfg.Addr, Handler: srv.Handler()}

	log.Printf("Starting HTTP server on %s", cfg.Addr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	statsTicker := time.NewTicker(statsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-stop:
			log.Println("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				log.Printf("Shutdown error: %v", err)
			}
			return

		case <-statsTicker.C:
			scene.PrintStats()
			log.Printf("WebSocket clients: %d", srv.ClientCount())
		}
	}
}
