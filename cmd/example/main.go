// Package main is a minimal demonstration of the asyncmysql client: load
// configuration, serve Prometheus metrics, run one query and one
// transaction, then wait for a shutdown signal. Flag parsing, the metrics
// server, and graceful shutdown follow the shape of a typical proxy
// entrypoint, collapsed here since there is no proxy listen side left to
// start (see DESIGN.md).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joao-brasil/asyncmysql"
	"github.com/joao-brasil/asyncmysql/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	configPath  = flag.String("config", "configs/asyncmysql.yaml", "Path to configuration file")
	metricsPort = flag.Int("metrics-port", 9090, "Port to serve /metrics on")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[main] starting asyncmysql example")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[main] failed to load configuration: %v", err)
	}

	client, err := asyncmysql.New(cfg)
	if err != nil {
		log.Fatalf("[main] failed to build client: %v", err)
	}
	defer client.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", *metricsPort),
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[main] metrics listening on :%d/metrics", *metricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[main] metrics server error: %v", err)
		}
	}()

	ctx := context.Background()

	rows, err := client.Query(ctx, "SELECT 1 AS ok", nil, "")
	if err != nil {
		log.Printf("[main] sample query failed: %v", err)
	} else {
		log.Printf("[main] sample query returned %d row(s): %v", len(rows), rows)
	}

	_, err = client.Transaction(ctx, 3, "", func(ctx context.Context, tx *asyncmysql.Transaction) (any, error) {
		affected, err := tx.Execute("UPDATE accounts SET balance = balance - ? WHERE id = ?", []any{10, 1}, "")
		if err != nil {
			return nil, err
		}
		tx.OnCommit(func() error {
			log.Println("[main] transaction committed")
			return nil
		})
		return affected, nil
	})
	if err != nil {
		log.Printf("[main] sample transaction failed: %v", err)
	}

	stats := client.Stats()
	log.Printf("[main] pool stats: live=%d idle=%d waiting=%d capacity=%d", stats.Live, stats.Idle, stats.Waiting, stats.Capacity)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	log.Println("[main] ready, waiting for shutdown signal...")
	sig := <-sigCh
	log.Printf("[main] received signal %v, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] metrics server shutdown error: %v", err)
	}

	log.Println("[main] shutdown complete")
}
