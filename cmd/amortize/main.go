/*
main.go - command line entry point

Runs a scenario file (loan + prepayments) and prints the schedule summary,
optionally exporting CSV/XLSX, or serves the HTTP API.

EXAMPLES:

	# print the summary with monthly detail and export a CSV with header
	./amortize -config scenario.yml -monthly -csv /tmp/schedule.csv -header

	# serve the API, caching results in redis
	./amortize -serve :8080 -redis localhost:6379
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/riskmanagement123/amortize"
	"github.com/riskmanagement123/amortize/api"
	"github.com/riskmanagement123/amortize/cache"
	"github.com/riskmanagement123/amortize/scenario"
)

func main() {
	configPath := flag.String("config", "", "scenario file (yaml/json)")
	csvPath := flag.String("csv", "", "write the schedule as CSV to this path")
	xlsxPath := flag.String("xlsx", "", "write the schedule as XLSX to this path")
	header := flag.Bool("header", false, "prepend the header row to the CSV")
	monthly := flag.Bool("monthly", false, "print one line per period")
	serve := flag.String("serve", "", "serve the HTTP API on this address instead of running a scenario")
	redisAddr := flag.String("redis", "", "redis address for the result cache (in-memory when empty)")
	ttl := flag.Duration("ttl", api.DefaultTTL, "result cache TTL")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := amortize.Start(amortize.Config{Logger: logger}); err != nil {
		logger.Fatal("start", zap.Error(err))
	}

	if *serve != "" {
		if err := runServer(logger, *serve, *redisAddr, *ttl); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
		return
	}

	if *configPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	sc, err := scenario.LoadConfiguration(*configPath)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}
	calc, _, err := sc.Run(logger)
	if err != nil {
		logger.Fatal("running scenario", zap.Error(err))
	}
	for _, line := range calc.Info(*monthly) {
		fmt.Println(line)
	}
	if *csvPath != "" {
		if err := calc.ExportCSV(*csvPath, *header); err != nil {
			logger.Fatal("exporting csv", zap.String("path", *csvPath), zap.Error(err))
		}
	}
	if *xlsxPath != "" {
		if err := calc.ExportXLSX(*xlsxPath); err != nil {
			logger.Fatal("exporting xlsx", zap.String("path", *xlsxPath), zap.Error(err))
		}
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runServer(logger *zap.Logger, addr, redisAddr string, ttl time.Duration) error {
	var store cache.Cache = cache.NewMemory()
	if redisAddr != "" {
		rc := cache.NewRedis(redisAddr)
		defer rc.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rc.Ping(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("redis %s: %w", redisAddr, err)
		}
		store = rc
	}

	handler := api.NewHandler(store, logger, api.NewMetrics(), ttl)
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(handler, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-quit:
		logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
