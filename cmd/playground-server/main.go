// Fixture Playground Server
//
// Serves a stand-in playground page (editor, run button, preview, error
// panel) so the browser suite can be exercised without the real application.
//
// Usage:
//
//	go run ./cmd/playground-server -addr :8080
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thesyncim/playground-e2e/cmd/playground-server/server"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	verbose := flag.Bool("verbose", false, "Log every preview request")
	flag.Parse()

	zcfg := zap.NewProductionConfig()
	if *verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := server.DefaultConfig()
	cfg.Addr = *addr
	cfg.Logger = logger
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	if _, err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	fmt.Printf(`
Fixture Playground Server
=========================
Open %s/playground in a browser, or run the suite against it:

  PLAYGROUND_URL=%s go test -tags=e2e ./e2e/...

`, srv.URL(), srv.URL())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
