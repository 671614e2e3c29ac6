package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/moraplatform/qa-engine/internal/adapters/mcp"
	"github.com/moraplatform/qa-engine/internal/bootstrap"
	"github.com/moraplatform/qa-engine/internal/config"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()
	slog.SetDefault(app.Logger)

	srv := mcpadapter.NewServer(app.Dispatcher, app.Retriever, app.Graph, version)
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
