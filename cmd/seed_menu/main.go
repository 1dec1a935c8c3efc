package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/barista-backend/internal/app"
)

func main() {
	skipIndex := flag.Bool("skip-index", false, "seed the menu without embedding it into the vector store")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	n, err := a.SeedMenu(ctx)
	if err != nil {
		a.Log.Error("Menu seeding failed", "error", err)
		a.Close()
		os.Exit(1)
	}
	if *skipIndex {
		a.Log.Info("Menu seeded; indexing skipped", "drinks", n)
		return
	}
	if a.Cfg.Vector.Provider == app.VectorProviderMemory {
		a.Log.Warn("VECTOR_PROVIDER=memory does not persist; the server re-indexes on start")
	}
	indexed, err := a.IndexMenu(ctx)
	if err != nil {
		a.Log.Error("Menu indexing failed", "error", err)
		a.Close()
		os.Exit(1)
	}
	a.Log.Info("Menu seeded and indexed", "drinks", n, "indexed", indexed)
}
