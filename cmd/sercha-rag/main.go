// Command sercha-rag is multi-field semantic retrieval with a semantic
// response cache.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load .env if present so provider keys referenced as env:NAME resolve.
	_ = godotenv.Load() //nolint:errcheck // a missing .env is normal

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// cobra has already printed the error.
	if err := cli.Execute(ctx, version, app.New); err != nil {
		cancel()
		os.Exit(1)
	}
}
