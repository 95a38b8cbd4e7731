// Command chainctl deploys and invokes contracts on Ethereum and Tezos from named profiles.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/commands"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Variables already set in the environment take precedence over .env.
	_ = godotenv.Load()

	cfg := logger.Config{Level: zapcore.WarnLevel}
	if lvl, ok := os.LookupEnv("CHAINCTL_LOG_LEVEL"); ok {
		parsed, err := zapcore.ParseLevel(lvl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid CHAINCTL_LOG_LEVEL: %v\n", err)
			return 2
		}
		cfg.Level = parsed
	}

	lggr, err := cfg.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		return 1
	}
	defer func() { _ = lggr.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.New(lggr).Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}
