package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"server/internal/infra"
	"server/internal/registry"
)

// sweeper removes task records older than the retention window. Run it from
// cron; the serving path never blocks on cleanup.
func main() {
	_ = godotenv.Load()

	var maxAgeFlag time.Duration
	flag.DurationVar(&maxAgeFlag, "max-age", 0, "retention window override (e.g. 24h); defaults to TASK_RETENTION_HOURS")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Store != infra.StorePostgres {
		fmt.Fprintln(os.Stderr, "sweeper requires STORE=postgres")
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "sweeper").Logger()

	maxAge := maxAgeFlag
	if maxAge <= 0 {
		maxAge = cfg.TaskRetention
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	taskRegistry := registry.NewPostgres(infra.NewSQLRunner(dbpool, logger))
	removed, err := taskRegistry.Sweep(ctx, maxAge)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweep failed")
	}
	logger.Info().Int64("removed", removed).Dur("max_age", maxAge).Msg("sweep complete")
}
