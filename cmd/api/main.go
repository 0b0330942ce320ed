package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/domain"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/infra/geoip"
	"server/internal/ledger"
	"server/internal/musicgen"
	"server/internal/providers/prompt"
	"server/internal/registry"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	var (
		taskRegistry domain.TaskRegistry
		tokenLedger  domain.TokenLedger
		creds        *credentials.Store
	)
	switch cfg.Store {
	case infra.StorePostgres:
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		runner := infra.NewSQLRunner(dbpool, logger)
		taskRegistry = registry.NewPostgres(runner)
		tokenLedger = ledger.NewPostgres(runner)
		creds = credentials.NewStore(runner)
	case infra.StoreMemory:
		logger.Warn().Msg("using in-memory stores, state is lost on restart")
		taskRegistry = registry.NewMemory()
		tokenLedger = ledger.NewMemory()
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize file store")
	}

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		geo = nil
	}

	music := buildMusicBackend(ctx, cfg, logger, creds, fileStore, taskRegistry)
	composer := buildComposer(cfg, logger, creds)

	app := &handlers.App{
		Config:   cfg,
		Logger:   logger,
		Registry: taskRegistry,
		Ledger:   tokenLedger,
		Music:    music,
		Composer: composer,
		Geo:      geo,
	}

	router := httpapi.NewRouter(app, fileStore.BasePath())
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("store", cfg.Store).
			Str("music_backend", music.Name()).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildMusicBackend(ctx context.Context, cfg *infra.Config, logger infra.Logger, creds *credentials.Store, fileStore *storage.FileStore, taskRegistry domain.TaskRegistry) musicgen.Backend {
	if cfg.MusicBackend == infra.MusicBackendDemo {
		return musicgen.NewDemo(musicgen.DemoOptions{
			Store:          fileStore,
			StorageBaseURL: cfg.StorageBaseURL,
			Logger:         logger,
			Complete: func(ctx context.Context, taskID string, result domain.CompletionResult, raw []byte) {
				if _, err := taskRegistry.UpsertCompletion(ctx, taskID, result, raw); err != nil {
					logger.Error().Err(err).Str("task_id", taskID).Msg("demo completion persist failed")
				}
			},
		})
	}

	apiKey := strings.TrimSpace(cfg.MusicAPIKey)
	if apiKey == "" && creds != nil {
		stored, err := creds.MusicAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("music api key lookup failed")
		}
		apiKey = stored
	}
	if apiKey == "" {
		logger.Warn().Msg("no music api key configured, submissions will fail until one is set")
	}
	return musicgen.NewClient(musicgen.ClientOptions{
		APIKey:     apiKey,
		BaseURL:    cfg.MusicBaseURL,
		Model:      cfg.MusicModel,
		MinSeconds: cfg.MusicMinSecs,
		MaxSeconds: cfg.MusicMaxSecs,
	})
}

func buildComposer(cfg *infra.Config, logger infra.Logger, creds *credentials.Store) prompt.Composer {
	static := prompt.NewStaticComposer()
	if cfg.PromptProvider != "openai" {
		return static
	}
	apiKey := strings.TrimSpace(cfg.OpenAIAPIKey)
	if apiKey == "" && creds != nil {
		stored, err := creds.OpenAIAPIKey(context.Background())
		if err != nil {
			logger.Warn().Err(err).Msg("openai api key lookup failed")
		}
		apiKey = stored
	}
	if apiKey == "" {
		logger.Info().Msg("no openai api key, using static prompt composer")
		return static
	}
	composer, err := prompt.NewOpenAIComposer(prompt.OpenAIOptions{
		APIKey:       apiKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Fallback:     static,
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("prompt composition fell back to static")
		},
		OnWarning: func(reason, detail string) {
			logger.Warn().Str("reason", reason).Str("detail", detail).Msg("openai model normalized")
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("openai composer unavailable, using static")
		return static
	}
	return composer
}
