package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"ringlock/internal/api"
	"ringlock/internal/auth"
	"ringlock/internal/config"
	"ringlock/internal/ring"
	"ringlock/internal/token"
	"ringlock/internal/unlock"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	store := token.New(cfg.TokenPath, cfg.ExplicitToken, cfg.MasterKey, logger)

	opts := []ring.Option{
		ring.WithLogger(logger),
		ring.WithTokenCallback(store.Persist),
	}
	if cfg.APIBase != "" {
		opts = append(opts, ring.WithAPIBase(cfg.APIBase))
	}
	client := ring.NewHTTPClient(config.UserAgent, opts...)
	pending := auth.NewPendingStore(auth.DefaultPendingTTL)
	machine := auth.NewMachine(client, store, pending, logger)
	manager := unlock.NewManager(client, store, logger)
	orchestrator := unlock.NewOrchestrator(manager, unlock.Resolver{TargetName: cfg.IntercomName}, logger)

	server := api.NewServer(cfg, store, machine, orchestrator, logger)
	r := api.NewRouter(server)

	logger.Info("server running", "port", cfg.Port, "token_path", cfg.TokenPath)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
