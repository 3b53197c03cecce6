package main

import (
	"os"

	"github.com/DRSN-tech/catalog-backend/internal/app"
	config "github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
)

func main() {
	bootLog := logger.NewSlogLogger()

	cfg, err := config.Load(bootLog)
	if err != nil {
		bootLog.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	// формат логов зависит от APP_ENV: JSON в production, текст в остальных режимах
	log := logger.NewSlogLoggerWith(os.Stdout, cfg.Env).With("service", "catalog-backend", "env", cfg.Env)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
