package main

import (
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/mkraev/metricflow/internal/adapters/http/ginserver"
	"github.com/mkraev/metricflow/internal/adapters/http/ginserver/middlewares"
	"github.com/mkraev/metricflow/internal/config"
	"github.com/mkraev/metricflow/internal/store/memory"
)

func main() {
	cfg, err := config.LoadServerConfig(os.Args[1:], nil)
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	st := memory.New()
	h := ginserver.NewHandler(st)
	r := ginserver.NewRouter(h,
		middlewares.RequestLogger(logger),
		middlewares.GzipRequest(),
		middlewares.VerifyHash(cfg.Key),
	)

	logger.Info("ingestd started", zap.String("addr", cfg.Address))
	if err := http.ListenAndServe(cfg.Address, r); err != nil {
		log.Fatal(err)
	}
}
