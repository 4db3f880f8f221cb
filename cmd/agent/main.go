package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkraev/metricflow/internal/adapters/backend/httpjson"
	pwbackend "github.com/mkraev/metricflow/internal/adapters/backend/promwrite"
	"github.com/mkraev/metricflow/internal/collector"
	"github.com/mkraev/metricflow/internal/config"
	"github.com/mkraev/metricflow/internal/domain"
	"github.com/mkraev/metricflow/internal/emitter"
	"github.com/mkraev/metricflow/internal/ports"
)

func main() {
	cfg, err := config.LoadAgentConfig(os.Args[1:], nil)
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	client, err := newBackend(cfg)
	if err != nil {
		log.Fatalf("failed to init backend: %v", err)
	}

	host, _ := os.Hostname()
	opts := []emitter.Option{
		emitter.WithPointFlushInterval(cfg.PointInterval),
		emitter.WithSummaryFlushInterval(cfg.SummaryInterval),
		emitter.WithBatchCapacity(cfg.BatchCapacity),
		emitter.WithFlushCallback(func(err error) {
			if err != nil {
				log.Printf("flush failed: %v", err)
			}
		}),
	}
	if cfg.IncludeTimestamps {
		opts = append(opts, emitter.WithTimestamps())
	}
	em := emitter.New(client, cfg.Namespace, collector.UnitCount,
		[]domain.Dimension{{Name: "host", Value: host}}, opts...)

	col := collector.New(em)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("agent started: backend=%s address=%s namespace=%s poll=%s point=%s summary=%s",
		cfg.Backend, cfg.Address, cfg.Namespace, cfg.PollInterval, cfg.PointInterval, cfg.SummaryInterval)

	col.Start(ctx, cfg.PollInterval)
	<-ctx.Done()

	col.Stop()
	em.Stop()
	log.Print("agent stopped")
}

func newBackend(cfg config.AgentConfig) (ports.BackendClient, error) {
	switch cfg.Backend {
	case "promwrite":
		return pwbackend.New(cfg.Address), nil
	default:
		return httpjson.New(cfg.Address, &http.Client{}, cfg.Key)
	}
}
