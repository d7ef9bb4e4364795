package cmd

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/akila/convert-api/config"
	"github.com/akila/convert-api/converters"
	"github.com/akila/convert-api/models"
	"github.com/akila/convert-api/workers"
)

// engine is the conversion machinery shared by serve and convert.
type engine struct {
	pool       *workers.WorkerPool
	office     *converters.LibreOffice
	dispatcher *converters.Dispatcher
}

func newEngine(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *engine {
	pool := workers.NewWorkerPool(cfg.OfficeWorkers)
	pool.Start(ctx)
	office := converters.NewLibreOffice(cfg.SofficePath, cfg.Timeout(), pool, logger)
	return &engine{
		pool:       pool,
		office:     office,
		dispatcher: converters.NewDispatcher(models.DefaultRegistry(), office, logger),
	}
}

func (e *engine) Close() {
	e.pool.Stop()
}
