package cmd

import (
	"io"

	"github.com/rohmanhakim/nps-explorer/internal/cachestore"
	"github.com/rohmanhakim/nps-explorer/internal/config"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/pipeline"
)

// app holds what every command needs: the log sink, the loaded cache
// store and the pipeline built around it.
type app struct {
	cfg      config.Config
	sink     *metadata.Recorder
	store    *cachestore.Store
	pipeline *pipeline.Pipeline
}

func newApp(cfg config.Config, logOutput io.Writer) *app {
	sink := metadata.NewRecorder(logOutput, cfg.LogLevel())
	store := cachestore.Load(cfg.CacheFile(), sink)
	return &app{
		cfg:      cfg,
		sink:     sink,
		store:    store,
		pipeline: pipeline.NewPipeline(cfg, store, sink),
	}
}
