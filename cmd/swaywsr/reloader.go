package main

import (
	"context"
	"fmt"

	"github.com/swaywsr/swaywsr/internal/config"
	"github.com/swaywsr/swaywsr/internal/engine"
	"github.com/swaywsr/swaywsr/internal/label"
	"github.com/swaywsr/swaywsr/internal/util"
)

// configReloader reloads the config file and swaps the result into the
// engine. A failed reload leaves the previous configuration in place.
type configReloader struct {
	path   string
	logger *util.Logger
	engine *engine.Engine
}

func newConfigReloader(path string, logger *util.Logger, eng *engine.Engine) *configReloader {
	return &configReloader{path: path, logger: logger, engine: eng}
}

func (r *configReloader) Reload(ctx context.Context, reason string) error {
	if r.path == "" {
		r.logger.Warnf("%s, but no config file is in use", reason)
		return nil
	}
	r.logger.Infof("%s, reloading config", reason)
	cfg, err := config.Load(r.path)
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	compiled, err := label.Compile(cfg)
	if err != nil {
		return fmt.Errorf("compile aliases: %w", err)
	}
	r.engine.UpdateConfig(cfg, compiled)
	if err := r.engine.Sync(ctx, false); err != nil {
		return fmt.Errorf("sync after reload: %w", err)
	}
	r.logger.Infof("config reloaded")
	return nil
}
