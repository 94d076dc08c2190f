package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/swaywsr/swaywsr/internal/config"
	"github.com/swaywsr/swaywsr/internal/engine"
	"github.com/swaywsr/swaywsr/internal/ipc"
	"github.com/swaywsr/swaywsr/internal/label"
	"github.com/swaywsr/swaywsr/internal/util"
)

func main() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".config", "swaywsr", "config.toml")

	cfgPath := flag.String("config", "", "path to TOML config (default: "+defaultConfig+")")
	logLevel := flag.String("log-level", "info", "log level (debug|info|warn|error)")
	dryRun := flag.Bool("dry-run", false, "log rename commands instead of dispatching them")
	// Option flags are read back through flag.Visit in applyFlags, so only
	// the ones consumed directly keep their bound values.
	flag.Bool("no-names", false, "show only icons, never window names")
	flag.Bool("no-icon-names", false, "show only the icon when one is available")
	flag.Bool("remove-duplicates", false, "remove duplicate window names from workspace labels")
	flag.Bool("focus-fix", false, "refocus a workspace before renaming it (floating-window workaround)")
	flag.String("display-property", "", "window property used when no alias matches (class|instance|name|app_id)")
	flag.String("split-at", "", "character separating the workspace number from window names")
	flag.Parse()

	logger := util.NewLogger(util.ParseLevel(*logLevel))

	cfg, path, err := loadConfig(*cfgPath, defaultConfig)
	if err != nil {
		exitErr(err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		exitErr(err)
	}
	compiled, err := label.Compile(cfg)
	if err != nil {
		exitErr(fmt.Errorf("compile aliases: %w", err))
	}

	conn, err := ipc.Connect()
	if err != nil {
		exitErr(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(conn, logger, cfg, compiled, *dryRun)
	reloader := newConfigReloader(path, logger, eng)

	reloadRequests := make(chan string, 1)
	if path != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			exitErr(fmt.Errorf("watch config: %w", err))
		}
		defer watcher.Close()
		target, err := filepath.Abs(path)
		if err != nil {
			exitErr(fmt.Errorf("resolve config path: %w", err))
		}
		target = filepath.Clean(target)
		if err := watcher.Add(filepath.Dir(target)); err != nil {
			exitErr(fmt.Errorf("watch config dir: %w", err))
		}
		if err := watcher.Add(target); err != nil {
			logger.Debugf("unable to watch config file directly: %v", err)
		}
		go watchConfig(logger, watcher, target, reloadRequests)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	errs := make(chan error, 1)
	go func() {
		errs <- eng.Run(ctx)
	}()

	for {
		select {
		case err := <-errs:
			if err != nil && !errors.Is(err, context.Canceled) {
				exitErr(err)
			}
			logger.Infof("stopped")
			return
		case reason := <-reloadRequests:
			if err := reloader.Reload(ctx, reason); err != nil {
				logger.Errorf("reload failed: %v", err)
			}
		case sig := <-sigs:
			switch sig {
			case syscall.SIGHUP:
				if err := reloader.Reload(ctx, "received SIGHUP"); err != nil {
					logger.Errorf("reload failed: %v", err)
				}
			case os.Interrupt, syscall.SIGTERM:
				logger.Infof("received %s, shutting down", sig)
				cancel()
			}
		}
	}
}

// loadConfig resolves the effective config file. An explicitly given path
// must load; the default path is optional and its absence means defaults.
// The returned path is empty when no file backs the configuration.
func loadConfig(explicit, fallback string) (*config.Config, string, error) {
	if explicit != "" {
		cfg, err := config.Load(explicit)
		return cfg, explicit, err
	}
	if _, err := os.Stat(fallback); err == nil {
		cfg, err := config.Load(fallback)
		return cfg, fallback, err
	}
	return config.Default(), "", nil
}

// applyFlags lets command line flags override the config file. Boolean flags
// only ever switch options on.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "no-names":
			cfg.Options.NoNames = true
		case "no-icon-names":
			cfg.Options.NoIconNames = true
		case "remove-duplicates":
			cfg.Options.RemoveDuplicates = true
		case "focus-fix":
			cfg.Options.FocusFix = true
		case "display-property":
			cfg.General.DisplayProperty = f.Value.String()
		case "split-at":
			cfg.General.SplitAt = f.Value.String()
		}
	})
}

func watchConfig(logger *util.Logger, watcher *fsnotify.Watcher, target string, reloadRequests chan<- string) {
	const debounceWindow = 250 * time.Millisecond
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					<-timerCh
				}
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			select {
			case reloadRequests <- "config file updated":
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("config watcher error: %v", err)
		}
	}
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
