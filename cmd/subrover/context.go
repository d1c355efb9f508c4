package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"subrover/internal/classify"
	"subrover/internal/config"
	"subrover/internal/history"
	"subrover/internal/logging"
	"subrover/internal/scan"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	})
	return c.logger, c.loggerErr
}

// newScanner assembles the classifier and scanner from configuration.
func (c *commandContext) newScanner(overwrite bool) (*scan.Scanner, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	var prober classify.Prober
	if !cfg.Subtitles.IgnoreEmbedded {
		timeout := time.Duration(cfg.Downloads.EmbeddedProbeLimit) * time.Second
		prober = classify.NewFFprobeProber(cfg.FFprobeBinary(), timeout)
	}
	classifier := classify.New(classify.Options{
		Prober:         prober,
		IgnoreEmbedded: cfg.Subtitles.IgnoreEmbedded,
	})
	scanner := scan.New(classifier, scan.Options{
		Languages:         cfg.Subtitles.Languages,
		IgnoreExtraFolder: cfg.Subtitles.IgnoreExtraFolder,
		OverwriteExisting: overwrite || cfg.Subtitles.OverwriteExisting,
		Logger:            logger,
	})
	return scanner, cfg, nil
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// resolveRoot picks the scan root from the positional argument or config.
func resolveRoot(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return config.ExpandPath(args[0])
	}
	if strings.TrimSpace(cfg.Paths.RootPath) != "" {
		return cfg.Paths.RootPath, nil
	}
	return "", fmt.Errorf("no library root: pass a directory argument or set paths.root_path")
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
