package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"asmref/internal/config"
	"asmref/internal/logging"
	"asmref/internal/refcache"
)

// errSilentFailure signals a non-zero exit whose cause was already printed.
var errSilentFailure = errors.New("command failed")

type globalFlags struct {
	config         string
	paths          []string
	frameworkPaths []string
	workers        int
	logLevel       string
}

type commandContext struct {
	flags *globalFlags

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	logPath    string
	sessionID  string
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.ApplyOverrides(c.flags.paths, c.flags.frameworkPaths, c.flags.workers, c.flags.logLevel); err != nil {
			c.configErr = fmt.Errorf("apply flags: %w", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

// ensureLogger builds the session logger and prunes expired session logs.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		session := logging.NewSession(uuid.NewString())
		c.sessionID = session.ID
		logger, logPath, err := logging.NewFromConfig(cfg, session)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
		c.logPath = logPath
		logging.PruneSessionLogs(logger, cfg.Logging.Dir, cfg.Logging.RetentionDays, logPath)
	})
	return c.logger, c.loggerErr
}

// session returns the command context and the session logger.
func (c *commandContext) session(cmd *cobra.Command) (context.Context, *slog.Logger, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, logger, nil
}

// buildCache indexes the configured search paths for this invocation.
func (c *commandContext) buildCache(cmd *cobra.Command) (*refcache.Cache, error) {
	ctx, logger, err := c.session(cmd)
	if err != nil {
		return nil, err
	}
	cfg := c.config
	if len(cfg.Search.Paths) == 0 {
		return nil, errors.New("no search paths configured; set search.paths or pass --path")
	}
	cache, err := refcache.New(ctx, cfg.Search.Paths, cfg.Search.FrameworkPaths,
		refcache.WithLogger(logger),
		refcache.WithWorkers(cfg.WorkerCount()),
		refcache.WithExtensions(cfg.Search.Extensions...),
	)
	if err != nil {
		return nil, fmt.Errorf("index assemblies: %w", err)
	}
	return cache, nil
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
