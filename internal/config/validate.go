package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateIndex(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSearch() error {
	for _, ext := range c.Search.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("search.extensions: %q must start with a dot", ext)
		}
		if strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("search.extensions: %q must not contain path separators", ext)
		}
	}
	return nil
}

func (c *Config) validateIndex() error {
	if c.Index.Workers < 0 {
		return errors.New("index.workers must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
