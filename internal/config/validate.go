package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.Bind); err != nil {
		return fmt.Errorf("paths.bind %q is not a host:port address: %w", c.Paths.Bind, err)
	}
	if c.OCR.UpscaleFactor < 1 || c.OCR.UpscaleFactor > 8 {
		return fmt.Errorf("ocr.upscale_factor must be between 1 and 8, got %d", c.OCR.UpscaleFactor)
	}
	for _, lang := range c.OCR.Languages {
		if strings.TrimSpace(lang) == "" {
			return fmt.Errorf("ocr.languages must not contain empty entries")
		}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}
	return nil
}
