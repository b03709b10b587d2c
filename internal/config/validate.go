package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. A missing Gemini API key is
// deliberately not an error; see GeminiAPIKey.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateGemini() error {
	parsed, err := url.Parse(c.Gemini.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("gemini.base_url must be an absolute URL, got %q", c.Gemini.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("gemini.base_url must use http or https, got %q", parsed.Scheme)
	}
	if strings.ContainsAny(c.Gemini.Model, "/?# ") {
		return fmt.Errorf("gemini.model contains invalid characters: %q", c.Gemini.Model)
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > maxGeminiTemperature {
		return fmt.Errorf("gemini.temperature must be between 0 and %.1f", maxGeminiTemperature)
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	if c.Server.MaxUploadMB > maxServerUploadMB {
		return fmt.Errorf("server.max_upload_mb must be at most %d", maxServerUploadMB)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers must be set when events.enabled is true (or set %s)", eventsBrokersEnv)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
