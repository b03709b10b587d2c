package gemini

import "subgen/internal/config"

// ConfigFrom maps the [gemini] config section onto client settings. A missing
// key yields the placeholder so requests fail at the API rather than locally.
func ConfigFrom(cfg *config.Config) Config {
	key, _ := cfg.GeminiAPIKey()
	return Config{
		APIKey:         key,
		BaseURL:        cfg.Gemini.BaseURL,
		Model:          cfg.Gemini.Model,
		Temperature:    cfg.Gemini.Temperature,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	}
}
