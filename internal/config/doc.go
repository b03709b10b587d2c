// Package config loads, normalizes, and validates subgen configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and applies environment overrides such as GEMINI_API_KEY and
// API_KEY. A missing API key is not a validation error: callers receive the
// placeholder key from GeminiAPIKey and the model request fails later with a
// generic generation error.
package config
