package config

const (
	defaultConfigPath        = "~/.config/subgen/config.toml"
	defaultOutputDir         = "~/subtitles"
	defaultDataDir           = "~/.local/share/subgen"
	defaultLogDir            = "~/.local/share/subgen/logs"
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel       = "gemini-2.5-flash"
	defaultGeminiTemperature = 0.2
	defaultServerBind        = "127.0.0.1:7490"
	defaultServerMaxUploadMB = 200
	defaultEventsTopic       = "subgen.blocks"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogMaxSizeMB      = 20
	defaultLogMaxBackups     = 5
	defaultLogMaxAgeDays     = 30
	maxGeminiTemperature     = 2.0
	maxServerUploadMB        = 2048
	geminiAPIKeyEnv          = "GEMINI_API_KEY"
	geminiAPIKeyFallbackEnv  = "API_KEY"
	geminiModelEnv           = "GEMINI_MODEL"
	eventsBrokersEnv         = "SUBGEN_KAFKA_BROKERS"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
		},
		Gemini: Gemini{
			BaseURL:     defaultGeminiBaseURL,
			Model:       defaultGeminiModel,
			Temperature: defaultGeminiTemperature,
		},
		Server: Server{
			Bind:        defaultServerBind,
			MaxUploadMB: defaultServerMaxUploadMB,
		},
		Events: Events{
			Topic: defaultEventsTopic,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
