package config

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			APIKey:         "${OPENAI_API_KEY}",
			TextModel:      "gpt-4o-mini",
			ImageModel:     "gpt-image-1",
			ImageSize:      "1024x1024",
			RateLimit:      2.0,
			MaxRetries:     3,
			TimeoutSeconds: 120,
		},
		Pipeline: PipelineConfig{
			RunTimeoutSeconds: 1800,
			ScriptPrefixLimit: 1000,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}
