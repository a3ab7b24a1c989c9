package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional YAML config file and from
// environment variables. Environment variables use the LESSONS_ prefix
// with underscores for nesting (e.g. LESSONS_DATABASE_URL) and take
// precedence over file values. Returns a populated Config or an error
// if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("LESSONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Keys without defaults must still be registered so AutomaticEnv
	// can populate them during Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("transcribe.initial_prompt", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("worker.poll_interval_seconds", 5)
	v.SetDefault("storage.audio_dir", "data/audio")

	v.SetDefault("llm.provider", "openai")

	v.SetDefault("correction.model", "gpt-4o")
	v.SetDefault("correction.temperature", 0.3)
	v.SetDefault(
		"correction.prompt",
		"Please correct the following transcript, fixing any errors while maintaining the original meaning and style.",
	)

	v.SetDefault("edition.model", "gpt-4o")
	v.SetDefault("edition.temperature", 0.3)
	v.SetDefault(
		"edition.prompt",
		"Please rewrite the following transcript in a clear, written style while maintaining the original meaning and flow. Include timing information and cite any sources mentioned.",
	)

	v.SetDefault("summary.model", "gpt-4o")
	v.SetDefault("summary.temperature", 0.7)
	v.SetDefault("summary.max_length", 300)
	v.SetDefault("summary.prompts", []map[string]any{
		{
			"name": "Default",
			"text": "Please provide a concise summary of the following lesson transcript.",
		},
	})

	v.SetDefault("transcribe.language", "fr")
	v.SetDefault("transcribe.beam_size", 5)
	v.SetDefault("transcribe.vad_filter", true)

	v.SetDefault("whisper.binary", "whisperx")
	v.SetDefault("whisper.model_size", "large-v3")
	v.SetDefault("whisper.device", "cuda")
	v.SetDefault("whisper.compute_type", "int8")
}
