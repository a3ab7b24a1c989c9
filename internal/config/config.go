package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Worker     WorkerConfig     `mapstructure:"worker" validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Correction CorrectionConfig `mapstructure:"correction" validate:"required"`
	Edition    EditionConfig    `mapstructure:"edition" validate:"required"`
	Summary    SummaryConfig    `mapstructure:"summary" validate:"required"`
	Transcribe TranscribeConfig `mapstructure:"transcribe"`
	Whisper    WhisperConfig    `mapstructure:"whisper"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// WorkerConfig controls the background task dispatcher.
type WorkerConfig struct {
	// PollIntervalSeconds is how often the dispatcher checks the task
	// store for pending work.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`
}

// StorageConfig locates files managed outside the database.
type StorageConfig struct {
	// AudioDir is the directory holding lesson audio files, named
	// "{lesson_id}_{filename}".
	AudioDir string `mapstructure:"audio_dir" validate:"required"`
}

// LLMConfig contains the provider-level LLM settings shared by all
// text-generation tasks.
type LLMConfig struct {
	// Provider selects the LLM backend.
	Provider string `mapstructure:"provider" validate:"required,oneof=openai anthropic gemini"`
	APIKey   string `mapstructure:"api_key" validate:"required"`
	// BaseURL overrides the provider endpoint (OpenAI-compatible
	// providers only). Empty means the provider default.
	BaseURL string `mapstructure:"base_url"`
}

// CorrectionConfig holds the per-task settings for transcript correction.
type CorrectionConfig struct {
	Model       string  `mapstructure:"model" validate:"required"`
	Prompt      string  `mapstructure:"prompt" validate:"required"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// EditionConfig holds the per-task settings for transcript edition,
// the rewrite of a transcript in written style with source citations.
type EditionConfig struct {
	Model       string  `mapstructure:"model" validate:"required"`
	Prompt      string  `mapstructure:"prompt" validate:"required"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// SummaryPrompt is one named prompt selectable by task parameters.
type SummaryPrompt struct {
	Name string `mapstructure:"name" validate:"required"`
	Text string `mapstructure:"text" validate:"required"`
}

// SummaryConfig holds the per-task settings for summary generation.
type SummaryConfig struct {
	Model       string          `mapstructure:"model" validate:"required"`
	Temperature float64         `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxLength   int             `mapstructure:"max_length" validate:"gte=0"`
	Prompts     []SummaryPrompt `mapstructure:"prompts" validate:"min=1,dive"`
}

// TranscribeConfig holds the transcription request parameters.
type TranscribeConfig struct {
	Language      string `mapstructure:"language"`
	BeamSize      int    `mapstructure:"beam_size"`
	VADFilter     bool   `mapstructure:"vad_filter"`
	InitialPrompt string `mapstructure:"initial_prompt"`
}

// WhisperConfig locates and sizes the local whisper engine.
type WhisperConfig struct {
	Binary      string `mapstructure:"binary"`
	ModelSize   string `mapstructure:"model_size"`
	Device      string `mapstructure:"device"`
	ComputeType string `mapstructure:"compute_type"`
}

// PromptByName returns the named summary prompt, falling back to the
// first configured prompt when name is empty or unknown.
func (c SummaryConfig) PromptByName(name string) (SummaryPrompt, bool) {
	if name != "" {
		for _, p := range c.Prompts {
			if p.Name == name {
				return p, true
			}
		}
	}
	if len(c.Prompts) > 0 {
		return c.Prompts[0], true
	}
	return SummaryPrompt{}, false
}
