// Package base holds configuration shared by the provider adapters.
package base

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/inspirepan/dispatch"
)

// LoadEnv loads environment variables from specified .env files.
// If no files are specified, it loads .env in the current directory and a
// missing file is not an error. Variables already set are kept.
func LoadEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && len(filenames) == 0 && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Config contains common configuration for all providers.
type Config struct {
	Model        string
	SystemPrompt string

	// Generation options
	MaxOutputTokens *int
	Temperature     *float64
}

// Option is a functional option for Config.
type Option func(*Config)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithSystemPrompt sets the host's system prompt. Protocol instructions are
// appended to it.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) { c.SystemPrompt = prompt }
}

// WithTemperature sets the temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = &t }
}

// WithMaxOutputTokens sets the max output tokens.
func WithMaxOutputTokens(n int) Option {
	return func(c *Config) { c.MaxOutputTokens = &n }
}

// NewConfig applies opts to an empty Config.
func NewConfig(opts ...Option) Config {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ApplyEnvDefaults applies environment variable defaults if config values are empty.
func ApplyEnvDefaults(cfg *Config, modelEnv string) {
	if cfg.Model == "" {
		cfg.Model = os.Getenv(modelEnv)
	}
}

// Request is the input of a provider adapter: everything needed to build
// one API request for the active protocol.
type Request struct {
	Config     Config
	Dispatcher dispatch.Dispatcher
	History    []dispatch.ConversationMessage
	Tools      []dispatch.ToolSpec
}

// SystemPrompt joins the configured prompt and the protocol instructions.
func (r Request) SystemPrompt() string {
	var parts []string
	if s := strings.TrimSpace(r.Config.SystemPrompt); s != "" {
		parts = append(parts, s)
	}
	if r.Dispatcher != nil {
		if s := r.Dispatcher.PromptInstructions(r.Tools); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Native reports whether history and tools go out in structured form.
func (r Request) Native() bool {
	return r.Dispatcher != nil && r.Dispatcher.ShouldSendToolSpecs()
}
