package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/llm"
	"github.com/alexanderramin/rfpilot/internal/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RFPILOT_LLM_API_KEY.
const EnvPrefix = "RFPILOT"

// Config is the full application configuration.
type Config struct {
	DB       DBConfig               `mapstructure:"db"`
	Storage  StorageConfig          `mapstructure:"storage"`
	Log      LogConfig              `mapstructure:"log"`
	Pipeline PipelineConfig         `mapstructure:"pipeline"`
	LLM      LLMConfig              `mapstructure:"llm"`
	Proposal ProposalConfig         `mapstructure:"proposal"`
	Agents   map[string]AgentConfig `mapstructure:"agents" validate:"dive"`
}

type DBConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite memory"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type PipelineConfig struct {
	Steps []string `mapstructure:"steps"`
}

// LLMConfig is the file/env shape of the LLM settings.
type LLMConfig struct {
	Provider      string `mapstructure:"provider" validate:"oneof=gemini ollama"`
	Endpoint      string `mapstructure:"endpoint" validate:"omitempty,url"`
	Model         string `mapstructure:"model" validate:"required"`
	FallbackModel string `mapstructure:"fallback_model"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutMs     int    `mapstructure:"timeout_ms" validate:"gt=0"`
	MaxRetries    int    `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	LogCalls      bool   `mapstructure:"log_calls"`
}

// ProposalConfig holds the company details printed on the closing slide.
type ProposalConfig struct {
	Company string `mapstructure:"company"`
	Contact string `mapstructure:"contact"`
}

// Dir returns the per-user configuration directory (~/.rfpilot).
// It's a variable to allow overriding in tests.
var Dir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rfpilot"), nil
}

func setDefaults(v *viper.Viper, dir string) {
	d := llm.DefaultConfig()
	v.SetDefault("db.path", filepath.Join(dir, "rfpilot.db"))
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("pipeline.steps", []string{})
	v.SetDefault("llm.provider", string(d.Provider))
	v.SetDefault("llm.endpoint", d.Endpoint)
	v.SetDefault("llm.model", d.Model)
	v.SetDefault("llm.fallback_model", d.FallbackModel)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout_ms", d.TimeoutMs)
	v.SetDefault("llm.max_retries", d.MaxRetries)
	v.SetDefault("llm.log_calls", d.LogCalls)
	v.SetDefault("proposal.company", "")
	v.SetDefault("proposal.contact", "")
}

// Load reads configuration with precedence env > file > defaults.
// path selects an explicit file; otherwise config.yaml in Dir() is used
// when it exists. fs defaults to the OS filesystem.
func Load(path string, fs afero.Fs) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	v := viper.New()
	if fs != nil {
		v.SetFs(fs)
	}
	setDefaults(v, dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Agents = mergeAgents(cfg.Agents)
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerEnvKey(llm.Provider(cfg.LLM.Provider))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// providerEnvKey falls back to the provider's conventional env vars.
func providerEnvKey(provider llm.Provider) string {
	if provider != llm.ProviderGemini {
		return ""
	}
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return ""
}

var validate = validator.New()

// Validate checks field constraints and that the pipeline and agent steps
// name real steps.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	for id, a := range c.Agents {
		if _, err := domain.ParseStep(a.Step); err != nil {
			return fmt.Errorf("invalid config: agent %s: %w", id, err)
		}
	}
	if _, err := c.StepPipeline(); err != nil {
		return fmt.Errorf("invalid config: pipeline.steps: %w", err)
	}
	return nil
}

// StepPipeline returns the configured step sequence, or the default one.
func (c *Config) StepPipeline() (workflow.Pipeline, error) {
	return workflow.ParsePipeline(c.Pipeline.Steps)
}

// LLMClientConfig returns the client configuration, starting from the llm package
// defaults so per-task tuning is kept.
func (c *Config) LLMClientConfig() llm.LLMConfig {
	out := llm.DefaultConfig()
	out.Provider = llm.Provider(c.LLM.Provider)
	out.Endpoint = c.LLM.Endpoint
	out.Model = c.LLM.Model
	out.FallbackModel = c.LLM.FallbackModel
	out.APIKey = c.LLM.APIKey
	out.TimeoutMs = c.LLM.TimeoutMs
	out.MaxRetries = c.LLM.MaxRetries
	out.LogCalls = c.LLM.LogCalls
	return out
}
