package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Azure      AzureConfig      `mapstructure:"azure"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	Assistants AssistantsConfig `mapstructure:"assistants"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Verdicts   VerdictsConfig   `mapstructure:"verdicts"`
}

type OpenAIConfig struct {
	APIKey           string `mapstructure:"api_key"`
	BaseURL          string `mapstructure:"base_url" validate:"required,url"`
	Organization     string `mapstructure:"organization"`
	Model            string `mapstructure:"model" validate:"required"`
	EmbeddingModel   string `mapstructure:"embedding_model" validate:"required"`
	MaxRetryAttempts uint   `mapstructure:"max_retry_attempts" validate:"lte=10"`
}

// AzureConfig is used instead of OpenAIConfig when APIKey is set.
type AzureConfig struct {
	APIKey                   string `mapstructure:"api_key"`
	APIVersion               string `mapstructure:"api_version" validate:"required_with=APIKey"`
	InstanceName             string `mapstructure:"instance_name" validate:"required_with=APIKey"`
	DeploymentName           string `mapstructure:"deployment_name"`
	EmbeddingsDeploymentName string `mapstructure:"embeddings_deployment_name" validate:"required_with=APIKey"`
}

type SimilarityConfig struct {
	DefaultRank string `mapstructure:"default_rank" validate:"oneof=very_high high medium low"`
}

type AssistantsConfig struct {
	PollIntervalMs int `mapstructure:"poll_interval_ms" validate:"gt=0"`
	MaxPollCount   int `mapstructure:"max_poll_count" validate:"gt=0"`
}

type CacheConfig struct {
	EmbeddingsDirectory string `mapstructure:"embeddings_directory"`
}

type VerdictsConfig struct {
	LogFile  string         `mapstructure:"log_file" validate:"omitempty,parentdir"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig holds MySQL connection settings. An empty Host disables the SQL recorder.
type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port" validate:"gte=0,lte=65535"`
	Database        string            `mapstructure:"database" validate:"required_with=Host"`
	Username        string            `mapstructure:"username" validate:"required_with=Host"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime"`
}

// UsesAzure reports whether requests should go to Azure OpenAI.
func (cfg *Config) UsesAzure() bool {
	return cfg.Azure.APIKey != ""
}

// HasCredentials reports whether either provider can be called.
func (cfg *Config) HasCredentials() bool {
	return cfg.OpenAI.APIKey != "" || cfg.UsesAzure()
}

func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("llmassert")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/llmassert")
	}

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	// gpt-3.5-turbo does an awful job at true/false comprehension
	v.SetDefault("openai.model", "gpt-4-turbo")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.max_retry_attempts", 3)
	v.SetDefault("similarity.default_rank", "high")
	v.SetDefault("assistants.poll_interval_ms", 1000)
	v.SetDefault("assistants.max_poll_count", 60)
	v.SetDefault("verdicts.database.port", 3306)

	// Secrets and provider endpoints are bound to environment variables only
	envBindings := map[string]string{
		"openai.api_key":                   "OPENAI_API_KEY",
		"openai.base_url":                  "OPENAI_BASE_URL",
		"openai.organization":              "OPENAI_ORG_ID",
		"openai.model":                     "OPENAI_MODEL",
		"openai.embedding_model":           "OPENAI_EMBEDDINGS_MODEL",
		"azure.api_key":                    "AZURE_OPENAI_API_KEY",
		"azure.api_version":                "AZURE_OPENAI_API_VERSION",
		"azure.instance_name":              "AZURE_OPENAI_API_INSTANCE_NAME",
		"azure.deployment_name":            "AZURE_OPENAI_API_DEPLOYMENT_NAME",
		"azure.embeddings_deployment_name": "AZURE_OPENAI_API_EMBEDDINGS_DEPLOYMENT_NAME",
		"verdicts.database.password":       "LLMASSERT_DATABASE_PASSWORD",
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	return &cfg, nil
}

// Validate checks the loaded configuration and reports every invalid field.
func (cfg *Config) Validate() error {
	validate, trans, err := newValidator()
	if err != nil {
		return fmt.Errorf("newValidator() > %w", err)
	}

	err = validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate.Struct() > %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldErr.Translate(trans))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
