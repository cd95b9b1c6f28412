package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research pipeline
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// Provider names accepted by llm.provider.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// LLMConfig selects the language-model provider and the features that may use it.
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"` // groq, openai, none; empty = detect from keys
	GroqAPIKey   string        `mapstructure:"groq_api_key"`
	OpenAIAPIKey string        `mapstructure:"openai_api_key"`
	GroqModel    string        `mapstructure:"groq_model"`
	OpenAIModel  string        `mapstructure:"openai_model"`
	BaseURL      string        `mapstructure:"base_url"`
	Temperature  float64       `mapstructure:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	MaxRetries   int           `mapstructure:"max_retries"`
	Timeout      time.Duration `mapstructure:"timeout"`

	// Summarization and Writing only take effect when a provider is available.
	Summarization bool `mapstructure:"summarization"`
	Writing       bool `mapstructure:"writing"`
}

// Normalize resolves the provider from the configured API keys when it was not
// set explicitly.
func (c LLMConfig) Normalize() LLMConfig {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderNone:
	default:
		switch {
		case c.GroqAPIKey != "":
			c.Provider = ProviderGroq
		case c.OpenAIAPIKey != "":
			c.Provider = ProviderOpenAI
		default:
			c.Provider = ProviderNone
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// Available reports whether the selected provider has credentials.
func (c LLMConfig) Available() bool {
	switch c.Provider {
	case ProviderGroq:
		return c.GroqAPIKey != ""
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	}
	return false
}

// SummarizationEnabled reports whether the summarizer should attempt the model path.
func (c LLMConfig) SummarizationEnabled() bool { return c.Summarization && c.Available() }

// WritingEnabled reports whether the writer should attempt the model path.
func (c LLMConfig) WritingEnabled() bool { return c.Writing && c.Available() }

// Model returns the model name for the selected provider.
func (c LLMConfig) Model() string {
	if c.Provider == ProviderGroq {
		return c.GroqModel
	}
	return c.OpenAIModel
}

// APIKey returns the credential for the selected provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == ProviderGroq {
		return c.GroqAPIKey
	}
	return c.OpenAIAPIKey
}

// Search provider names.
const (
	SearchDuckDuckGo = "duckduckgo"
	SearchBrave      = "brave"
	SearchSerper     = "serper"
	SearchNewsAPI    = "newsapi"
)

// SearchConfig contains web and news search settings
type SearchConfig struct {
	Provider        string        `mapstructure:"provider"`
	NewsProvider    string        `mapstructure:"news_provider"`
	BraveAPIKey     string        `mapstructure:"brave_api_key"`
	SerperAPIKey    string        `mapstructure:"serper_api_key"`
	NewsAPIKey      string        `mapstructure:"newsapi_key"`
	NewsAPIEndpoint string        `mapstructure:"newsapi_endpoint"`
	MaxResults      int           `mapstructure:"max_results"`
	Pacing          time.Duration `mapstructure:"pacing"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Retries         int           `mapstructure:"retries"`
	Backoff         time.Duration `mapstructure:"backoff"`
	MultiSource     bool          `mapstructure:"multi_source"`
	IncludeNews     bool          `mapstructure:"include_news"`

	Domains DomainPolicyConfig `mapstructure:"domains"`
}

// Normalize applies defaults for unset search values.
func (c SearchConfig) Normalize() SearchConfig {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = SearchDuckDuckGo
	}
	c.NewsProvider = strings.ToLower(strings.TrimSpace(c.NewsProvider))
	if c.NewsProvider == "" {
		c.NewsProvider = c.Provider
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	if c.Pacing < 0 {
		c.Pacing = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	c.Domains = c.Domains.Normalize()
	return c
}

// Validate checks that keyed providers have their keys.
func (c SearchConfig) Validate() error {
	check := func(field, name string) error {
		switch name {
		case SearchDuckDuckGo:
			return nil
		case SearchBrave:
			if c.BraveAPIKey == "" {
				return fmt.Errorf("search.%s=brave requires search.brave_api_key", field)
			}
		case SearchSerper:
			if c.SerperAPIKey == "" {
				return fmt.Errorf("search.%s=serper requires search.serper_api_key", field)
			}
		case SearchNewsAPI:
			if field == "provider" {
				return fmt.Errorf("search.provider cannot be newsapi (news only)")
			}
			if c.NewsAPIKey == "" {
				return fmt.Errorf("search.news_provider=newsapi requires search.newsapi_key")
			}
		default:
			return fmt.Errorf("search.%s: unsupported provider %q", field, name)
		}
		return nil
	}
	if err := check("provider", c.Provider); err != nil {
		return err
	}
	if err := check("news_provider", c.NewsProvider); err != nil {
		return err
	}
	return c.Domains.Validate()
}

// Storage backends for the memory documents.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Backend      string         `mapstructure:"backend"`
	DataDir      string         `mapstructure:"data_dir"`
	EpisodicFile string         `mapstructure:"episodic_file"`
	SemanticFile string         `mapstructure:"semantic_file"`
	ReportsDir   string         `mapstructure:"reports_dir"`
	Redis        RedisConfig    `mapstructure:"redis"`
	Postgres     PostgresConfig `mapstructure:"postgres"`
}

// EpisodicPath is the on-disk location of the episodic document.
func (s StorageConfig) EpisodicPath() string { return filepath.Join(s.DataDir, s.EpisodicFile) }

// SemanticPath is the on-disk location of the semantic document.
func (s StorageConfig) SemanticPath() string { return filepath.Join(s.DataDir, s.SemanticFile) }

// Validate checks the selected backend has what it needs.
func (s StorageConfig) Validate() error {
	switch s.Backend {
	case BackendFile:
		if strings.TrimSpace(s.DataDir) == "" {
			return fmt.Errorf("storage.data_dir required")
		}
	case BackendRedis:
		return s.Redis.Validate()
	case BackendPostgres:
		return s.Postgres.Validate()
	default:
		return fmt.Errorf("storage.backend: unsupported backend %q", s.Backend)
	}
	return nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host      string        `mapstructure:"host"`
	Port      string        `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Timeout   time.Duration `mapstructure:"timeout"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a connection string from the discrete fields unless URL is set.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// MemoryConfig controls what the orchestrator writes into semantic memory.
type MemoryConfig struct {
	FindingsToStore int `mapstructure:"findings_to_store"`
	SearchTopK      int `mapstructure:"search_top_k"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`

	// OTLPEndpoint enables span export over gRPC when set (host:port).
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Status summarizes which optional features are active.
func (c *Config) Status() map[string]interface{} {
	return map[string]interface{}{
		"llm_provider":  c.LLM.Provider,
		"llm_available": c.LLM.Available(),
		"model":         c.LLM.Model(),
		"search":        c.Search.Provider,
		"news":          c.Search.NewsProvider,
		"backend":       c.Storage.Backend,
		"features": map[string]bool{
			"llm_summarization": c.LLM.SummarizationEnabled(),
			"llm_writing":       c.LLM.WritingEnabled(),
			"multi_source":      c.Search.MultiSource,
			"telemetry":         c.Telemetry.Enabled,
			"tracing":           c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint != "",
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.default_timeout", 2*time.Minute)
	v.SetDefault("server.address", ":8080")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.groq_model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.openai_model", "gpt-4")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.summarization", true)
	v.SetDefault("llm.writing", true)

	v.SetDefault("search.provider", SearchDuckDuckGo)
	v.SetDefault("search.news_provider", "")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.pacing", 500*time.Millisecond)
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.retries", 2)
	v.SetDefault("search.backoff", 300*time.Millisecond)
	v.SetDefault("search.multi_source", false)
	v.SetDefault("search.include_news", true)

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.data_dir", "storage")
	v.SetDefault("storage.episodic_file", "knowledge_graph.json")
	v.SetDefault("storage.semantic_file", filepath.Join("vector_store", "vectors.json"))
	v.SetDefault("storage.reports_dir", filepath.Join("storage", "reports"))
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("storage.redis.key_prefix", "researcher:")
	v.SetDefault("storage.postgres.timeout", 5*time.Second)

	v.SetDefault("memory.findings_to_store", 5)
	v.SetDefault("memory.search_top_k", 5)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.namespace", "researcher")
	v.SetDefault("telemetry.otlp_endpoint", "")
}

// conventional provider variables are honoured alongside RESEARCHER_*.
var envAliases = map[string][]string{
	"llm.provider":            {"RESEARCHER_LLM_PROVIDER", "LLM_PROVIDER"},
	"llm.groq_api_key":        {"RESEARCHER_LLM_GROQ_API_KEY", "GROQ_API_KEY"},
	"llm.openai_api_key":      {"RESEARCHER_LLM_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"llm.groq_model":          {"RESEARCHER_LLM_GROQ_MODEL", "GROQ_MODEL"},
	"llm.openai_model":        {"RESEARCHER_LLM_OPENAI_MODEL", "OPENAI_MODEL"},
	"search.brave_api_key":    {"RESEARCHER_SEARCH_BRAVE_API_KEY", "BRAVE_API_KEY"},
	"search.serper_api_key":   {"RESEARCHER_SEARCH_SERPER_API_KEY", "SERPER_API_KEY"},
	"search.newsapi_key":      {"RESEARCHER_SEARCH_NEWSAPI_KEY", "NEWSAPI_KEY"},
	"telemetry.otlp_endpoint": {"RESEARCHER_TELEMETRY_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// Load reads configuration from path (or the default search paths when empty),
// the environment and built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("RESEARCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM = cfg.LLM.Normalize()
	cfg.Search = cfg.Search.Normalize()
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))

	if err := cfg.Search.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.LLM = cfg.LLM.Normalize()
	cfg.Search = cfg.Search.Normalize()
	return &cfg
}
