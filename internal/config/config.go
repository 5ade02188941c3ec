package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderGroq        = "groq"
	ProviderOllama      = "ollama"

	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"

	// HuggingFaceTokenEnv authorizes the embedding host.
	HuggingFaceTokenEnv = "HUGGINGFACE_TOKEN"
	// GroqAPIKeyEnv authorizes the chat-completion host.
	GroqAPIKeyEnv = "GROQ_API_KEY"

	groqBaseURL = "https://api.groq.com/openai/v1"
)

// ErrMissingSecret is returned when a provider needs a credential that is not set.
var ErrMissingSecret = errors.New("missing secret")

type Config struct {
	Server   ServerConfig `yaml:"server"`
	EmbedLLM LLMConfig    `yaml:"embed_llm"`
	ChatLLM  LLMConfig    `yaml:"chat_llm"`
	RAG      RAGConfig    `yaml:"rag"`
	Memory   MemoryConfig `yaml:"memory"`
	Output   OutputConfig `yaml:"output"`
	Log      LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LLMConfig describes one hosted model. Key is never read from the YAML file,
// only from the environment variable named by KeyEnv.
type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	KeyEnv       string        `yaml:"key_env"`
	Key          string        `yaml:"-" json:"-"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

type RAGConfig struct {
	MaxPages     int      `yaml:"max_pages"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	MaxChunks    int      `yaml:"max_chunks"`
	Separators   []string `yaml:"separators"`
	TopK         int      `yaml:"top_k"`
}

type MemoryConfig struct {
	MaxTokens  int           `yaml:"max_tokens"`
	Sessions   bool          `yaml:"sessions"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type OutputConfig struct {
	Dir        string   `yaml:"dir"`
	Formats    []string `yaml:"formats"`
	FontSize   float64  `yaml:"font_size"`
	LineHeight float64  `yaml:"line_height"`
	Margin     float64  `yaml:"margin"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		EmbedLLM: LLMConfig{
			Provider:     ProviderHuggingFace,
			Model:        "sentence-transformers/all-mpnet-base-v2",
			KeyEnv:       HuggingFaceTokenEnv,
			Timeout:      30 * time.Second,
			RetryBackoff: time.Second,
		},
		ChatLLM: LLMConfig{
			Provider:    ProviderGroq,
			BaseURL:     groqBaseURL,
			Model:       "llama3-8b-8192",
			KeyEnv:      GroqAPIKeyEnv,
			Temperature: 0.5,
			Timeout:     60 * time.Second,
		},
		RAG: RAGConfig{
			MaxPages:     3,
			ChunkSize:    300,
			ChunkOverlap: 30,
			MaxChunks:    5,
			Separators:   []string{"\n", " "},
			TopK:         4,
		},
		Memory: MemoryConfig{
			MaxTokens:  2000,
			Sessions:   true,
			SessionTTL: 30 * time.Minute,
		},
		Output: OutputConfig{
			Dir:        os.TempDir(),
			Formats:    []string{FormatPDF},
			FontSize:   12,
			LineHeight: 10,
			Margin:     10,
		},
		Log: LogConfig{
			Level:  "debug",
			Pretty: true,
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults, then resolves
// secrets with lookupEnv. An empty path skips the file. The returned config
// is validated.
func LoadConfig(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	cfg.EmbedLLM.resolveKey(lookupEnv)
	cfg.ChatLLM.resolveKey(lookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *LLMConfig) resolveKey(lookupEnv func(string) (string, bool)) {
	if c.KeyEnv == "" {
		return
	}
	if v, ok := lookupEnv(c.KeyEnv); ok {
		c.Key = v
	}
}

// NeedsKey reports whether the provider authenticates with a secret.
func (c *LLMConfig) NeedsKey() bool {
	return c.Provider != ProviderOllama
}

// Validate checks that every value a request depends on is usable.
func (c *Config) Validate() error {
	if err := c.EmbedLLM.validate("embed_llm", ProviderHuggingFace, ProviderOpenAI, ProviderOllama); err != nil {
		return err
	}
	if err := c.ChatLLM.validate("chat_llm", ProviderGroq, ProviderOpenAI, ProviderOllama); err != nil {
		return err
	}

	r := c.RAG
	switch {
	case r.MaxPages <= 0:
		return fmt.Errorf("rag.max_pages must be positive, got %d", r.MaxPages)
	case r.ChunkSize <= 0:
		return fmt.Errorf("rag.chunk_size must be positive, got %d", r.ChunkSize)
	case r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize:
		return fmt.Errorf("rag.chunk_overlap must be in [0, %d), got %d", r.ChunkSize, r.ChunkOverlap)
	case r.MaxChunks < 0:
		return fmt.Errorf("rag.max_chunks must not be negative, got %d", r.MaxChunks)
	case r.TopK <= 0:
		return fmt.Errorf("rag.top_k must be positive, got %d", r.TopK)
	case len(r.Separators) == 0:
		return errors.New("rag.separators must not be empty")
	}

	if c.Memory.MaxTokens <= 0 {
		return fmt.Errorf("memory.max_tokens must be positive, got %d", c.Memory.MaxTokens)
	}

	if !slices.Contains(c.Output.Formats, FormatPDF) {
		return errors.New("output.formats must include pdf")
	}
	for _, f := range c.Output.Formats {
		if f != FormatPDF && f != FormatXLSX {
			return fmt.Errorf("unsupported output format: %s", f)
		}
	}
	if c.Output.FontSize <= 0 || c.Output.LineHeight <= 0 || c.Output.Margin < 0 {
		return errors.New("output font_size and line_height must be positive, margin must not be negative")
	}
	return nil
}

func (c *LLMConfig) validate(section string, providers ...string) error {
	if !slices.Contains(providers, c.Provider) {
		return fmt.Errorf("%s.provider %q is not one of %v", section, c.Provider, providers)
	}
	if c.Model == "" {
		return fmt.Errorf("%s.model is required", section)
	}
	if c.NeedsKey() && c.Key == "" {
		return fmt.Errorf("%w: %s must be set for %s provider %s", ErrMissingSecret, c.KeyEnv, section, c.Provider)
	}
	if c.Timeout < 0 || c.RetryBackoff < 0 {
		return fmt.Errorf("%s timeout and retry_backoff must not be negative", section)
	}
	return nil
}
