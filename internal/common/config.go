package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Notion      NotionConfig    `toml:"notion"`
	Workspace   WorkspaceConfig `toml:"workspace"`
	LLM         LLMConfig       `toml:"llm"`
	OpenAI      OpenAIConfig    `toml:"openai"`
	Claude      ClaudeConfig    `toml:"claude"`
	Search      SearchConfig    `toml:"search"`
	Workflow    WorkflowConfig  `toml:"workflow"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration for the run ledger
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// NotionConfig contains connection settings for the structured database service
type NotionConfig struct {
	Token          string        `toml:"token" validate:"required"` // Workspace integration token
	BaseURL        string        `toml:"base_url"`                  // Service base URL
	Version        string        `toml:"version"`                   // Service API version header
	RateLimit      string        `toml:"rate_limit"`                // Minimum spacing between outbound calls, e.g. "500ms"
	RequestTimeout string        `toml:"request_timeout"`           // HTTP request timeout, e.g. "30s"
}

// WorkspaceConfig names the databases, properties and status values of the
// curated workspace. Defaults match a Chinese-language workspace; every name
// is overridable for workspaces with a different schema.
type WorkspaceConfig struct {
	ArticlesDatabaseID string `toml:"articles_database_id"`
	AuthorsDatabaseID  string `toml:"authors_database_id"`
	FieldsDatabaseID   string `toml:"fields_database_id"`

	TemplateTitle string `toml:"template_title"` // Template page title excluded from article listings

	TitleProperty       string `toml:"title_property"`        // Article title
	AuthorProperty      string `toml:"author_property"`       // Article author relation
	StatusProperty      string `toml:"status_property"`       // Article status
	CategoryProperty    string `toml:"category_property"`     // Article category relation
	TextProperty        string `toml:"text_property"`         // Article free-text property (batch updates)
	NameProperty        string `toml:"name_property"`         // Author canonical name (title)
	DescriptionProperty string `toml:"description_property"`  // Author description
	EnglishNameProperty string `toml:"english_name_property"` // Author English name
	ChineseNameProperty string `toml:"chinese_name_property"` // Author Chinese name
	FieldNameProperty   string `toml:"field_name_property"`   // Taxonomy category name (title)
	FieldReasonProperty string `toml:"field_reason_property"` // Taxonomy rationale

	StatusNotStarted  string `toml:"status_not_started"`
	StatusInProgress  string `toml:"status_in_progress"`
	StatusInfoMissing string `toml:"status_info_missing"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderOpenAI uses an OpenAI-compatible chat completion endpoint
	LLMProviderOpenAI LLMProvider = "openai"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "openai" or "claude" (default: "openai")
	DumpDir         string      `toml:"dump_dir"`         // Directory for malformed-response and audit dumps
}

// OpenAIConfig contains settings for an OpenAI-compatible completion endpoint
// (a hosted service or a local server exposing the same surface).
type OpenAIConfig struct {
	BaseURL     string  `toml:"base_url"` // Endpoint base URL, e.g. "https://api.deepseek.com"
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	Temperature float32 `toml:"temperature"` // Completion temperature (0 = provider default)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`      // Default: "claude-haiku-3-5-20241022"
	MaxTokens   int     `toml:"max_tokens"` // Default: 8192
	Timeout     string  `toml:"timeout"`    // Default: "5m"
	Temperature float32 `toml:"temperature"`
}

// SearchConfig contains settings for the optional web-search enrichment.
// Search is best-effort: failures degrade to an empty context block.
type SearchConfig struct {
	Enabled    bool   `toml:"enabled"`
	BaseURL    string `toml:"base_url"`    // SearXNG-compatible instance URL
	Language   string `toml:"language"`    // Search language (default: "zh-CN")
	MaxResults int    `toml:"max_results"` // Results embedded into the prompt (default: 3)
	MaxRetries int    `toml:"max_retries"` // Attempts before giving up (default: 2)
	Timeout    string `toml:"timeout"`     // Per-request timeout (default: "30s")
}

// WorkflowConfig contains settings for the reconciliation workflow
type WorkflowConfig struct {
	SavePath           string `toml:"save_path"`           // Root for side-channel artifacts (output/, field.info.json)
	UpdateFieldInfo    bool   `toml:"update_field_info"`   // Refresh taxonomy reasoning via the model before a run
	ClassifyCategories bool   `toml:"classify_categories"` // false = authorship-only variant, no category classification
	MaxChars           int    `toml:"max_chars"`           // Paragraph-merge budget for translation calls
	Schedule           string `toml:"schedule"`            // Cron schedule for periodic runs ("" = disabled)
	SearchAugmentation bool   `toml:"search_augmentation"` // Enrich classification prompts with web-search context (needs search.enabled)
	WholeDocTranslate  bool   `toml:"whole_doc_translate"` // Translate documents in one call instead of chunked
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in curator.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Notion: NotionConfig{
			BaseURL:        "https://api.notion.com/v1",
			Version:        "2022-06-28",
			RateLimit:      "500ms",
			RequestTimeout: "30s",
		},
		Workspace: WorkspaceConfig{
			TemplateTitle:       "新文章",
			TitleProperty:       "标题",
			AuthorProperty:      "作者",
			StatusProperty:      "状态",
			CategoryProperty:    "领域",
			TextProperty:        "文本",
			NameProperty:        "名称",
			DescriptionProperty: "简述",
			EnglishNameProperty: "英文名称",
			ChineseNameProperty: "中文名称",
			FieldNameProperty:   "领域名称",
			FieldReasonProperty: "分类概述",
			StatusNotStarted:    "未开始",
			StatusInProgress:    "进行中",
			StatusInfoMissing:   "信息缺失",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderOpenAI,
			DumpDir:         "./tmp",
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.deepseek.com",
			Model:   "deepseek-chat",
			Timeout: "5m",
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Search: SearchConfig{
			Enabled:    false,
			Language:   "zh-CN",
			MaxResults: 3,
			MaxRetries: 2,
			Timeout:    "30s",
		},
		Workflow: WorkflowConfig{
			SavePath:           "./tmp/workspace",
			UpdateFieldInfo:    false,
			ClassifyCategories: true,
			MaxChars:           1000,
			SearchAugmentation: true,
		},
	}
}

// LoadFromFiles loads configuration from files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier
// ones; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CURATOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("CURATOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CURATOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("CURATOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("CURATOR_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if token := os.Getenv("NOTION_WORKSPACE_TOKEN"); token != "" {
		config.Notion.Token = token
	}
	if baseURL := os.Getenv("CURATOR_NOTION_BASE_URL"); baseURL != "" {
		config.Notion.BaseURL = baseURL
	}
	if limit := os.Getenv("CURATOR_NOTION_RATE_LIMIT"); limit != "" {
		if _, err := time.ParseDuration(limit); err == nil {
			config.Notion.RateLimit = limit
		}
	}

	if key := os.Getenv("CURATOR_OPENAI_API_KEY"); key != "" {
		config.OpenAI.APIKey = key
	}
	if baseURL := os.Getenv("CURATOR_OPENAI_BASE_URL"); baseURL != "" {
		config.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("CURATOR_OPENAI_MODEL"); model != "" {
		config.OpenAI.Model = model
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if provider := os.Getenv("CURATOR_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	if baseURL := os.Getenv("CURATOR_SEARCH_BASE_URL"); baseURL != "" {
		config.Search.BaseURL = baseURL
		config.Search.Enabled = true
	}

	if savePath := os.Getenv("CURATOR_WORKFLOW_SAVE_PATH"); savePath != "" {
		config.Workflow.SavePath = savePath
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
