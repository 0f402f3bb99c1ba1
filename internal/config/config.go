package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Database DatabaseConfig
	Vector   VectorConfig
	Agent    AgentConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	agent, err := loadAgentConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Database: loadDatabaseConfig(),
		Vector:   loadVectorConfig(),
		Agent:    agent,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the completion-model credentials and sampling knobs.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: provide ARK_API_KEY + Model or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// DatabaseConfig points at the relational transcript store.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a relational store is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))}
}

// VectorConfig describes the persistent memory index and its embedding
// endpoint (OpenAI-compatible).
type VectorConfig struct {
	DataDir          string
	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string
}

// Enabled reports whether the vector memory can be brought up.
func (c VectorConfig) Enabled() bool {
	return c.DataDir != "" && c.EmbeddingAPIKey != "" && c.EmbeddingModel != ""
}

func loadVectorConfig() VectorConfig {
	return VectorConfig{
		DataDir:          getEnvOrDefault("VECTOR_DATA_DIR", "data"),
		EmbeddingBaseURL: getEnvOrDefault("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingAPIKey:  strings.TrimSpace(os.Getenv("EMBEDDING_API_KEY")),
		EmbeddingModel:   getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
	}
}

// AgentConfig tunes the turn orchestrator and memory retrieval.
type AgentConfig struct {
	// RecallHints is the closed set of substrings that flag recall intent.
	// Kept as configuration on purpose: the list is small and language
	// specific, and widening it silently would change retrieval behavior.
	RecallHints      []string
	RecallWindowMin  int
	RecallTopK       int
	SummaryLimit     int
	PreloadTimeout   time.Duration
	EmotionLLM       bool
	ToolPreviewLimit int
}

// defaultRecallHints is the phrase list the retrieval heuristic shipped with.
// Substring match, Korean script.
var defaultRecallHints = []string{
	"기억나", "기억 해", "그때", "그 일", "그날", "그 순간",
	"지난번", "전에 말했", "예전에 말했", "그 얘기",
}

func loadAgentConfig() (AgentConfig, error) {
	cfg := AgentConfig{
		RecallHints:      defaultRecallHints,
		RecallWindowMin:  30,
		RecallTopK:       3,
		SummaryLimit:     20,
		ToolPreviewLimit: 800,
	}

	if raw := strings.TrimSpace(os.Getenv("AGENT_RECALL_HINTS")); raw != "" {
		hints := make([]string, 0, 8)
		for _, h := range strings.Split(raw, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hints = append(hints, h)
			}
		}
		if len(hints) > 0 {
			cfg.RecallHints = hints
		}
	}

	for _, knob := range []struct {
		key string
		dst *int
	}{
		{"AGENT_RECALL_WINDOW_MIN", &cfg.RecallWindowMin},
		{"AGENT_RECALL_TOP_K", &cfg.RecallTopK},
		{"AGENT_SUMMARY_LIMIT", &cfg.SummaryLimit},
	} {
		val, err := parseOptionalIntEnv(knob.key)
		if err != nil {
			return AgentConfig{}, err
		}
		if val != nil && *val > 0 {
			*knob.dst = *val
		}
	}

	if raw := strings.TrimSpace(os.Getenv("AGENT_PRELOAD_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return AgentConfig{}, fmt.Errorf("invalid AGENT_PRELOAD_TIMEOUT value %q: %w", raw, err)
		}
		cfg.PreloadTimeout = d
	}

	emotionLLM, err := parseBoolEnv("AGENT_EMOTION_LLM_ENABLED", false)
	if err != nil {
		return AgentConfig{}, err
	}
	cfg.EmotionLLM = emotionLLM

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
