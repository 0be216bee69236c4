package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	SQLitePath    string
	SessionTokens string
	LLM           LLMConfig
	Artifact      ArtifactConfig
}

type LLMConfig struct {
	// Provider is "gemini" or "openai".
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	llmCfg, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:          *port,
		Env:           env,
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:    strings.TrimSpace(os.Getenv("SQLITE_PATH")),
		SessionTokens: strings.TrimSpace(os.Getenv("API_SESSION_TOKENS")),
		LLM:           llmCfg,
		Artifact:      loadArtifactConfig(),
	}, nil
}

// loadLLMConfig resolves the completion-service credential. A missing key is
// a startup failure, not a per-request one.
func loadLLMConfig() (LLMConfig, error) {
	provider := strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "openai"))

	var apiKey, model string
	switch provider {
	case "gemini":
		apiKey = firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("LLM_API_KEY")))
		model = firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gemini-2.0-flash")
	case "openai":
		apiKey = firstNonEmpty(strings.TrimSpace(os.Getenv("OPENAI_API_KEY")), strings.TrimSpace(os.Getenv("LLM_API_KEY")))
		model = firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gpt-4o")
	case "fake":
		// Offline runs; no credential needed.
		return LLMConfig{Provider: provider, Timeout: loadLLMTimeout()}, nil
	default:
		return LLMConfig{}, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
	if apiKey == "" {
		return LLMConfig{}, fmt.Errorf("missing API key for LLM provider %q", provider)
	}

	return LLMConfig{
		Provider: provider,
		APIKey:   apiKey,
		Model:    model,
		BaseURL:  strings.TrimSpace(os.Getenv("LLM_BASE_URL")),
		Timeout:  loadLLMTimeout(),
	}, nil
}

func loadLLMTimeout() time.Duration {
	raw := strings.TrimSpace(os.Getenv("LLM_TIMEOUT_SECONDS"))
	if raw == "" {
		return 60 * time.Second
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 60 * time.Second
	}
	return time.Duration(n) * time.Second
}

func loadArtifactConfig() ArtifactConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "insulight-artifacts"),
		UseSSL:    resolveArtifactUseSSL(),
	}
}

func resolveArtifactUseSSL() bool {
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
