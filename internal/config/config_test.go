package config

import (
	"testing"
	"time"

	"insulight/internal/tester"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LLM_PROVIDER", "LLM_API_KEY", "LLM_MODEL", "LLM_BASE_URL", "LLM_TIMEOUT_SECONDS", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadLLMConfig_Defaults(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := loadLLMConfig()
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Provider, "openai")
	tester.Eq(t, cfg.Model, "gpt-4o")
	tester.Eq(t, cfg.APIKey, "sk-test")
	tester.Eq(t, cfg.Timeout, 60*time.Second)
}

func TestLoadLLMConfig_Gemini(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("LLM_TIMEOUT_SECONDS", "15")

	cfg, err := loadLLMConfig()
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Provider, "gemini")
	tester.Eq(t, cfg.Model, "gemini-2.0-flash")
	tester.Eq(t, cfg.Timeout, 15*time.Second)
}

func TestLoadLLMConfig_MissingKeyFailsFast(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")

	_, err := loadLLMConfig()
	tester.True(t, err != nil)
}

func TestLoadLLMConfig_UnknownProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_PROVIDER", "oracle")

	_, err := loadLLMConfig()
	tester.True(t, err != nil)
}

func TestLoadLLMConfig_FakeNeedsNoKey(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_PROVIDER", "fake")

	cfg, err := loadLLMConfig()
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Provider, "fake")
}

func TestLoadLLMTimeout_InvalidFallsBack(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_TIMEOUT_SECONDS", "soon")
	tester.Eq(t, loadLLMTimeout(), 60*time.Second)

	t.Setenv("LLM_TIMEOUT_SECONDS", "-5")
	tester.Eq(t, loadLLMTimeout(), 60*time.Second)
}
