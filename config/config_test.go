package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearProviderEnv isolates tests from credentials in the developer's shell.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, names := range envAliases {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Provider != SearchDuckDuckGo || cfg.Search.NewsProvider != SearchDuckDuckGo {
		t.Fatalf("unexpected search providers %q/%q", cfg.Search.Provider, cfg.Search.NewsProvider)
	}
	if cfg.Search.MaxResults != 5 || cfg.Search.Pacing != 500*time.Millisecond {
		t.Fatalf("unexpected search defaults %+v", cfg.Search)
	}
	if cfg.LLM.Provider != ProviderNone || cfg.LLM.Available() || cfg.LLM.SummarizationEnabled() {
		t.Fatalf("expected no language model, got %+v", cfg.LLM)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Fatalf("unexpected backend %q", cfg.Storage.Backend)
	}
	if got := cfg.Storage.EpisodicPath(); got != filepath.Join("storage", "knowledge_graph.json") {
		t.Fatalf("unexpected episodic path %q", got)
	}
	if cfg.Memory.FindingsToStore != 5 || cfg.Memory.SearchTopK != 5 {
		t.Fatalf("unexpected memory defaults %+v", cfg.Memory)
	}
}

func TestLoadDetectsGroqFromConventionalEnv(t *testing.T) {
	clearProviderEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != ProviderGroq || !cfg.LLM.Available() {
		t.Fatalf("expected groq provider, got %+v", cfg.LLM)
	}
	if cfg.LLM.APIKey() != "gsk-test" || cfg.LLM.Model() != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected credentials/model %q %q", cfg.LLM.APIKey(), cfg.LLM.Model())
	}
	if !cfg.LLM.SummarizationEnabled() || !cfg.LLM.WritingEnabled() {
		t.Fatalf("model features should be enabled")
	}
}

func TestLoadFileAndPrefixedEnv(t *testing.T) {
	clearProviderEnv(t)
	path := writeConfig(t, `
search:
  provider: brave
  brave_api_key: bk
  multi_source: true
  domains:
    block: ["WWW.Spam.com"]
llm:
  provider: openai
  openai_api_key: sk
  writing: false
`)
	t.Setenv("RESEARCHER_SEARCH_MAX_RESULTS", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Provider != SearchBrave || cfg.Search.NewsProvider != SearchBrave || !cfg.Search.MultiSource {
		t.Fatalf("unexpected search config %+v", cfg.Search)
	}
	if cfg.Search.MaxResults != 9 {
		t.Fatalf("env override not applied: %d", cfg.Search.MaxResults)
	}
	if len(cfg.Search.Domains.Block) != 1 || cfg.Search.Domains.Block[0] != "spam.com" {
		t.Fatalf("unexpected domain policy %+v", cfg.Search.Domains)
	}
	if cfg.LLM.Provider != ProviderOpenAI || cfg.LLM.WritingEnabled() || !cfg.LLM.SummarizationEnabled() {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearProviderEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	clearProviderEnv(t)
	cases := map[string]string{
		"search.brave_api_key": "search:\n  provider: brave\n",
		"news only":            "search:\n  provider: newsapi\n",
		"unsupported provider": "search:\n  provider: altavista\n",
		"storage.redis.host":   "storage:\n  backend: redis\n  redis:\n    host: \"\"\n",
		"unsupported backend":  "storage:\n  backend: sqlite\n",
		"search.domains":       "search:\n  domains:\n    allow: [a.com]\n    block: [a.com]\n",
	}
	for want, body := range cases {
		_, err := Load(writeConfig(t, body))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("expected error containing %q, got %v", want, err)
		}
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", User: "u", Password: "p", DBName: "research"}
	if got := p.DSN(); got != "postgres://u:p@db:5432/research?sslmode=disable" {
		t.Fatalf("DSN() = %q", got)
	}
	p.URL = "postgres://override"
	if p.DSN() != "postgres://override" {
		t.Fatalf("URL should take precedence")
	}
}

func TestStatusReportsFeatures(t *testing.T) {
	cfg := Default()
	status := cfg.Status()
	features, ok := status["features"].(map[string]bool)
	if !ok {
		t.Fatalf("missing features in %v", status)
	}
	if features["llm_summarization"] || !features["telemetry"] {
		t.Fatalf("unexpected features %v", features)
	}
}

// chdir switches the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore cwd: %v", err)
		}
	})
}
