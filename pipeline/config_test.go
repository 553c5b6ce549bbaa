package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sel1nabd/lupin/pipeline"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawler.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := pipeline.LoadConfig()
	if cfg.PerplexityURL != "https://api.perplexity.ai" {
		t.Errorf("perplexity url %q", cfg.PerplexityURL)
	}
	if cfg.RedditLimit != 50 || cfg.GitHubPages != 8 {
		t.Errorf("limits = %d/%d", cfg.RedditLimit, cfg.GitHubPages)
	}
	if cfg.PageDelay != 2*time.Second {
		t.Errorf("page delay %v", cfg.PageDelay)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_PAGES", "3")
	t.Setenv("PERPLEXITY_MODEL", "sonar-env")

	cfg := pipeline.LoadConfig()
	if cfg.GitHubPages != 3 {
		t.Errorf("github pages %d, want 3", cfg.GitHubPages)
	}
	if cfg.PerplexityModel != "sonar-env" {
		t.Errorf("model %q", cfg.PerplexityModel)
	}
}

func TestApplyFile_Overlay(t *testing.T) {
	path := writeConfigFile(t, `
github_pages: 4
github_query: custom search
page_delay: 10ms
`)

	cfg := pipeline.LoadConfig()
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GitHubPages != 4 {
		t.Errorf("github pages %d, want 4", cfg.GitHubPages)
	}
	if cfg.GitHubQuery != "custom search" {
		t.Errorf("query %q", cfg.GitHubQuery)
	}
	if cfg.PageDelay != 10*time.Millisecond {
		t.Errorf("page delay %v", cfg.PageDelay)
	}
	// Keys absent from the file keep their loaded values.
	if cfg.RedditLimit != 50 {
		t.Errorf("reddit limit %d, want untouched default", cfg.RedditLimit)
	}
}

func TestApplyFile_BadDuration(t *testing.T) {
	path := writeConfigFile(t, "page_delay: shortly\n")
	cfg := pipeline.LoadConfig()
	if err := cfg.ApplyFile(path); err == nil {
		t.Fatal("want error for unparseable duration")
	}
}

func TestApplyFile_MissingFile(t *testing.T) {
	cfg := pipeline.LoadConfig()
	if err := cfg.ApplyFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}
