package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// DefaultCodeHostQuery is searched when the caller supplies no query.
const DefaultCodeHostQuery = "prompt injection jailbreak"

// Config carries one invocation's parameters. The pipeline holds no
// configuration state beyond this.
type Config struct {
	DatabaseURL     string
	PerplexityKey   string
	PerplexityURL   string
	PerplexityModel string
	RedditURL       string
	RedditLimit     int
	GitHubURL       string
	GitHubQuery     string
	GitHubPages     int
	PageDelay       time.Duration
	ResultsFile     string
	UserAgent       string
}

func LoadConfig() Config {
	loadDotEnv()

	return Config{
		DatabaseURL:     getEnv("DB_URL", ""),
		PerplexityKey:   getEnv("PERPLEXITY_API_KEY", ""),
		PerplexityURL:   getEnv("PERPLEXITY_URL", "https://api.perplexity.ai"),
		PerplexityModel: getEnv("PERPLEXITY_MODEL", "llama-3.1-sonar-large-128k-online"),
		RedditURL:       getEnv("REDDIT_URL", "https://www.reddit.com"),
		RedditLimit:     getEnvInt("REDDIT_LIMIT", 50),
		GitHubURL:       getEnv("GITHUB_URL", "https://github.com"),
		GitHubQuery:     getEnv("GITHUB_QUERY", DefaultCodeHostQuery),
		GitHubPages:     getEnvInt("GITHUB_PAGES", 8),
		PageDelay:       2 * time.Second,
		ResultsFile:     getEnv("RESULTS_FILE", ""),
		UserAgent:       getEnv("CRAWLER_USER_AGENT", defaultUserAgent),
	}
}

type fileConfig struct {
	DatabaseURL     string `yaml:"database_url"`
	PerplexityKey   string `yaml:"perplexity_api_key"`
	PerplexityURL   string `yaml:"perplexity_url"`
	PerplexityModel string `yaml:"perplexity_model"`
	RedditURL       string `yaml:"reddit_url"`
	RedditLimit     int    `yaml:"reddit_limit"`
	GitHubURL       string `yaml:"github_url"`
	GitHubQuery     string `yaml:"github_query"`
	GitHubPages     int    `yaml:"github_pages"`
	PageDelay       string `yaml:"page_delay"`
	ResultsFile     string `yaml:"results_file"`
	UserAgent       string `yaml:"user_agent"`
}

// ApplyFile overlays settings from a YAML file onto c. Absent keys keep
// their current values.
func (c *Config) ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if fc.DatabaseURL != "" {
		c.DatabaseURL = fc.DatabaseURL
	}
	if fc.PerplexityKey != "" {
		c.PerplexityKey = fc.PerplexityKey
	}
	if fc.PerplexityURL != "" {
		c.PerplexityURL = fc.PerplexityURL
	}
	if fc.PerplexityModel != "" {
		c.PerplexityModel = fc.PerplexityModel
	}
	if fc.RedditURL != "" {
		c.RedditURL = fc.RedditURL
	}
	if fc.RedditLimit > 0 {
		c.RedditLimit = fc.RedditLimit
	}
	if fc.GitHubURL != "" {
		c.GitHubURL = fc.GitHubURL
	}
	if fc.GitHubQuery != "" {
		c.GitHubQuery = fc.GitHubQuery
	}
	if fc.GitHubPages > 0 {
		c.GitHubPages = fc.GitHubPages
	}
	if fc.PageDelay != "" {
		d, err := time.ParseDuration(fc.PageDelay)
		if err != nil {
			return fmt.Errorf("parse page_delay: %w", err)
		}
		c.PageDelay = d
	}
	if fc.ResultsFile != "" {
		c.ResultsFile = fc.ResultsFile
	}
	if fc.UserAgent != "" {
		c.UserAgent = fc.UserAgent
	}
	return nil
}

func loadDotEnv() {
	for _, path := range []string{".env", "../.env"} {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			k, v, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			if _, exists := os.LookupEnv(strings.TrimSpace(k)); !exists {
				os.Setenv(strings.TrimSpace(k), strings.TrimSpace(v))
			}
		}
		f.Close()
		return
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
