package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pipeline drives source runs against a Store. Data flows strictly forward:
// fetch, extract, classify, dedup, accept. Each source run is independent;
// the store is the only shared state between them.
type Pipeline struct {
	Store      Store
	Perplexity *PerplexityClient
	Reddit     *RedditClient
	GitHub     *GitHubClient
	Config     Config
}

func New(cfg Config, store Store) *Pipeline {
	return &Pipeline{
		Store: store,
		Perplexity: &PerplexityClient{
			BaseURL: cfg.PerplexityURL,
			APIKey:  cfg.PerplexityKey,
			Model:   cfg.PerplexityModel,
		},
		Reddit: &RedditClient{
			BaseURL:   cfg.RedditURL,
			UserAgent: cfg.UserAgent,
		},
		GitHub: &GitHubClient{
			BaseURL:   cfg.GitHubURL,
			UserAgent: cfg.UserAgent,
			PageDelay: cfg.PageDelay,
		},
		Config: cfg,
	}
}

// RunSource drives one source end to end and reports its counters.
func (p *Pipeline) RunSource(ctx context.Context, source Source) (RunResult, error) {
	switch source {
	case SourceForum:
		return p.RunForum(ctx)
	case SourceAISearch:
		res, err := p.DiscoverExploits(ctx, "")
		return res.Run, err
	case SourceCodeHost:
		res, _, err := p.RunCodeHost(ctx)
		return res, err
	default:
		return RunResult{}, fmt.Errorf("unknown source %q", source)
	}
}

// RunForum pulls the forum feed, classifies each post and accepts the ones
// whose leading content is not already catalogued. A dead feed contributes
// zero records, never an error.
func (p *Pipeline) RunForum(ctx context.Context) (RunResult, error) {
	res := RunResult{Source: SourceForum}

	posts, err := p.Reddit.FetchPosts(ctx, p.Config.RedditLimit)
	if err != nil {
		slog.Warn("forum fetch failed", "err", err)
		PipelineStats.Errors.Add(1)
		return res, nil
	}
	PipelineStats.Fetched.Add(1)

	for _, post := range posts {
		// Link-only and one-liner posts carry no reusable prompt.
		if len(post.SelfText) < 50 {
			continue
		}

		cand := Candidate{
			Title:  post.Title,
			Body:   post.SelfText,
			Source: SourceForum,
			Meta: map[string]any{
				"post_id": post.ID,
				"author":  post.Author,
				"upvotes": post.Score,
				"url":     "https://reddit.com" + post.Permalink,
			},
		}
		res.Seen++
		PipelineStats.Candidates.Add(1)

		content := cand.Title + "\n\n" + cand.Body
		dup, err := p.Store.PromptExistsWithPrefix(ctx, contentPrefix(content))
		if err != nil {
			return res, fmt.Errorf("prefix lookup: %w", err)
		}
		if dup {
			res.Duplicates++
			PipelineStats.Duplicates.Add(1)
			continue
		}

		prompt := &Prompt{
			Content:     content,
			Category:    PromptCategory(cand.Title),
			Subcategory: aliasPromptType(ClassifyPromptType(cand.Title, cand.Body)),
			Provider:    "reddit",
			Source:      "r/ChatGPTJailbreak",
			Severity:    ClassifySeverity(cand.Title, cand.Body),
			ExtraData:   cand.Meta,
		}
		if err := p.Store.InsertPrompt(ctx, prompt); err != nil {
			return res, fmt.Errorf("insert prompt: %w", err)
		}
		res.Accepted++
		PipelineStats.Accepted.Add(1)
	}

	slog.Info("forum run complete", "seen", res.Seen, "duplicates", res.Duplicates, "accepted", res.Accepted)
	return res, nil
}

// DiscoverExploits asks the AI-search service for known exploits, parses the
// answer into findings and catalogues the ones whose title is new. Canonical
// identifiers are PIE-<year>-<serial> with store-issued serials.
func (p *Pipeline) DiscoverExploits(ctx context.Context, query string) (DiscoveryResult, error) {
	out := DiscoveryResult{Run: RunResult{Source: SourceAISearch}}

	content, err := p.Perplexity.Search(ctx, query)
	if err != nil {
		return out, err
	}
	PipelineStats.Fetched.Add(1)

	year := time.Now().UTC().Year()
	for _, cand := range ParseFindings(content) {
		out.Run.Seen++
		PipelineStats.Candidates.Add(1)

		dup, err := p.Store.ExploitExistsWithTitle(ctx, cand.Title)
		if err != nil {
			return out, fmt.Errorf("title lookup: %w", err)
		}
		if dup {
			out.Run.Duplicates++
			PipelineStats.Duplicates.Add(1)
			continue
		}

		body := cand.Body
		if body == "" {
			body = cand.Title
		}

		serial, err := p.Store.NextExploitSerial(ctx)
		if err != nil {
			return out, fmt.Errorf("next serial: %w", err)
		}

		exploit := &Exploit{
			CVEID:        fmt.Sprintf("PIE-%d-%03d", year, serial),
			Title:        cand.Title,
			Description:  body,
			Content:      body,
			Type:         ClassifyExploitType(cand.Title),
			Severity:     ClassifySeverity(cand.Title, cand.Body),
			Source:       "Perplexity AI",
			SourceType:   "perplexity",
			Status:       "active",
			DiscoveredAt: time.Now().UTC(),
		}
		if err := p.Store.InsertExploit(ctx, exploit); err != nil {
			return out, fmt.Errorf("insert exploit: %w", err)
		}
		out.Run.Accepted++
		PipelineStats.Accepted.Add(1)
		out.Exploits = append(out.Exploits, ExploitSummary{
			CVEID:    exploit.CVEID,
			Title:    exploit.Title,
			Severity: exploit.Severity,
		})
	}

	slog.Info("discovery run complete", "seen", out.Run.Seen, "duplicates", out.Run.Duplicates, "accepted", out.Run.Accepted)
	return out, nil
}

// RunCodeHost walks the search result pages and emits the recognized
// repositories. Uniqueness is enforced within each extraction pass only;
// there is no store-side dedup for this source.
func (p *Pipeline) RunCodeHost(ctx context.Context) (RunResult, []RepoItem, error) {
	res := RunResult{Source: SourceCodeHost}

	items, filtered, err := p.GitHub.FetchRepositories(ctx, p.Config.GitHubQuery, p.Config.GitHubPages)
	res.Seen = len(items) + filtered
	res.Filtered = filtered
	res.Accepted = len(items)
	PipelineStats.Candidates.Add(int64(res.Seen))
	PipelineStats.Filtered.Add(int64(filtered))
	PipelineStats.Accepted.Add(int64(res.Accepted))
	if err != nil {
		return res, items, err
	}

	if p.Config.ResultsFile != "" {
		if werr := saveRepoResults(p.Config.ResultsFile, items); werr != nil {
			slog.Warn("save results failed", "path", p.Config.ResultsFile, "err", werr)
		}
	}

	slog.Info("code host run complete", "found", res.Seen, "filtered", res.Filtered, "accepted", res.Accepted)
	return res, items, nil
}

func saveRepoResults(path string, items []RepoItem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// InitializeCatalog populates an empty store from the fixed source list:
// curated seed corpora plus a live forum run, concurrently. Re-invoking
// against a populated store is a no-op that reports the existing count. One
// source failing contributes zero records and never aborts the bootstrap.
func (p *Pipeline) InitializeCatalog(ctx context.Context) (InitResult, error) {
	existing, err := p.Store.CountPrompts(ctx)
	if err != nil {
		return InitResult{}, fmt.Errorf("count prompts: %w", err)
	}
	if existing > 0 {
		return InitResult{
			Message:  "Database already initialized",
			Existing: existing,
			Total:    existing,
		}, nil
	}

	var (
		mu        sync.Mutex
		perSource = make(map[string]int)
	)
	record := func(source string, n int) {
		mu.Lock()
		perSource[source] = n
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := p.seedCorpus(gctx, seedJailbreaks)
		if err != nil {
			slog.Error("jailbreak seed load failed", "err", err)
		}
		record("l1b3rt4s", n)
		return nil
	})
	g.Go(func() error {
		n, err := p.seedCorpus(gctx, seedSystemPrompts)
		if err != nil {
			slog.Error("system prompt seed load failed", "err", err)
		}
		record("cl4r1t4s", n)
		return nil
	})
	g.Go(func() error {
		res, err := p.RunForum(gctx)
		if err != nil {
			slog.Warn("forum bootstrap failed", "err", err)
		}
		record("reddit", res.Accepted)
		return nil
	})
	_ = g.Wait()

	total := 0
	for _, n := range perSource {
		total += n
	}
	return InitResult{PerSource: perSource, Total: total}, nil
}

// The dedup prefix length, in runes: records sharing this much leading
// content are treated as the same record even when later text differs.
const dedupPrefixLen = 100

func contentPrefix(s string) string {
	runes := []rune(s)
	if len(runes) > dedupPrefixLen {
		runes = runes[:dedupPrefixLen]
	}
	return string(runes)
}
