package pipeline

import (
	"sync/atomic"
	"time"
)

// Source identifies which remote family a payload or record came from.
type Source string

const (
	SourceAISearch Source = "ai_search"
	SourceForum    Source = "forum"
	SourceCodeHost Source = "code_host"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Candidate is one unclassified item extracted from a raw payload. It lives
// for a single pipeline pass and is never persisted. Extractors never emit a
// Candidate with an empty Title.
type Candidate struct {
	Title  string
	Body   string
	Source Source
	Meta   map[string]any
}

// RepoItem is one repository recognized on a code-host search result page.
type RepoItem struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	URL      string `json:"html_url"`
	Page     int    `json:"page"`
}

// Prompt is a catalogued jailbreak or system prompt record.
type Prompt struct {
	ID          string
	Content     string
	Source      string
	Category    string
	Subcategory string
	Provider    string
	Severity    string
	ExtraData   map[string]any
	CreatedAt   time.Time
}

// Exploit is a CVE-style record for a named prompt injection exploit.
// CVEID carries the canonical PIE-<year>-<serial> identifier.
type Exploit struct {
	ID           string
	CVEID        string
	Title        string
	Description  string
	Content      string
	Type         string
	Severity     string
	Source       string
	SourceType   string
	Status       string
	DiscoveredAt time.Time
	CreatedAt    time.Time
}

// RunResult summarizes one source pipeline run.
type RunResult struct {
	Source     Source `json:"source"`
	Seen       int    `json:"candidates_seen"`
	Duplicates int    `json:"duplicates_skipped"`
	Filtered   int    `json:"filtered"`
	Accepted   int    `json:"accepted"`
}

// ExploitSummary is the caller-facing view of one accepted exploit.
type ExploitSummary struct {
	CVEID    string `json:"cve_id"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
}

// DiscoveryResult is returned by an AI-search discovery run.
type DiscoveryResult struct {
	Run      RunResult        `json:"run"`
	Exploits []ExploitSummary `json:"exploits,omitempty"`
}

// InitResult reports the idempotent catalogue bootstrap.
type InitResult struct {
	Message   string         `json:"message,omitempty"`
	PerSource map[string]int `json:"per_source,omitempty"`
	Existing  int            `json:"existing,omitempty"`
	Total     int            `json:"total"`
}

type Stats struct {
	Fetched    atomic.Int64
	Candidates atomic.Int64
	Duplicates atomic.Int64
	Filtered   atomic.Int64
	Accepted   atomic.Int64
	Errors     atomic.Int64
}

var PipelineStats Stats
