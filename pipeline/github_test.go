package pipeline_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sel1nabd/lupin/pipeline"
)

func repoPage(paths ...string) string {
	page := ""
	for _, p := range paths {
		page += fmt.Sprintf(`<a href="/%s"><span>repo</span></a>`, p)
	}
	return "<html><body>" + page + "</body></html>"
}

// -- GitHubClient.FetchRepositories --------------------------------------------

func TestGitHub_StopsOnEmptyPage(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Query().Get("p") {
		case "1":
			fmt.Fprint(w, repoPage("org-a/repo-one", "org-b/repo-two"))
		case "2":
			fmt.Fprint(w, repoPage("org-c/repo-three"))
		default:
			fmt.Fprint(w, "<html><body>no results</body></html>")
		}
	}))
	defer srv.Close()

	client := &pipeline.GitHubClient{BaseURL: srv.URL}
	items, filtered, err := client.FetchRepositories(context.Background(), "test", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests.Load() != 3 {
		t.Errorf("requests = %d, want 3 (stop after first empty page)", requests.Load())
	}
	if len(items) != 3 {
		t.Errorf("items = %d, want 3", len(items))
	}
	if filtered != 0 {
		t.Errorf("filtered = %d, want 0", filtered)
	}
}

func TestGitHub_StopsImmediatelyOnRateLimit(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := &pipeline.GitHubClient{BaseURL: srv.URL}
	items, _, err := client.FetchRepositories(context.Background(), "test", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests.Load() != 1 {
		t.Errorf("requests = %d, want 1 (no retry after rate limit)", requests.Load())
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestGitHub_SkipsFailedPageAndContinues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("p") == "1" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, repoPage("org-a/survivor"))
	}))
	defer srv.Close()

	client := &pipeline.GitHubClient{BaseURL: srv.URL}
	items, _, err := client.FetchRepositories(context.Background(), "test", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].FullName != "org-a/survivor" {
		t.Errorf("items = %+v, want the page-2 repo only", items)
	}
}

func TestGitHub_HonorsPageBudget(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		fmt.Fprint(w, repoPage(fmt.Sprintf("org/repo-%d", n)))
	}))
	defer srv.Close()

	client := &pipeline.GitHubClient{BaseURL: srv.URL}
	items, _, err := client.FetchRepositories(context.Background(), "test", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests.Load() != 3 {
		t.Errorf("requests = %d, want exactly the page budget", requests.Load())
	}
	if len(items) != 3 {
		t.Errorf("items = %d, want 3", len(items))
	}
}

func TestGitHub_ConnectionRefusedIsSoft(t *testing.T) {
	client := &pipeline.GitHubClient{BaseURL: "http://127.0.0.1:1"}
	items, _, err := client.FetchRepositories(context.Background(), "test", 2)
	if err != nil {
		t.Fatalf("transport failures should be logged per page, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}
