package pipeline

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var repoPathRE = regexp.MustCompile(`^[\w\-.]+/[\w\-.]+$`)

// Paths that look like repositories but are site navigation.
var pathDenylist = []string{
	"search",
	"topics",
	"collections",
	"trending",
	"features",
	"sponsors",
	"orgs",
}

// repoPatterns are the rendering variants a result page may use for the same
// repository link, in priority order: when two patterns hit the same path the
// earlier one wins.
var repoPatterns = []func(doc *goquery.Document, emit func(href string)){
	// Anchor wrapping a display span, the common result-list shape.
	func(doc *goquery.Document, emit func(string)) {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			if s.ChildrenFiltered("span").Length() == 0 {
				return
			}
			if href, ok := s.Attr("href"); ok {
				emit(href)
			}
		})
	},
	// View-component rendering variant.
	func(doc *goquery.Document, emit func(string)) {
		doc.Find(`a[href][data-view-component="true"]`).Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				emit(href)
			}
		})
	},
	// Bare repository link fallback.
	func(doc *goquery.Document, emit func(string)) {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				emit(href)
			}
		})
	},
}

// ExtractRepositories pulls owner/name repository paths out of a search
// result page. Paths must be site-relative, split into exactly two non-empty
// segments and avoid the navigation denylist; within one call the first
// pattern to see a path claims it.
func ExtractRepositories(html string, page int) []RepoItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var items []RepoItem

	add := func(href string) {
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(href, "/") {
			return
		}
		path := strings.TrimPrefix(href, "/")
		if !repoPathRE.MatchString(path) {
			return
		}
		lower := strings.ToLower(path)
		for _, skip := range pathDenylist {
			if strings.Contains(lower, skip) {
				return
			}
		}
		owner, name, ok := strings.Cut(path, "/")
		if !ok || owner == "" || name == "" {
			return
		}
		if seen[path] {
			return
		}
		seen[path] = true
		items = append(items, RepoItem{
			Name:     name,
			FullName: path,
			URL:      "https://github.com/" + path,
			Page:     page,
		})
	}

	for _, pattern := range repoPatterns {
		pattern(doc, add)
	}
	return items
}

// FilterWildcards drops items whose name carries a wildcard marker; those are
// search-syntax artifacts, not genuine repositories. Kept as a separate pass
// so removals stay countable.
func FilterWildcards(items []RepoItem) ([]RepoItem, int) {
	kept := make([]RepoItem, 0, len(items))
	removed := 0
	for _, item := range items {
		if strings.ContainsRune(item.Name, '*') || strings.ContainsRune(item.FullName, '*') {
			slog.Debug("filtered wildcard name", "repo", item.FullName)
			removed++
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}
