package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"websearch/internal/domain"
)

func parseHTML(t *testing.T, src string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestExtractSections(t *testing.T) {
	root := parseHTML(t, `<html><head><title>Docs</title></head><body>
		<p>intro text</p>
		<h1>Install</h1><p>run the installer</p>
		<h2>Linux</h2><p>use the tarball</p><script>ignored()</script>
	</body></html>`)

	sections := extractSections(root)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(sections), sections)
	}

	if sections[0].Heading != "Docs" || !strings.Contains(sections[0].Content, "intro text") {
		t.Errorf("pre-heading content should land under the title: %+v", sections[0])
	}
	if sections[1].Heading != "Install" || !strings.Contains(sections[1].Content, "run the installer") {
		t.Errorf("unexpected section: %+v", sections[1])
	}
	if sections[2].Heading != "Linux" {
		t.Errorf("unexpected section: %+v", sections[2])
	}
	if strings.Contains(sections[2].Content, "ignored") {
		t.Error("script content must not leak into sections")
	}
}

func TestExtractLinks(t *testing.T) {
	root := parseHTML(t, `<html><body>
		<a href="/a">a</a><a href="https://other.example/b">b</a><a>no href</a>
	</body></html>`)

	links := extractLinks(root)
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %v", links)
	}
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "websearch-test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, `<html><body><h1>Hello</h1><p>world</p></body></html>`)
	}))
	defer srv.Close()

	s := New(Options{UserAgent: "websearch-test", RequestsPerSecond: 1000}, nil)
	page, err := s.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if page.URL != srv.URL {
		t.Errorf("unexpected page URL %q", page.URL)
	}
	if len(page.Sections) != 1 || page.Sections[0].Heading != "Hello" {
		t.Errorf("unexpected sections: %+v", page.Sections)
	}
}

func TestScrapeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(Options{RequestsPerSecond: 1000}, nil)
	if _, err := s.Scrape(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a 404 page")
	}
}

func crawlSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Home</h1>
			<a href="/docs/a">a</a>
			<a href="/private/secret">secret</a>
			<a href="https://elsewhere.example/x">offsite</a>
		</body></html>`)
	})
	mux.HandleFunc("/docs/a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>A</h1><a href="/docs/b">b</a></body></html>`)
	})
	mux.HandleFunc("/docs/b", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>B</h1></body></html>`)
	})
	mux.HandleFunc("/private/secret", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Secret</h1></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCrawlFollowsSameHostLinks(t *testing.T) {
	srv := crawlSite(t)

	s := New(Options{RequestsPerSecond: 1000, Excludes: []string{"private/**"}}, nil)
	pages, err := s.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatal(err)
	}

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[0].Sections[0].Heading != "Home" {
		t.Error("start page should come first")
	}
	for _, p := range pages {
		if strings.Contains(p.URL, "private") {
			t.Errorf("excluded path was crawled: %s", p.URL)
		}
		if strings.Contains(p.URL, "elsewhere") {
			t.Errorf("offsite link was crawled: %s", p.URL)
		}
	}
}

func TestCrawlIncludeGlobs(t *testing.T) {
	srv := crawlSite(t)

	s := New(Options{RequestsPerSecond: 1000, Includes: []string{"docs/a"}}, nil)
	pages, err := s.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatal(err)
	}

	// Start page plus the single admissible link.
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %v", len(pages), pageURLs(pages))
	}
}

func TestCrawlMaxPages(t *testing.T) {
	srv := crawlSite(t)

	s := New(Options{RequestsPerSecond: 1000, MaxPages: 1}, nil)
	pages, err := s.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected crawl capped at 1 page, got %d", len(pages))
	}
}

func TestCrawlCancellation(t *testing.T) {
	srv := crawlSite(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(Options{RequestsPerSecond: 1000}, nil)
	_, err := s.Crawl(ctx, srv.URL+"/")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func pageURLs(pages []domain.Page) []string {
	urls := make([]string, len(pages))
	for i, p := range pages {
		urls[i] = p.URL
	}
	return urls
}
