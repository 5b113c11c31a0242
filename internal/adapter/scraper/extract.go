package scraper

import (
	"strings"

	"golang.org/x/net/html"

	"websearch/internal/domain"
)

// extractSections linearizes an HTML document into heading-delimited
// sections: every h1-h6 starts a new section titled by the heading
// text; everything before the first heading lands in a section titled
// by the document title (or untitled).
func extractSections(root *html.Node) []domain.Section {
	e := &sectionExtractor{}
	e.walk(root)
	e.flush()
	return e.sections
}

type sectionExtractor struct {
	sections []domain.Section
	heading  string
	title    string
	lines    []string
}

func (e *sectionExtractor) walk(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template", "iframe":
			return
		case "title":
			e.title = strings.TrimSpace(textContent(n))
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			e.flush()
			e.heading = strings.TrimSpace(textContent(n))
			return
		case "br", "p", "div", "li", "tr", "pre", "blockquote", "section", "article":
			// Block boundaries become line breaks.
			e.lines = append(e.lines, "")
		}
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			if len(e.lines) == 0 {
				e.lines = append(e.lines, text)
			} else {
				last := &e.lines[len(e.lines)-1]
				if *last == "" {
					*last = text
				} else {
					*last += " " + text
				}
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c)
	}
}

func (e *sectionExtractor) flush() {
	content := strings.TrimSpace(strings.Join(e.lines, "\n"))
	heading := e.heading
	if heading == "" {
		heading = e.title
	}
	if content != "" || heading != "" {
		e.sections = append(e.sections, domain.Section{Heading: heading, Content: content})
	}
	e.heading = ""
	e.lines = nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// extractLinks returns every href on the page, as written.
func extractLinks(root *html.Node) []string {
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					links = append(links, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return links
}
