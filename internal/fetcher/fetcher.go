package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pbaille/reflect/internal/domain"
)

// maxBody bounds what is read from a page or file (5MB)
const maxBody = 5 * 1024 * 1024

// ErrNoContent is returned when a page yields no chapter text
var ErrNoContent = errors.New("no chapter content found")

// Load reads an HTML document from a URL or a local file
func Load(ctx context.Context, source string) ([]byte, error) {
	if IsURL(source) {
		return Fetch(ctx, source)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return body, nil
}

// Fetch retrieves the raw body of a URL
func Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	// Validate URL
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		// "www.example.com/x" parses as a path
		u, err = url.Parse("https://" + strings.TrimSpace(rawURL))
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	// Fetch with timeout
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "reflect/1.0 (chapter-import)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

// Tags to skip (non-content)
var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true,
}

// summaryLen bounds the generated short summary
const summaryLen = 200

// ParseChapter turns an HTML page into a chapter. The first h1 (or the
// document title) names the chapter, every h2/h3 opens a content section,
// and p, blockquote and li elements become paragraph, quote and
// instruction parts. The chapter id and number are left for the caller.
func ParseChapter(r io.Reader) (domain.Chapter, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("parse html: %w", err)
	}

	p := &chapterParser{}
	p.walk(doc)
	p.flush()

	ch := domain.Chapter{Title: p.title}
	if ch.Title == "" {
		ch.Title = p.docTitle
	}
	if ch.Title == "" || len(p.sections) == 0 {
		return domain.Chapter{}, ErrNoContent
	}

	ch.Content = p.sections
	ch.FullText = strings.Join(p.texts, "\n\n")
	ch.Summary.ShortSummary = truncate(p.texts[0], summaryLen)
	ch.Themes = []string{}
	return ch, nil
}

type chapterParser struct {
	title    string
	docTitle string
	sections []domain.ContentSection
	current  *domain.ContentSection
	texts    []string
}

func (p *chapterParser) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		if skipTags[n.Data] {
			return
		}
		switch n.Data {
		case "title":
			if p.docTitle == "" {
				p.docTitle = textOf(n)
			}
			return
		case "h1":
			if p.title == "" {
				p.title = textOf(n)
			}
			return
		case "h2", "h3":
			p.flush()
			p.current = &domain.ContentSection{Section: textOf(n)}
			return
		case "p":
			p.add(domain.PartParagraph, textOf(n), "")
			return
		case "li":
			p.add(domain.PartInstruction, textOf(n), "")
			return
		case "blockquote":
			p.addQuote(n)
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

// addQuote keeps a cite element, if any, as the quote source
func (p *chapterParser) addQuote(n *html.Node) {
	var source string
	var body []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "cite" {
			source = strings.TrimLeft(textOf(c), "—-– ")
			continue
		}
		if t := textOf(c); t != "" {
			body = append(body, t)
		}
	}
	p.add(domain.PartQuote, strings.Join(body, " "), source)
}

func (p *chapterParser) add(kind, text, source string) {
	if text == "" {
		return
	}
	if p.current == nil {
		p.current = &domain.ContentSection{Section: "Introduction"}
	}
	p.current.Parts = append(p.current.Parts, domain.ContentPart{Type: kind, Content: text, Source: source})
	p.texts = append(p.texts, text)
}

func (p *chapterParser) flush() {
	if p.current != nil && len(p.current.Parts) > 0 {
		p.sections = append(p.sections, *p.current)
	}
	p.current = nil
}

// textOf returns the visible text below n with whitespace collapsed
func textOf(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
