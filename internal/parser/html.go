package parser

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// HTMLExtractor handles HTML files. The main content is isolated with
// readability unless that loses most of the page, then converted to
// Markdown so headings survive as "#" lines.
type HTMLExtractor struct{}

// minReadableShare is the fraction of body text readability must keep for
// its output to be used.
const minReadableShare = 0.5

func (p *HTMLExtractor) Extract(r io.Reader, filename string) (*Extraction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := findTitle(doc)
	content := string(data)
	if body := findBody(doc); body != nil {
		bodyChars := utf8.RuneCountInString(textContent(body))
		article, err := readability.FromReader(bytes.NewReader(data), &url.URL{})
		if err == nil && float64(htmlChars(article.Content)) >= minReadableShare*float64(bodyChars) {
			content = article.Content
			if title == "" {
				title = strings.TrimSpace(article.Title)
			}
		}
	}

	text, err := htmlToMarkdown(content)
	if err != nil {
		return nil, err
	}
	return &Extraction{Text: text, Title: title}, nil
}

func htmlToMarkdown(s string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Remove("nav", "footer", "aside", "figure", "img", "form", "button")
	converter.AddRules(
		md.Rule{
			// Links keep their text only.
			Filter: []string{"a"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return md.String(strings.TrimSpace(content))
			},
		},
		md.Rule{
			// Definition lists become glossary lines.
			Filter: []string{"dl"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				var lines []string
				term := ""
				selec.Children().Each(func(_ int, s *goquery.Selection) {
					text := strings.Join(strings.Fields(s.Text()), " ")
					switch goquery.NodeName(s) {
					case "dt":
						term = text
					case "dd":
						if line := glossaryLine([]string{term, text}); line != "" {
							lines = append(lines, line)
						}
						term = ""
					}
				})
				return md.String("\n\n" + strings.Join(lines, "\n") + "\n\n")
			},
		},
	)

	markdown, err := converter.ConvertString(s)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return markdown, nil
}

// htmlChars counts the visible characters of an HTML fragment.
func htmlChars(fragment string) int {
	n, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return 0
	}
	return utf8.RuneCountInString(textContent(n))
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
