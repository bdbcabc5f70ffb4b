package crawl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Markdown converts an HTML document into the flat markdown the LLM stages
// consume. Links and images are kept with absolute URLs so pagination and
// sub-page candidates survive the conversion; scripts and styling are
// dropped.
func Markdown(rawHTML, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	sel := doc.Find("body")
	if sel.Length() == 0 {
		sel = doc.Selection
	}

	var b strings.Builder
	for _, n := range sel.Nodes {
		renderNode(&b, n, base)
	}

	out := blankLines.ReplaceAllString(b.String(), "\n\n")

	return strings.TrimSpace(out) + "\n", nil
}

func renderNode(b *strings.Builder, n *html.Node, base *url.URL) {
	switch n.Type {
	case html.TextNode:
		if t := collapseSpace(n.Data); t != "" {
			b.WriteString(t)
			b.WriteString(" ")
		}
	case html.ElementNode:
		renderElement(b, n, base)
	}
}

func renderElement(b *strings.Builder, n *html.Node, base *url.URL) {
	switch n.Data {
	case "script", "style", "noscript", "iframe", "head", "svg":
		return
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		b.WriteString("\n\n" + strings.Repeat("#", level) + " ")
		renderChildren(b, n, base)
		b.WriteString("\n\n")
	case "p", "section", "article", "div", "header", "footer", "main", "nav":
		renderChildren(b, n, base)
		b.WriteString("\n\n")
	case "br":
		b.WriteString("\n")
	case "li":
		b.WriteString("- ")
		renderChildren(b, n, base)
		b.WriteString("\n")
	case "tr":
		renderTableRow(b, n, base)
	case "a":
		renderLink(b, n, base)
	case "img":
		alt := attr(n, "alt")
		if src := resolve(base, attr(n, "src")); src != "" {
			fmt.Fprintf(b, "![%s](%s) ", alt, src)
		}
	case "pre":
		b.WriteString("\n```\n")
		b.WriteString(strings.TrimSpace(nodeText(n)))
		b.WriteString("\n```\n\n")
	default:
		renderChildren(b, n, base)
	}
}

func renderChildren(b *strings.Builder, n *html.Node, base *url.URL) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c, base)
	}
}

func renderLink(b *strings.Builder, n *html.Node, base *url.URL) {
	text := collapseSpace(nodeText(n))
	href := resolve(base, attr(n, "href"))
	if href == "" {
		b.WriteString(text + " ")
		return
	}
	if text == "" {
		text = href
	}
	fmt.Fprintf(b, "[%s](%s) ", text, href)
}

func renderTableRow(b *strings.Builder, n *html.Node, base *url.URL) {
	var cells []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, collapseSpace(nodeText(c)))
		}
	}
	if len(cells) > 0 {
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
