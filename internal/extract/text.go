package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// plainText strips HTML markup when present and collapses whitespace.
func plainText(s string) string {
	if strings.ContainsRune(s, '<') && strings.ContainsRune(s, '>') {
		if doc, err := html.Parse(strings.NewReader(s)); err == nil {
			s = visibleText(doc)
		}
	}
	return collapse(s)
}

// visibleText extracts text nodes, skipping scripts and styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return buf.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
