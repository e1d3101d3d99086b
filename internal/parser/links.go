// Package parser turns raw page markup into outgoing links (browse pages)
// and canonical section records (leaf pages).
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks returns every http(s) link found in the page, resolved
// against baseURL. Fragment-only, javascript: and other non-web links are
// skipped. Classification of the result is the caller's job.
func ExtractLinks(body []byte, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []string
	collectAnchors(doc, base, &links)
	return links, nil
}

func collectAnchors(n *html.Node, base *url.URL, links *[]string) {
	if n.Type == html.ElementNode && n.Data == "a" {
		if href := anchorHref(n); href != "" {
			if resolved := resolveLink(base, href); resolved != "" {
				*links = append(*links, resolved)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectAnchors(c, base, links)
	}
}

func anchorHref(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

// resolveLink makes href absolute against base and returns "" for links
// that cannot lead to a crawlable page.
func resolveLink(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
