package litpost

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteLinks makes every link that does not point into the site, i.e.
// whose href does not start with "/", open in a new tab. Applying it twice
// gives the same markup as applying it once.
func RewriteLinks(markup string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return "", fmt.Errorf("parsing markup: %w", err)
	}

	var b strings.Builder
	for _, n := range nodes {
		rewriteLinks(n)
		if err := html.Render(&b, n); err != nil {
			return "", fmt.Errorf("rendering markup: %w", err)
		}
	}
	return b.String(), nil
}

func rewriteLinks(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		href, _ := attr(n, "href")
		if !strings.HasPrefix(href, "/") {
			setAttr(n, "target", "_blank")
			setAttr(n, "rel", "noopener noreferrer")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteLinks(c)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
