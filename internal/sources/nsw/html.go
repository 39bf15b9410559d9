package nsw

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// matcher selects element nodes.
type matcher func(*html.Node) bool

func element(a atom.Atom) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	}
}

func withClass(a atom.Atom, class string) matcher {
	return func(n *html.Node) bool {
		return element(a)(n) && hasClass(n, class)
	}
}

func withID(a atom.Atom, id string) matcher {
	return func(n *html.Node) bool {
		v, _ := attr(n, "id")
		return element(a)(n) && v == id
	}
}

func withIDSuffix(a atom.Atom, suffix string) matcher {
	return func(n *html.Node) bool {
		v, _ := attr(n, "id")
		return element(a)(n) && v != "" && strings.HasSuffix(v, suffix)
	}
}

// findAll returns the descendants of n matching m, in document order.
func findAll(n *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			out = append(out, c)
		}
		out = append(out, findAll(c, m)...)
	}
	return out
}

// find returns the first descendant of n matching m.
func find(n *html.Node, m matcher) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if found := find(c, m); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// text joins the trimmed, non-empty text nodes under n with sep.
func text(n *html.Node, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, sep)
}

// after returns the trimmed text following the last occurrence of label.
func after(s, label string) string {
	if i := strings.LastIndex(s, label); i >= 0 {
		return strings.TrimSpace(s[i+len(label):])
	}
	return strings.TrimSpace(s)
}
