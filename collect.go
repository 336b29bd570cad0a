package fenceline

import (
	"strings"

	"golang.org/x/net/html"
)

// codeNode is one fenced code block found in a document tree.
type codeNode struct {
	pre    *html.Node // <pre> element to be replaced
	parent *html.Node
	index  int // position of pre among parent's children

	lang string
	meta string
	text string
}

// collectCodeNodes walks the tree once and returns every code block
// with its parent and position, in document order.
//
// A code block is a <pre> element whose first element child is <code>.
// The language comes from a "language-*" class on the <code> element,
// the meta string from its data-meta attribute.
func collectCodeNodes(doc *html.Node) []codeNode {
	var nodes []codeNode
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		idx := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if cn, ok := asCodeNode(n, c, idx); ok {
				nodes = append(nodes, cn)
			} else {
				walk(c)
			}
			idx++
		}
	}
	walk(doc)
	return nodes
}

func asCodeNode(parent, n *html.Node, idx int) (codeNode, bool) {
	if n.Type != html.ElementNode || n.Data != "pre" {
		return codeNode{}, false
	}
	code := firstElementChild(n)
	if code == nil || code.Data != "code" {
		return codeNode{}, false
	}
	return codeNode{
		pre:    n,
		parent: parent,
		index:  idx,
		lang:   languageOf(code),
		meta:   attrVal(code, "data-meta"),
		text:   textContent(code),
	}, true
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// languageOf extracts the language tag from a "language-*" class.
func languageOf(code *html.Node) string {
	for _, class := range strings.Fields(attrVal(code, "class")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok {
			return lang
		}
	}
	return ""
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates all text beneath n, in document order.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// expandTabs replaces each tab with width spaces.
// Width zero or less keeps the text unchanged.
func expandTabs(s string, width int) string {
	if width <= 0 || !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", width))
}
