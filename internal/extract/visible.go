package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is the visible text of a document as a reader would see it printed.
type Page struct {
	Title string
	Text  string
}

// VisibleText walks parsed markup and keeps what a print of the page would
// show: headings, paragraphs, list items and preformatted blocks. Scripts,
// styles and consent banners are dropped. Unlike the readability path it does
// not try to isolate the article; navigation and sidebars stay in.
func VisibleText(markup string) Page {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil || root == nil {
		return Page{}
	}
	w := &textWalker{}
	if body := firstElement(root, "body"); body != nil {
		w.walk(body, false)
	}
	return Page{Title: strings.TrimSpace(titleOf(root)), Text: tidyLines(w.b.String())}
}

// fragmentText is the visible text of a markup fragment such as a
// readability article body.
func fragmentText(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return ""
	}
	w := &textWalker{}
	for _, n := range nodes {
		w.walk(n, false)
	}
	return tidyLines(w.b.String())
}

type textWalker struct {
	b strings.Builder
}

func (w *textWalker) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		data := n.Data
		if !pre {
			data = strings.NewReplacer("\t", " ", "\r", " ").Replace(data)
		}
		w.b.WriteString(data)
		return
	case html.ElementNode:
		if isConsentBanner(n) {
			return
		}
		switch n.Data {
		case "script", "style", "noscript", "template", "iframe", "svg":
			return
		case "pre":
			pre = true
		case "br", "hr":
			w.b.WriteByte('\n')
		case "td", "th":
			w.b.WriteByte(' ')
		}
		if isBlock(n.Data) {
			w.b.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, pre)
	}
	if n.Type == html.ElementNode && isBlock(n.Data) {
		w.b.WriteString("\n\n")
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "main", "header", "footer", "nav", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "pre", "blockquote", "table", "tr":
		return true
	}
	return false
}

func titleOf(root *html.Node) string {
	t := firstElement(root, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func firstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// isConsentBanner matches cookie and consent overlays by id, class, role or data attributes.
func isConsentBanner(n *html.Node) bool {
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if key != "id" && key != "class" && key != "role" && key != "aria-label" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(a.Val)
		for _, marker := range []string{"cookie", "consent", "gdpr"} {
			if strings.Contains(val, marker) {
				return true
			}
		}
	}
	return false
}

// tidyLines collapses runs of spaces inside lines and keeps at most one blank
// line between blocks.
func tidyLines(s string) string {
	out := make([]string, 0, 32)
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
