package editing

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ComposeSurface joins a page's heading, subtitle, and body into the
// single rich-text editing surface.
func ComposeSurface(heading, subtitle, content string) string {
	return fmt.Sprintf("<h2>%s</h2>\n<h4>%s</h4>\n%s", heading, subtitle, content)
}

// SplitSurface parses the combined surface back into its parts: the
// first top-level h2 becomes the heading, the first top-level h4 the
// subtitle, and everything else the body. Missing headings yield empty
// strings rather than errors; the editor surface is free-form.
func SplitSurface(surface string) (heading, subtitle, content string, err error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(surface), body)
	if err != nil {
		return "", "", "", err
	}

	var rest []string
	headingSeen, subtitleSeen := false, false
	for _, n := range nodes {
		switch {
		case !headingSeen && n.Type == html.ElementNode && n.DataAtom == atom.H2:
			heading = strings.TrimSpace(nodeText(n))
			headingSeen = true
		case !subtitleSeen && n.Type == html.ElementNode && n.DataAtom == atom.H4:
			subtitle = strings.TrimSpace(nodeText(n))
			subtitleSeen = true
		default:
			var sb strings.Builder
			if err := html.Render(&sb, n); err != nil {
				return "", "", "", err
			}
			rest = append(rest, sb.String())
		}
	}
	content = strings.TrimSpace(strings.Join(rest, ""))
	return heading, subtitle, content, nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}
