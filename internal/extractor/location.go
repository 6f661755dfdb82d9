package extractor

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// nodePath renders an XPath-like location such as /html[1]/body[1]/ul[1]/li[2].
// Indexes are 1-based and count preceding siblings with the same tag name.
func nodePath(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		idx := 1
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && s.Data == n.Data {
				idx++
			}
		}
		parts = append(parts, n.Data+"["+strconv.Itoa(idx)+"]")
	}

	if len(parts) == 0 {
		return "/"
	}

	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return b.String()
}
