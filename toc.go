package novelpub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// TOCItem is a flat table of contents entry. Href is relative to the
// document that lists it when writing, and a ZIP-internal path when read
// back by Inspect.
type TOCItem struct {
	Title string
	Href  string
}

// landmark is an entry of the nav document's landmarks list.
type landmark struct {
	Type  string // epub:type value, e.g. "cover", "bodymatter"
	Title string
	Href  string
}

// --- Nav document (ePub 3) ---

// buildNavDocument renders the XHTML nav document with a toc list and, when
// given, a landmarks list. Hrefs are relative to the nav document.
func buildNavDocument(title, lang string, toc []TOCItem, landmarks []landmark) []byte {
	var body strings.Builder
	body.WriteString(`<nav epub:type="toc" id="toc">` + "\n")
	fmt.Fprintf(&body, "<h1>%s</h1>\n<ol>\n", html.EscapeString(title))
	for _, item := range toc {
		fmt.Fprintf(&body, "<li><a href=\"%s\">%s</a></li>\n", html.EscapeString(item.Href), html.EscapeString(item.Title))
	}
	body.WriteString("</ol>\n</nav>\n")

	if len(landmarks) > 0 {
		body.WriteString(`<nav epub:type="landmarks" id="landmarks" hidden="hidden">` + "\n<ol>\n")
		for _, lm := range landmarks {
			fmt.Fprintf(&body, "<li><a epub:type=\"%s\" href=\"%s\">%s</a></li>\n",
				html.EscapeString(lm.Type), html.EscapeString(lm.Href), html.EscapeString(lm.Title))
		}
		body.WriteString("</ol>\n</nav>\n")
	}
	return xhtmlDocument(title, lang, body.String())
}

// parseNavTOC parses a nav document and returns its toc entries with hrefs
// resolved against navPath. Nested lists are flattened in document order.
func parseNavTOC(data []byte, navPath string) ([]TOCItem, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("novelpub: parse nav document: %w", err)
	}

	var nav *html.Node
	var findTOC func(*html.Node)
	findTOC = func(n *html.Node) {
		if nav != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "nav" && hasEpubType(n, "toc") {
			nav = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findTOC(c)
		}
	}
	findTOC(doc)
	if nav == nil {
		return nil, nil
	}

	var items []TOCItem
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			item := TOCItem{Title: normalizeSpace(nodeTextContent(n))}
			if href := nodeAttr(n, "href"); href != "" {
				item.Href = resolveRelativePath(navPath, hrefWithoutFragment(href))
			}
			items = append(items, item)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(nav)
	return items, nil
}

// hasEpubType checks whether n's epub:type attribute contains typeName.
func hasEpubType(n *html.Node, typeName string) bool {
	for _, t := range strings.Fields(nodeAttr(n, "epub:type")) {
		if t == typeName {
			return true
		}
	}
	return false
}

// nodeAttr returns the value of the attribute with the given key on n.
func nodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeTextContent recursively collects all text content within a node.
func nodeTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeTextContent(c))
	}
	return sb.String()
}

// hrefWithoutFragment strips a "#fragment" suffix.
func hrefWithoutFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}

// --- NCX (ePub 2 fallback) ---

const ncxNamespace = "http://www.daisy.org/z3986/2005/ncx/"

// ncxDocument represents the root <ncx> element of an NCX file.
type ncxDocument struct {
	XMLName  xml.Name  `xml:"ncx"`
	Xmlns    string    `xml:"xmlns,attr"`
	Version  string    `xml:"version,attr"`
	Head     []ncxMeta `xml:"head>meta"`
	DocTitle ncxText   `xml:"docTitle"`
	NavMap   ncxNavMap `xml:"navMap"`
}

type ncxMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type ncxText struct {
	Text string `xml:"text"`
}

// ncxNavMap represents the <navMap> element containing top-level navPoints.
type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

// ncxNavPoint represents a single <navPoint>. Chapters are never nested.
type ncxNavPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     ncxText    `xml:"navLabel"`
	Content   ncxContent `xml:"content"`
}

// ncxContent represents the <content> element with its src attribute.
type ncxContent struct {
	Src string `xml:"src,attr"`
}

// buildNCX renders toc.ncx for readers without nav document support.
// Hrefs are relative to the NCX file.
func buildNCX(uid, title string, toc []TOCItem) ([]byte, error) {
	doc := ncxDocument{
		Xmlns:   ncxNamespace,
		Version: "2005-1",
		Head: []ncxMeta{
			{Name: "dtb:uid", Content: uid},
			{Name: "dtb:depth", Content: "1"},
			{Name: "dtb:totalPageCount", Content: "0"},
			{Name: "dtb:maxPageNumber", Content: "0"},
		},
		DocTitle: ncxText{Text: title},
	}
	for i, item := range toc {
		doc.NavMap.NavPoints = append(doc.NavMap.NavPoints, ncxNavPoint{
			ID:        "navPoint-" + strconv.Itoa(i+1),
			PlayOrder: i + 1,
			Label:     ncxText{Text: item.Title},
			Content:   ncxContent{Src: item.Href},
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("novelpub: encode NCX: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}
