package cleaner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var footnoteNumberRe = regexp.MustCompile(`^\[?\(?\d+\)?\]?$`)

// consolidateFootnotes moves scattered in-document footnote targets into
// one trailing "Notes" section, deduplicated by target id and ordered by
// first reference. References gain a superscript marker; targets that are
// already consolidated are left alone, which keeps the step idempotent.
// Any internal failure is returned for the caller to log; the document is
// left in whatever state the step reached.
func (c *Cleaner) consolidateFootnotes(doc *goquery.Document, result *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("footnote consolidation panicked: %v", r)
		}
	}()

	// Map of id -> node for quick target lookup.
	ids := make(map[string]*html.Node)
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && id != "" {
			if _, exists := ids[id]; !exists {
				ids[id] = s.Nodes[0]
			}
		}
	})

	var items []*html.Node
	processed := make(map[string]bool)

	for _, n := range snapshot(doc, `a[href^='#']`) {
		anchor := doc.FindNodes(n)
		if anchor.Length() == 0 {
			continue // sat inside an already-extracted footnote
		}

		href, _ := anchor.Attr("href")
		targetID := strings.TrimPrefix(href, "#")
		targetNode, ok := ids[targetID]
		if !ok {
			continue
		}

		// A link qualifies as a footnote reference if its visible text is
		// a bracketed number or the target id carries a footnote token.
		text := strings.TrimSpace(anchor.Text())
		lowerID := strings.ToLower(targetID)
		isNumber := footnoteNumberRe.MatchString(text)
		isFootnoteID := strings.Contains(lowerID, "footnote") ||
			strings.Contains(lowerID, "fn") ||
			strings.Contains(lowerID, "ref")
		if !isNumber && !isFootnoteID {
			continue
		}

		// Superscript marker on the reference; skip if already wrapped.
		if anchor.Find("sup").Length() == 0 {
			anchor.SetHtml("<sup>" + html.EscapeString(anchor.Text()) + "</sup>")
		}

		if processed[targetID] {
			continue
		}
		processed[targetID] = true

		target := doc.FindNodes(targetNode)
		if target.Length() == 0 {
			continue
		}
		// Already consolidated on a previous pass.
		if target.HasClass(endnoteItemClass) ||
			target.Closest("."+endnotesClass).Length() > 0 {
			continue
		}

		target.Remove()

		// Jump-back arrows carry no informational value in print.
		target.Find(`a[href^='#']`).Each(func(_ int, back *goquery.Selection) {
			t := strings.TrimSpace(back.Text())
			if len(t) < 3 || strings.Contains(strings.ToLower(t), "return") {
				back.Remove()
			}
		})

		entry := target.Nodes[0]
		switch goquery.NodeName(target) {
		case "div", "p", "li":
		default:
			wrapper := newElement("div")
			wrapper.AppendChild(entry)
			entry = wrapper
		}
		addClass(entry, endnoteItemClass)
		items = append(items, entry)
	}

	if len(items) == 0 {
		return nil
	}

	container := newElement("div")
	setAttr(container, "class", endnotesClass)
	heading := newElement("h3")
	heading.AppendChild(&html.Node{Type: html.TextNode, Data: "Notes"})
	container.AppendChild(heading)
	for _, item := range items {
		container.AppendChild(item)
	}

	body := doc.Find("body")
	if body.Length() > 0 {
		body.First().AppendNodes(container)
	} else {
		doc.Selection.AppendNodes(container)
	}

	result.Stats.Footnotes = len(items)
	return nil
}

const (
	endnotesClass    = "endnotes"
	endnoteItemClass = "endnote-item"
)

func newElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func addClass(n *html.Node, class string) {
	for i, a := range n.Attr {
		if a.Key == "class" {
			if !strings.Contains(" "+a.Val+" ", " "+class+" ") {
				n.Attr[i].Val = strings.TrimSpace(a.Val + " " + class)
			}
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}
