package cleaner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/mwhitfield/dossier/internal/logger"
)

// Cleaner reduces one email HTML document to its article content.
type Cleaner struct {
	config *Config
	stats  *Stats
}

// New creates a Cleaner. A nil config uses DefaultConfig.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cleaner{config: config}
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "rules"
}

// Clean strips boilerplate from the HTML fragment and consolidates
// footnotes. title, when non-empty, removes a leading heading duplicating
// the subject; author removes standalone byline links. Clean never fails
// the caller: on parse failure the input is returned unchanged.
func (c *Cleaner) Clean(htmlContent, title, author string) string {
	return c.CleanWithStats(htmlContent, title, author).Content
}

// CleanWithStats performs cleaning and returns detailed stats.
func (c *Cleaner) CleanWithStats(htmlContent, title, author string) *Result {
	startTime := time.Now()
	result := &Result{Stats: NewStats()}
	result.Stats.InputBytes = len(htmlContent)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		result.Content = htmlContent
		result.AddWarning("parse", "HTML parse failed, returning original", err.Error())
		result.Stats.OutputBytes = len(htmlContent)
		result.Stats.TotalDuration = time.Since(startTime)
		return result
	}

	c.transform(doc, title, author, result)

	output, err := c.generateOutput(doc)
	if err != nil {
		result.Content = htmlContent
		result.AddWarning("output", "output generation failed, returning original", err.Error())
		result.Stats.OutputBytes = len(htmlContent)
	} else {
		result.Content = output
		result.Stats.OutputBytes = len(output)
	}

	result.Stats.TotalDuration = time.Since(startTime)
	c.stats = result.Stats
	return result
}

// Stats returns the stats from the last Clean operation.
func (c *Cleaner) Stats() *Stats {
	return c.stats
}

// transform applies the pipeline in order. Footnote consolidation must run
// before the empty-element sweeps so extracted footnote containers are not
// mistaken for boilerplate; style stripping runs last.
func (c *Cleaner) transform(doc *goquery.Document, title, author string, result *Result) {
	c.stripNonContent(doc, result)

	if err := c.consolidateFootnotes(doc, result); err != nil {
		logger.Warn("footnote consolidation failed", "error", err)
		result.AddWarning("footnotes", "footnote consolidation failed, continuing", err.Error())
	}

	if title != "" {
		c.stripTitleHeading(doc, title, result)
	}

	c.applyBoilerplateRules(doc, author, result)
	c.removeBoilerplateClasses(doc, result)
	c.removeActionWords(doc, result)
	c.removeTinyImages(doc, result)
	c.removeEmptyLeaves(doc, result)
	c.sweepEmptyContainers(doc, result)
	c.stripStyleAttributes(doc)
}

// stripNonContent removes elements that never hold article content.
func (c *Cleaner) stripNonContent(doc *goquery.Document, result *Result) {
	doc.Find("script, style, meta, link, noscript").Each(func(_ int, s *goquery.Selection) {
		result.Stats.RecordRemoval(goquery.NodeName(s))
		s.Remove()
	})
}

// stripTitleHeading removes the first of the document's leading headings
// whose text duplicates the email subject. At most the first two h1/h2
// elements are inspected, and at most one is removed.
func (c *Cleaner) stripTitleHeading(doc *goquery.Document, title string, result *Result) {
	target := strings.ToLower(strings.TrimSpace(title))
	if target == "" {
		return
	}

	doc.Find("h1, h2").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= 2 {
			return false
		}
		text := strings.ToLower(textOf(s))
		if text == "" {
			return true
		}
		if text == target ||
			(len(target) > 10 && strings.Contains(text, target)) ||
			(len(text) > 10 && strings.Contains(target, text)) {
			result.Stats.RecordRemoval("title-dedup")
			s.Remove()
			return false
		}
		return true
	})
}

// applyBoilerplateRules runs the ordered rule table over candidate
// elements. The candidate set is snapshotted before any mutation so
// removals cannot invalidate the iteration; an element detached by an
// earlier removal is skipped.
func (c *Cleaner) applyBoilerplateRules(doc *goquery.Document, author string, result *Result) {
	normAuthor := normalizeByline(author)

	nodes := snapshot(doc, "p, div, span, h3, h4, blockquote")
	for _, n := range nodes {
		s := doc.FindNodes(n)
		if s.Length() == 0 {
			continue // removed along with an ancestor
		}

		text := textOf(s)
		lower := strings.ToLower(text)

		for _, rule := range boilerplateRules {
			if rule.remove(c.config, s, text, lower, normAuthor) {
				result.Stats.RecordRemoval(rule.name)
				s.Remove()
				break
			}
		}
	}
}

// removeBoilerplateClasses drops known newsletter-platform widgets.
func (c *Cleaner) removeBoilerplateClasses(doc *goquery.Document, result *Result) {
	for _, class := range c.config.BoilerplateClasses {
		doc.Find("." + class).Each(func(_ int, s *goquery.Selection) {
			result.Stats.RecordRemoval("class:" + class)
			s.Remove()
		})
	}
}

// removeActionWords drops small blocks whose whole text is a share/
// subscribe style action word.
func (c *Cleaner) removeActionWords(doc *goquery.Document, result *Result) {
	words := make(map[string]bool, len(c.config.ActionWords))
	for _, w := range c.config.ActionWords {
		words[w] = true
	}

	nodes := snapshot(doc, "p, div, span, a")
	for _, n := range nodes {
		s := doc.FindNodes(n)
		if s.Length() == 0 {
			continue
		}
		text := strings.ToLower(textOf(s))
		if words[text] {
			result.Stats.RecordRemoval("action-word")
			s.Remove()
		}
	}
}

// removeTinyImages drops images with explicitly small dimensions, which
// are tracking pixels or icons. Images without explicit dimensions are
// kept.
func (c *Cleaner) removeTinyImages(doc *goquery.Document, result *Result) {
	max := c.config.TinyImageMax
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if attrDimensionAtMost(s, "width", max) || attrDimensionAtMost(s, "height", max) {
			result.Stats.RecordRemoval("tiny-image")
			s.Remove()
		}
	})
}

func attrDimensionAtMost(s *goquery.Selection, attr string, max int) bool {
	v, ok := s.Attr(attr)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return n <= max
}

var punctuationOnlyRe = regexp.MustCompile(`^[.\s…•·∙]+$`)

// removeEmptyLeaves drops leaf elements whose visible text is empty or
// pure punctuation. Void elements that are meaningful without text are
// exempt.
func (c *Cleaner) removeEmptyLeaves(doc *goquery.Document, result *Result) {
	nodes := snapshot(doc, "*")
	for _, n := range nodes {
		s := doc.FindNodes(n)
		if s.Length() == 0 {
			continue
		}
		if voidElements[goquery.NodeName(s)] {
			continue
		}
		if s.Children().Length() > 0 {
			continue
		}
		text := strings.TrimSpace(s.Text())
		if text == "" || punctuationOnlyRe.MatchString(text) {
			result.Stats.RecordRemoval("empty-leaf")
			s.Remove()
		}
	}
}

// sweepEmptyContainers repeats an empty-element pass over block and table
// elements, catching containers emptied by earlier steps. Containers
// holding media or structural voids are kept.
func (c *Cleaner) sweepEmptyContainers(doc *goquery.Document, result *Result) {
	containers := "div, p, section, blockquote, table, thead, tbody, tr, td, th, ul, ol, li"
	for i := 0; i < 3; i++ {
		removed := 0
		nodes := snapshot(doc, containers)
		for _, n := range nodes {
			s := doc.FindNodes(n)
			if s.Length() == 0 {
				continue
			}
			if s.Find("img, iframe, hr, br, input").Length() > 0 {
				continue
			}
			if strings.TrimSpace(s.Text()) != "" {
				continue
			}
			result.Stats.RecordRemoval("empty-container")
			s.Remove()
			removed++
		}
		if removed == 0 {
			break
		}
	}
}

// stripStyleAttributes removes every inline style so the dossier template
// controls presentation.
func (c *Cleaner) stripStyleAttributes(doc *goquery.Document) {
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr("style")
	})
}

// generateOutput returns the body content renamed to a generic container.
func (c *Cleaner) generateOutput(doc *goquery.Document) (string, error) {
	body := doc.Find("body")
	if body.Length() > 0 {
		// Re-cleaning already-wrapped output must not nest another wrapper.
		children := body.Children()
		if children.Length() == 1 && children.Is("div.article-content") &&
			strings.TrimSpace(body.Contents().Not("*").Text()) == "" {
			outer, err := goquery.OuterHtml(children)
			if err != nil {
				return "", fmt.Errorf("failed to serialize body: %w", err)
			}
			return outer, nil
		}
		inner, err := body.Html()
		if err != nil {
			return "", fmt.Errorf("failed to serialize body: %w", err)
		}
		return `<div class="article-content">` + inner + `</div>`, nil
	}

	full, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}
	return `<div class="article-content">` + full + `</div>`, nil
}

// snapshot collects the matched nodes before any mutation, so rules can
// remove elements without invalidating the iteration.
func snapshot(doc *goquery.Document, selector string) []*html.Node {
	sel := doc.Find(selector)
	nodes := make([]*html.Node, len(sel.Nodes))
	copy(nodes, sel.Nodes)
	return nodes
}

// textOf returns the element's visible text with whitespace collapsed.
func textOf(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// normalizeByline lowercases and strips a leading "by " from a name.
func normalizeByline(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSpace(strings.TrimPrefix(name, "by "))
}

// voidElements are meaningful without text content.
var voidElements = map[string]bool{
	"img": true, "br": true, "hr": true, "iframe": true,
	"source": true, "track": true, "area": true, "col": true,
	"input": true, "meta": true, "link": true, "embed": true,
	"wbr": true, "base": true, "param": true,
}
