package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boilerplateRule is one independent predicate over a candidate element.
// remove reports whether the element should be deleted. Rules run in table
// order; the first match wins and later rules are skipped for that
// element.
type boilerplateRule struct {
	name   string
	remove func(cfg *Config, s *goquery.Selection, text, lower, author string) bool
}

var (
	dotsOnlyRe       = regexp.MustCompile(`^[.\s…]+$`)
	standaloneDateRe = regexp.MustCompile(`^[A-Z][a-z]{2,8}\s+\d{1,2}(,\s+\d{4})?$`)
	paidMarkerRe     = regexp.MustCompile(`(?i)^[.·•]?\s*paid$`)
)

// boilerplateRules is the ordered rule table applied to every candidate
// element. Length caps prevent deleting an ancestor that wraps real
// content alongside the boilerplate line.
var boilerplateRules = []boilerplateRule{
	{
		name: "forwarded-subscribe",
		remove: func(cfg *Config, _ *goquery.Selection, text, lower, _ string) bool {
			return len(text) < cfg.ForwardedTextCap &&
				strings.Contains(lower, "forwarded this email") &&
				strings.Contains(lower, "subscribe")
		},
	},
	{
		name: "punctuation-only",
		remove: func(_ *Config, _ *goquery.Selection, text, _, _ string) bool {
			return text != "" && dotsOnlyRe.MatchString(text)
		},
	},
	{
		name: "standalone-date",
		remove: func(cfg *Config, _ *goquery.Selection, text, _, _ string) bool {
			return len(text) < cfg.DateTextCap && standaloneDateRe.MatchString(text)
		},
	},
	{
		name: "empty-no-media",
		remove: func(_ *Config, s *goquery.Selection, text, _, _ string) bool {
			return text == "" && s.Find("img, iframe").Length() == 0
		},
	},
	{
		name: "paid-marker",
		remove: func(_ *Config, _ *goquery.Selection, text, _, _ string) bool {
			return paidMarkerRe.MatchString(text)
		},
	},
	{
		name: "author-byline",
		remove: func(cfg *Config, s *goquery.Selection, _, lower, author string) bool {
			if author == "" {
				return false
			}
			text := strings.TrimSpace(strings.TrimPrefix(lower, "by "))
			if text == "" || len(text) >= len(author)+cfg.AuthorTolerance {
				return false
			}
			if text != author && !strings.Contains(text, author) {
				return false
			}
			// Only standalone byline links, not prose mentioning the author.
			return s.Is("a") || s.Find("a").Length() > 0
		},
	},
	{
		name: "ad-marker",
		remove: func(cfg *Config, _ *goquery.Selection, text, lower, _ string) bool {
			for _, marker := range cfg.ExactAdMarkers {
				if lower == marker {
					return true
				}
			}
			if len(text) >= cfg.AdTextCap {
				return false
			}
			for _, marker := range cfg.AdMarkers {
				if strings.Contains(lower, marker) {
					return true
				}
			}
			return false
		},
	},
	{
		name: "footer-phrase",
		remove: func(cfg *Config, _ *goquery.Selection, text, lower, _ string) bool {
			if len(text) >= cfg.FooterTextCap {
				return false
			}
			for _, phrase := range cfg.FooterPhrases {
				if strings.Contains(lower, phrase) {
					return true
				}
			}
			return false
		},
	},
	{
		name: "staff-signature",
		remove: func(cfg *Config, _ *goquery.Selection, text, lower, _ string) bool {
			if len(text) >= cfg.SignatureTextCap || !strings.Contains(text, "@") {
				return false
			}
			return strings.Contains(lower, "editor") || strings.Contains(lower, "reporter")
		},
	},
	{
		name: "read-in-app",
		remove: func(cfg *Config, _ *goquery.Selection, text, lower, _ string) bool {
			return len(text) < cfg.ReadInAppCap && strings.Contains(lower, "read in app")
		},
	},
}
