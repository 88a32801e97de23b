package cleaner

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("nil config uses default", func(t *testing.T) {
		c := New(nil)
		if c == nil {
			t.Fatal("expected non-nil cleaner")
		}
		if c.config == nil {
			t.Fatal("expected non-nil config")
		}
		if c.config.TinyImageMax != 50 {
			t.Errorf("expected default TinyImageMax 50, got %d", c.config.TinyImageMax)
		}
	})

	t.Run("custom config is used", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TinyImageMax = 10
		c := New(cfg)
		if c.config.TinyImageMax != 10 {
			t.Errorf("expected TinyImageMax 10, got %d", c.config.TinyImageMax)
		}
	})
}

func TestName(t *testing.T) {
	c := New(nil)
	if c.Name() != "rules" {
		t.Errorf("expected name 'rules', got '%s'", c.Name())
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		title    string
		author   string
		contains []string
		excludes []string
	}{
		{
			name:     "removes script and style tags",
			html:     `<html><body><p>Hello</p><script>alert('x')</script><style>.a{color:red}</style></body></html>`,
			contains: []string{"Hello"},
			excludes: []string{"<script>", "alert", "<style>", "color:red"},
		},
		{
			name:     "wraps output in article container",
			html:     `<html><body><p>Hello</p></body></html>`,
			contains: []string{`<div class="article-content">`, "<p>Hello</p>"},
		},
		{
			name:     "removes forwarded subscribe banner",
			html:     `<html><body><p>Someone forwarded this email to you? Subscribe to get it yourself.</p><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"forwarded this email"},
		},
		{
			name:     "removes punctuation-only paragraphs",
			html:     `<html><body><p>…</p><p>. . .</p><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"…", ". . ."},
		},
		{
			name:     "removes standalone date lines",
			html:     `<html><body><p>March 14, 2024</p><p>On March 14, 2024 the committee met.</p></body></html>`,
			contains: []string{"the committee met"},
			excludes: []string{"<p>March 14, 2024</p>"},
		},
		{
			name:     "removes paid markers",
			html:     `<html><body><p>· Paid</p><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"Paid"},
		},
		{
			name:     "removes exact ad markers regardless of case",
			html:     `<html><body><p>ADVERTISEMENT</p><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"ADVERTISEMENT"},
		},
		{
			name:     "removes short sponsored blocks",
			html:     `<html><body><p>Sponsored by Acme Widgets</p><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"Sponsored by"},
		},
		{
			name: "keeps long blocks mentioning a sponsor",
			html: `<html><body><p>` + strings.Repeat("Words about the industry. ", 12) +
				`The conference was sponsored by Acme.</p></body></html>`,
			contains: []string{"sponsored by Acme"},
		},
		{
			name:     "removes footer phrases",
			html:     `<html><body><p>Real content.</p><p>You are receiving this email because you signed up.</p><p>Unsubscribe</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"receiving this email", "Unsubscribe"},
		},
		{
			name:     "removes staff signatures",
			html:     `<html><body><p>Real content.</p><p>Jane Doe, Senior Editor, jane@example.com</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"jane@example.com"},
		},
		{
			name:     "removes read in app links",
			html:     `<html><body><p>Read in app</p><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"Read in app"},
		},
		{
			name:     "removes boilerplate platform classes",
			html:     `<html><body><div class="subscription-widget-wrap"><p>Subscribe now</p></div><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"subscription-widget-wrap", "Subscribe now"},
		},
		{
			name:     "removes action word blocks",
			html:     `<html><body><p>Share</p><a href="/c">Comment</a><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{">Share<", ">Comment<"},
		},
		{
			name:     "removes tracking pixels",
			html:     `<html><body><img src="track.gif" width="1" height="1"/><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"track.gif"},
		},
		{
			name:     "keeps content images",
			html:     `<html><body><img src="photo.jpg" width="400"/><img src="nodims.jpg"/><p>Real content.</p></body></html>`,
			contains: []string{"photo.jpg", "nodims.jpg"},
		},
		{
			name:     "removes empty containers",
			html:     `<html><body><div><div><span>  </span></div></div><p>Real content.</p></body></html>`,
			contains: []string{"Real content."},
			excludes: []string{"<span>"},
		},
		{
			name:     "keeps empty containers holding media",
			html:     `<html><body><div><img src="photo.jpg"/></div><p>Real content.</p></body></html>`,
			contains: []string{"photo.jpg"},
		},
		{
			name:     "strips inline styles",
			html:     `<html><body><p style="color:red">Hello</p></body></html>`,
			contains: []string{"<p>Hello</p>"},
			excludes: []string{"style=", "color:red"},
		},
		{
			name:     "removes heading duplicating the subject",
			html:     `<html><body><h1>The Weekly Roundup</h1><p>Real content.</p></body></html>`,
			title:    "The Weekly Roundup",
			contains: []string{"Real content."},
			excludes: []string{"<h1>"},
		},
		{
			name:     "removes heading containing the subject",
			html:     `<html><body><h2>🔥 The Weekly Roundup 🔥</h2><p>Real content.</p></body></html>`,
			title:    "The Weekly Roundup",
			contains: []string{"Real content."},
			excludes: []string{"<h2>"},
		},
		{
			name:     "keeps unrelated headings",
			html:     `<html><body><h1>A Different Headline</h1><p>Real content.</p></body></html>`,
			title:    "The Weekly Roundup",
			contains: []string{"A Different Headline", "Real content."},
		},
		{
			name:     "keeps headings past the first two",
			html:     `<html><body><h2>One</h2><h2>Two</h2><h2>The Weekly Roundup</h2><p>Real content.</p></body></html>`,
			title:    "The Weekly Roundup",
			contains: []string{"The Weekly Roundup", "Real content."},
		},
		{
			name:     "removes standalone author byline link",
			html:     `<html><body><p><a href="/about">By Jane Doe</a></p><p>Real content.</p></body></html>`,
			author:   "Jane Doe",
			contains: []string{"Real content."},
			excludes: []string{"By Jane Doe"},
		},
		{
			name:     "keeps prose mentioning the author",
			html:     `<html><body><p>Thanks to Jane Doe for reviewing a draft.</p></body></html>`,
			author:   "Jane Doe",
			contains: []string{"Thanks to Jane Doe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(nil)
			result := c.Clean(tt.html, tt.title, tt.author)

			for _, want := range tt.contains {
				if !strings.Contains(result, want) {
					t.Errorf("expected result to contain %q\ngot: %s", want, result)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(result, unwanted) {
					t.Errorf("expected result to NOT contain %q\ngot: %s", unwanted, result)
				}
			}
		})
	}
}

func TestCleanTitleDedupRemovesAtMostOne(t *testing.T) {
	html := `<html><body><h1>The Weekly Roundup</h1><h2>The Weekly Roundup</h2><p>Real content.</p></body></html>`
	result := New(nil).Clean(html, "The Weekly Roundup", "")

	if strings.Contains(result, "<h1>") {
		t.Error("expected first duplicate heading to be removed")
	}
	if !strings.Contains(result, "<h2>The Weekly Roundup</h2>") {
		t.Errorf("expected second heading to survive\ngot: %s", result)
	}
}

func TestCleanMalformedInputReturnsSomething(t *testing.T) {
	inputs := []string{
		"",
		"not html at all",
		"<div><p>unclosed",
		"<<<>>>",
	}
	c := New(nil)
	for _, in := range inputs {
		out := c.Clean(in, "", "")
		if in != "" && out == "" {
			t.Errorf("expected non-empty output for input %q", in)
		}
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	html := `<html><body>
		<h1>The Weekly Roundup</h1>
		<p>First paragraph with a note<a href="#fn1">1</a>.</p>
		<p>Sponsored by Acme</p>
		<p id="fn1">The note text. <a href="#ref1">Return to text</a></p>
		<img src="track.gif" width="1" height="1"/>
		<p>Second paragraph.</p>
	</body></html>`

	c := New(nil)
	once := c.Clean(html, "The Weekly Roundup", "")
	twice := c.Clean(once, "The Weekly Roundup", "")

	if once != twice {
		t.Errorf("expected cleaning to be idempotent\nfirst:  %s\nsecond: %s", once, twice)
	}
}

func TestCleanWithStats(t *testing.T) {
	html := `<html><body><script>x</script><p>Hello</p><p>…</p></body></html>`
	result := New(nil).CleanWithStats(html, "", "")

	if result.Stats.InputBytes != len(html) {
		t.Errorf("expected InputBytes %d, got %d", len(html), result.Stats.InputBytes)
	}
	if result.Stats.OutputBytes != len(result.Content) {
		t.Errorf("expected OutputBytes %d, got %d", len(result.Content), result.Stats.OutputBytes)
	}
	if result.Stats.ElementsRemoved == 0 {
		t.Error("expected some elements to be removed")
	}
	if result.Stats.RemovalsByRule["script"] != 1 {
		t.Errorf("expected 1 script removal, got %d", result.Stats.RemovalsByRule["script"])
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestNormalizeByline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Doe", "jane doe"},
		{"By Jane Doe", "jane doe"},
		{"  by Jane Doe  ", "jane doe"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeByline(tt.in); got != tt.want {
			t.Errorf("normalizeByline(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
