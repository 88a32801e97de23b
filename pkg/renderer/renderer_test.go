package renderer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mwhitfield/dossier/pkg/assembler"
)

func sampleArticles() []assembler.Article {
	return []assembler.Article{
		{
			Title:   "First Article",
			Author:  "Jane Doe",
			Date:    "Mon, 02 Jan 2026 10:00:00 +0000",
			Content: `<div class="article-content"><p>First body.</p></div>`,
		},
		{
			Title:  "Second Article",
			Author: "John Smith",
			Content: `<div class="article-content"><h2>Heading</h2><p>Second body.</p>` +
				`<blockquote>A quote.</blockquote>` +
				`<ul><li>one</li><li>two</li></ul>` +
				`<div class="endnotes"><h3>Notes</h3><div class="endnote-item">A note.</div></div></div>`,
		},
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleArticles(), "Monday, January 5, 2026"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Monday, January 5, 2026",
		"First Article",
		"Second Article",
		"<p>First body.</p>", // content inserted unescaped
		"Jane Doe",
		"masthead",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected HTML to contain %q", want)
		}
	}

	if strings.Contains(out, "&lt;p&gt;") {
		t.Error("expected article content to be unescaped")
	}
}

func TestWriteHTMLEscapesTitles(t *testing.T) {
	articles := []assembler.Article{{
		Title:   `Tricky <script> & Title`,
		Content: "<p>x</p>",
	}}

	var buf bytes.Buffer
	if err := WriteHTML(&buf, articles, "today"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if strings.Contains(out, "<script>") {
		t.Error("expected title markup to be escaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Error("expected escaped title in output")
	}
}

func TestPDFRender(t *testing.T) {
	pdfBytes, err := NewPDF().Render(sampleArticles(), "Monday, January 5, 2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Errorf("expected PDF magic bytes, got %q", pdfBytes[:min(8, len(pdfBytes))])
	}
	if len(pdfBytes) < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", len(pdfBytes))
	}
}

func TestPDFRenderEmpty(t *testing.T) {
	pdfBytes, err := NewPDF().Render(nil, "today")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("expected a masthead-only PDF for empty input")
	}
}

func TestPDFRenderSkipsRemoteImages(t *testing.T) {
	articles := []assembler.Article{{
		Title:   "With Remote Image",
		Content: `<div class="article-content"><p>text</p><img src="https://example.com/x.png"/></div>`,
	}}

	pdfBytes, err := NewPDF().Render(articles, "today")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("expected valid PDF despite unembeddable image")
	}
}
