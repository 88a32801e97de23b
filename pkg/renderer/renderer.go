// Package renderer produces the print-ready dossier from assembled
// articles. The PDF path walks the cleaned HTML fragments directly; an
// HTML writer backed by an embedded template exists for debugging the
// composed document.
package renderer

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/mwhitfield/dossier/pkg/assembler"
)

// Renderer turns an ordered article sequence into a document.
type Renderer interface {
	// Render produces the document bytes for the given articles.
	// dateLabel is the human-readable run date shown on the masthead.
	Render(articles []assembler.Article, dateLabel string) ([]byte, error)
}

//go:embed templates/dossier.html
var templateFS embed.FS

var dossierTemplate = template.Must(template.ParseFS(templateFS, "templates/dossier.html"))

type templateArticle struct {
	Title   string
	Author  string
	Date    string
	Content template.HTML
}

type templateData struct {
	Date     string
	Articles []templateArticle
}

// WriteHTML composes the full dossier HTML document. Article content is
// already-cleaned HTML and is inserted unescaped.
func WriteHTML(w io.Writer, articles []assembler.Article, dateLabel string) error {
	data := templateData{Date: dateLabel}
	for _, a := range articles {
		data.Articles = append(data.Articles, templateArticle{
			Title:   a.Title,
			Author:  a.Author,
			Date:    a.Date,
			Content: template.HTML(a.Content), //#nosec G203 -- content comes from our own cleaner
		})
	}
	if err := dossierTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render dossier template: %w", err)
	}
	return nil
}
