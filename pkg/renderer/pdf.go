package renderer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jung-kurt/gofpdf"

	"github.com/mwhitfield/dossier/internal/logger"
	"github.com/mwhitfield/dossier/pkg/assembler"
)

// PDFRenderer renders articles into a paginated PDF using gofpdf.
type PDFRenderer struct{}

// NewPDF creates a PDFRenderer.
func NewPDF() *PDFRenderer {
	return &PDFRenderer{}
}

// Render produces the dossier PDF: a masthead page followed by one
// article per page break. Article HTML is walked element by element;
// inline images with resolvable local paths are embedded. A render
// failure is reported to the caller; no partial PDF is produced.
func (r *PDFRenderer) Render(articles []assembler.Article, dateLabel string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Dossier - "+dateLabel, true)
	pdf.SetAutoPageBreak(true, 15)

	// Masthead.
	pdf.AddPage()
	pdf.SetFont("Times", "B", 28)
	pdf.CellFormat(0, 20, "Dossier", "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "I", 12)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 8, dateLabel, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("%d articles", len(articles)), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	for _, article := range articles {
		pdf.AddPage()

		pdf.SetFont("Times", "B", 18)
		pdf.MultiCell(0, 8, article.Title, "", "L", false)

		pdf.SetFont("Times", "I", 10)
		pdf.SetTextColor(90, 90, 90)
		byline := article.Author
		if article.Date != "" {
			byline += "  ·  " + article.Date
		}
		pdf.MultiCell(0, 5, byline, "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)

		if err := r.renderContent(pdf, article.Content); err != nil {
			logger.Warn("falling back to plain text for article",
				"title", article.Title, "error", err)
			pdf.SetFont("Times", "", 10)
			pdf.MultiCell(0, 5, article.Content, "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF (%d articles, date %q): %w",
			len(articles), dateLabel, err)
	}
	return buf.Bytes(), nil
}

// renderContent walks the cleaned HTML fragment and emits PDF blocks.
func (r *PDFRenderer) renderContent(pdf *gofpdf.Fpdf, content string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse article content: %w", err)
	}

	root := doc.Find("div.article-content")
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	root.Children().Each(func(_ int, s *goquery.Selection) {
		r.renderBlock(pdf, s)
	})
	return nil
}

func (r *PDFRenderer) renderBlock(pdf *gofpdf.Fpdf, s *goquery.Selection) {
	switch goquery.NodeName(s) {
	case "h1":
		r.heading(pdf, s, 16)
	case "h2":
		r.heading(pdf, s, 14)
	case "h3":
		r.heading(pdf, s, 12)
	case "h4", "h5", "h6":
		r.heading(pdf, s, 11)
	case "p":
		r.paragraph(pdf, s, "", 10)
	case "blockquote":
		left, _, _, _ := pdf.GetMargins()
		pdf.SetLeftMargin(left + 8)
		pdf.SetTextColor(70, 70, 70)
		r.paragraph(pdf, s, "I", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetLeftMargin(left)
	case "ul", "ol":
		s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			pdf.SetFont("Times", "", 10)
			pdf.MultiCell(0, 5, "•  "+collapsedText(li), "", "L", false)
			r.images(pdf, li)
		})
		pdf.Ln(2)
	case "hr":
		x := pdf.GetX()
		y := pdf.GetY()
		pageW, _ := pdf.GetPageSize()
		_, _, rightMargin, _ := pdf.GetMargins()
		pdf.SetDrawColor(150, 150, 150)
		pdf.Line(x, y, pageW-rightMargin, y)
		pdf.Ln(4)
	case "img":
		r.image(pdf, s)
	case "br":
		pdf.Ln(3)
	default:
		if s.HasClass("endnotes") {
			r.endnotes(pdf, s)
			return
		}
		// Generic container: recurse into its children. A container with
		// no element children is rendered as a paragraph.
		if s.Children().Length() > 0 {
			s.Children().Each(func(_ int, child *goquery.Selection) {
				r.renderBlock(pdf, child)
			})
			return
		}
		if text := collapsedText(s); text != "" {
			pdf.SetFont("Times", "", 10)
			pdf.MultiCell(0, 5, text, "", "L", false)
			pdf.Ln(1)
		}
	}
}

func (r *PDFRenderer) heading(pdf *gofpdf.Fpdf, s *goquery.Selection, size float64) {
	text := collapsedText(s)
	if text == "" {
		return
	}
	pdf.Ln(2)
	pdf.SetFont("Times", "B", size)
	pdf.MultiCell(0, size*0.45, text, "", "L", false)
	pdf.Ln(1)
}

func (r *PDFRenderer) paragraph(pdf *gofpdf.Fpdf, s *goquery.Selection, style string, size float64) {
	if text := collapsedText(s); text != "" {
		pdf.SetFont("Times", style, size)
		pdf.MultiCell(0, 5, text, "", "L", false)
		pdf.Ln(1)
	}
	r.images(pdf, s)
}

func (r *PDFRenderer) endnotes(pdf *gofpdf.Fpdf, s *goquery.Selection) {
	pdf.Ln(4)
	pdf.SetFont("Times", "B", 11)
	pdf.MultiCell(0, 5, "Notes", "T", "L", false)
	s.Find(".endnote-item").Each(func(i int, item *goquery.Selection) {
		pdf.SetFont("Times", "", 8)
		pdf.MultiCell(0, 4, fmt.Sprintf("%d. %s", i+1, collapsedText(item)), "", "L", false)
	})
}

func (r *PDFRenderer) images(pdf *gofpdf.Fpdf, s *goquery.Selection) {
	s.Find("img").Each(func(_ int, img *goquery.Selection) {
		r.image(pdf, img)
	})
}

// supportedImageExt is what gofpdf can embed.
var supportedImageExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
}

// image embeds a local image scaled to the content width. Remote or
// unreadable sources are skipped.
func (r *PDFRenderer) image(pdf *gofpdf.Fpdf, s *goquery.Selection) {
	src, ok := s.Attr("src")
	if !ok || src == "" || strings.Contains(src, "://") {
		return
	}
	if _, err := os.Stat(src); err != nil {
		logger.Debug("skipping unresolvable image", "src", src)
		return
	}
	ext := strings.ToLower(filepath.Ext(src))
	if !supportedImageExt[ext] {
		logger.Debug("skipping unsupported image format", "src", src)
		return
	}

	// Leave ImageType empty so gofpdf infers it from the extension.
	opts := gofpdf.ImageOptions{ReadDpi: true}
	info := pdf.RegisterImageOptions(src, opts)
	if info == nil {
		return
	}

	pageW, _ := pdf.GetPageSize()
	leftMargin, _, rightMargin, _ := pdf.GetMargins()
	contentW := pageW - leftMargin - rightMargin
	w := info.Width()
	if w > contentW {
		w = contentW
	}

	pdf.Ln(2)
	pdf.ImageOptions(src, pdf.GetX(), pdf.GetY(), w, 0, true, opts, 0, "")
	pdf.Ln(2)
}

// collapsedText returns the element's text with whitespace runs collapsed.
func collapsedText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
