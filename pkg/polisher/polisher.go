// Package polisher is the optional AI cleanup pass over rule-cleaned
// article HTML. It is strictly best-effort: any failure degrades to the
// input, never to an error the caller must handle.
package polisher

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mwhitfield/dossier/internal/llm"
	"github.com/mwhitfield/dossier/internal/logger"
)

// Polisher refines a cleaned HTML fragment.
type Polisher interface {
	// Polish returns a further-cleaned fragment, or the input unchanged
	// when polishing is not possible.
	Polish(ctx context.Context, html, title string) string
}

const systemInstruction = `You clean up newsletter email HTML for print.
Remove any remaining advertising, navigation, tracking, social-share and
footer boilerplate. Preserve the article body text and every <img> tag
verbatim. Return only the cleaned body HTML, with no surrounding
commentary and no code-fence markers.`

// Config controls the LLM polisher.
type Config struct {
	// MaxContentBytes skips polishing for fragments larger than this.
	// 0 means no limit.
	MaxContentBytes int

	MaxTokens   int
	Temperature float64
}

// LLMPolisher sends content through a text-generation provider.
type LLMPolisher struct {
	provider llm.Provider
	config   Config
}

// New creates an LLMPolisher backed by the given provider.
func New(provider llm.Provider, cfg Config) *LLMPolisher {
	return &LLMPolisher{provider: provider, config: cfg}
}

// Polish sends the fragment and title to the provider with a fixed
// instruction set. On any error it logs and returns the input unchanged.
// There are no retries; a failed polish is just a skipped polish.
func (p *LLMPolisher) Polish(ctx context.Context, html, title string) string {
	if p.provider == nil {
		return html
	}
	if p.config.MaxContentBytes > 0 && len(html) > p.config.MaxContentBytes {
		logger.Debug("content exceeds polish size limit, skipping",
			"title", title,
			"size", humanize.Bytes(uint64(len(html))),
			"limit", humanize.Bytes(uint64(p.config.MaxContentBytes)))
		return html
	}

	var prompt strings.Builder
	prompt.WriteString("Article title: ")
	prompt.WriteString(title)
	prompt.WriteString("\n\nHTML:\n")
	prompt.WriteString(html)

	resp, err := p.provider.Complete(ctx, llm.Request{
		System:      systemInstruction,
		Prompt:      prompt.String(),
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	})
	if err != nil {
		logger.Warn("polish failed, keeping rule-cleaned content",
			"provider", p.provider.Name(), "title", title, "error", err)
		return html
	}

	cleaned := stripFences(resp.Content)
	if strings.TrimSpace(cleaned) == "" {
		logger.Warn("polish returned empty content, keeping rule-cleaned content",
			"provider", p.provider.Name(), "title", title)
		return html
	}

	logger.Debug("content polished",
		"provider", p.provider.Name(),
		"title", title,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)
	return cleaned
}

// stripFences removes markdown code-fence markers that models sometimes
// wrap HTML replies in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```html")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
