// Package assembler turns fetched messages into renderable articles,
// running the cleaning pipeline concurrently while preserving fetch order.
package assembler

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/mwhitfield/dossier/internal/logger"
	"github.com/mwhitfield/dossier/pkg/mail"
	"github.com/mwhitfield/dossier/pkg/polisher"
)

// Article is derived 1:1 from a message after cleaning. It is consumed
// only by the renderer and never mutated after creation.
type Article struct {
	OriginalSubject string
	Title           string
	Author          string
	Date            string
	Summary         string
	Content         string // cleaned HTML fragment
	Images          []string
}

// Cleaner is the rule-based cleaning contract the assembler depends on.
type Cleaner interface {
	Clean(html, title, author string) string
}

// Config holds the assembler's explicit dependencies. Polishing is
// enabled by supplying a Polisher, not by ambient environment state.
type Config struct {
	// Workers bounds the cleaning concurrency. Defaults to 5.
	Workers int

	Cleaner Cleaner

	// Polisher is optional; nil disables the AI cleanup pass.
	Polisher polisher.Polisher
}

// Assembler runs the cleaning pipeline over a batch of messages.
type Assembler struct {
	config Config
}

const defaultWorkers = 5

// New creates an Assembler. Config.Cleaner is required.
func New(cfg Config) (*Assembler, error) {
	if cfg.Cleaner == nil {
		return nil, fmt.Errorf("assembler requires a cleaner")
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	return &Assembler{config: cfg}, nil
}

// indexed carries a finished article together with its input position so
// completion order under concurrency cannot reorder the output.
type indexed struct {
	index   int
	article Article
	ok      bool
}

// Assemble cleans every message and returns articles in the original
// message order. A single message's failure is logged and that message
// dropped; it never aborts the batch.
func (a *Assembler) Assemble(ctx context.Context, messages []mail.Message) []Article {
	if len(messages) == 0 {
		return nil
	}

	results := make(chan indexed, len(messages))
	sem := make(chan struct{}, a.config.Workers)
	var wg sync.WaitGroup

	for i, msg := range messages {
		wg.Add(1)
		go func(i int, msg mail.Message) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					logger.Error("dropping message after processing failure",
						"subject", msg.Subject, "panic", r)
					results <- indexed{index: i}
				}
			}()

			results <- indexed{index: i, article: a.process(ctx, msg), ok: true}
		}(i, msg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]indexed, 0, len(messages))
	for r := range results {
		if r.ok {
			collected = append(collected, r)
		}
	}

	// Restore submission order; completion order is not guaranteed.
	sort.Slice(collected, func(x, y int) bool {
		return collected[x].index < collected[y].index
	})

	articles := make([]Article, 0, len(collected))
	for _, r := range collected {
		articles = append(articles, r.article)
	}

	logger.Info("assembled articles", "input", len(messages), "output", len(articles))
	return articles
}

// process cleans a single message.
func (a *Assembler) process(ctx context.Context, msg mail.Message) Article {
	logger.Debug("processing message", "subject", msg.Subject)

	author := displayName(msg.Sender)

	var content string
	if msg.HTMLBody != "" {
		content = a.config.Cleaner.Clean(msg.HTMLBody, msg.Subject, author)
		if a.config.Polisher != nil {
			content = a.config.Polisher.Polish(ctx, content, msg.Subject)
		}
	} else {
		content = textToHTML(msg.TextBody)
	}

	return Article{
		OriginalSubject: msg.Subject,
		Title:           msg.Subject,
		Author:          author,
		Date:            msg.Date,
		Content:         content,
		Images:          msg.ImagePaths(),
	}
}

// displayName extracts the display part of a "Name <address>" sender.
func displayName(sender string) string {
	if i := strings.Index(sender, "<"); i >= 0 {
		return strings.TrimSpace(sender[:i])
	}
	return strings.TrimSpace(sender)
}

// textToHTML converts a plain-text body into paragraphs: blank-line
// separated blocks become <p> elements, blank blocks are dropped.
func textToHTML(text string) string {
	var sb strings.Builder
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(block))
		sb.WriteString("</p>")
	}
	return sb.String()
}
