package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/go-playground/validator/v10"
	"github.com/jhillyerd/enmime"

	"github.com/mwhitfield/dossier/internal/logger"
)

// IMAPConfig holds connection settings for an IMAP account.
type IMAPConfig struct {
	Host     string `mapstructure:"host" validate:"required,hostname|ip"`
	Port     int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`

	// ImageDir is where inline image parts are materialized.
	ImageDir string `mapstructure:"image_dir" validate:"required"`
}

var validate = validator.New()

// Validate checks the config for missing or malformed fields.
func (c *IMAPConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid IMAP config: %w", err)
	}
	return nil
}

// IMAPFetcher fetches messages over IMAP and parses them with enmime.
type IMAPFetcher struct {
	config IMAPConfig
	client *client.Client
}

// NewIMAPFetcher validates the config and returns a fetcher.
// The connection is established lazily on the first Fetch.
func NewIMAPFetcher(cfg IMAPConfig) (*IMAPFetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &IMAPFetcher{config: cfg}, nil
}

func (f *IMAPFetcher) connect() error {
	if f.client != nil {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", f.config.Host, f.config.Port)
	cl, err := client.DialTLS(addr, &tls.Config{
		ServerName: f.config.Host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := cl.Login(f.config.Username, f.config.Password); err != nil {
		_ = cl.Logout()
		return fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	f.client = cl
	logger.Info("connected to IMAP server", "host", f.config.Host, "user", f.config.Username)
	return nil
}

// Close logs out and drops the connection.
func (f *IMAPFetcher) Close() error {
	if f.client != nil {
		err := f.client.Logout()
		f.client = nil
		return err
	}
	return nil
}

// Fetch retrieves messages from the queried mailbox, newest first.
// A single message that fails to parse is logged and skipped; connection
// or mailbox level failures abort the fetch.
func (f *IMAPFetcher) Fetch(ctx context.Context, q Query) ([]Message, error) {
	if err := f.connect(); err != nil {
		return nil, err
	}

	mbox, err := f.client.Select(q.Mailbox, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %q: %w", q.Mailbox, err)
	}
	if mbox.Messages == 0 {
		logger.Info("no messages in mailbox", "mailbox", q.Mailbox)
		return nil, nil
	}

	start := uint32(1)
	if q.MaxCount > 0 && mbox.Messages > uint32(q.MaxCount) {
		start = mbox.Messages - uint32(q.MaxCount) + 1
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddRange(start, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	ch := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- f.client.Fetch(seqSet, items, ch)
	}()

	var messages []Message
	for msg := range ch {
		if ctx.Err() != nil {
			// Drain the channel so the fetch goroutine can finish.
			continue
		}
		m, err := f.parseMessage(msg, section)
		if err != nil {
			logger.Warn("skipping unparseable message", "uid", msg.Uid, "error", err)
			continue
		}
		messages = append(messages, m)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// IMAP delivers in ascending sequence order; callers want newest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	logger.Info("fetched messages", "mailbox", q.Mailbox, "count", len(messages))
	return messages, nil
}

func (f *IMAPFetcher) parseMessage(msg *imap.Message, section *imap.BodySectionName) (Message, error) {
	m := Message{
		Subject: "No Subject",
		Sender:  "Unknown Sender",
		Date:    "Unknown Date",
	}

	if msg.Envelope != nil {
		m.ID = msg.Envelope.MessageId
		if msg.Envelope.Subject != "" {
			m.Subject = msg.Envelope.Subject
		}
		if len(msg.Envelope.From) > 0 {
			from := msg.Envelope.From[0]
			if from.PersonalName != "" {
				m.Sender = fmt.Sprintf("%s <%s>", from.PersonalName, from.Address())
			} else {
				m.Sender = from.Address()
			}
		}
		if !msg.Envelope.Date.IsZero() {
			m.Date = msg.Envelope.Date.Format("Mon, 2 Jan 2006")
		}
	}
	if m.ID == "" {
		m.ID = fmt.Sprintf("uid-%d", msg.Uid)
	}

	literal := msg.GetBody(section)
	if literal == nil {
		return m, fmt.Errorf("message %s has no body section", m.ID)
	}
	raw, err := io.ReadAll(literal)
	if err != nil {
		return m, fmt.Errorf("failed to read message body: %w", err)
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return m, fmt.Errorf("failed to parse MIME envelope: %w", err)
	}

	m.TextBody = env.Text
	m.HTMLBody = env.HTML
	m.Images = f.materializeInlineImages(m.ID, env)

	// Rewrite cid: references to the local files so the renderer can
	// resolve them.
	for cid, path := range m.Images {
		m.HTMLBody = strings.ReplaceAll(m.HTMLBody, "cid:"+cid, path)
	}

	return m, nil
}

// materializeInlineImages writes every MIME part carrying a Content-ID to
// the image directory and returns the cid -> local path map.
func (f *IMAPFetcher) materializeInlineImages(msgID string, env *enmime.Envelope) map[string]string {
	parts := make([]*enmime.Part, 0, len(env.Inlines)+len(env.OtherParts))
	parts = append(parts, env.Inlines...)
	parts = append(parts, env.OtherParts...)

	images := make(map[string]string)
	for i, part := range parts {
		cid := strings.Trim(part.ContentID, "<>")
		if cid == "" || len(part.Content) == 0 {
			continue
		}

		name := part.FileName
		if name == "" {
			name = fmt.Sprintf("part-%d", i)
		}
		filename := sanitizeFilename(fmt.Sprintf("%s_%d_%s", msgID, i, name))

		if err := os.MkdirAll(f.config.ImageDir, 0o755); err != nil {
			logger.Warn("failed to create image dir", "dir", f.config.ImageDir, "error", err)
			continue
		}
		path := filepath.Join(f.config.ImageDir, filename)
		if err := os.WriteFile(path, part.Content, 0o644); err != nil {
			logger.Warn("failed to write inline image", "path", path, "error", err)
			continue
		}
		images[cid] = path
	}

	if len(images) == 0 {
		return nil
	}
	return images
}

// sanitizeFilename strips characters that are unsafe in file names.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\x00':
			return '_'
		}
		return r
	}, name)
}
