// Package mail defines the message model and the fetch boundary.
// Implement the Fetcher interface to plug in a different mail backend.
package mail

import (
	"context"
)

// Message is a single fetched email, immutable once returned by a Fetcher.
// Images maps a cid token found in the HTML body to a locally stored file
// path; the fetcher rewrites cid: references before returning HTMLBody.
type Message struct {
	ID       string            `json:"id"`
	Subject  string            `json:"subject"`
	Sender   string            `json:"sender"` // "Display Name <address>" or bare address
	Date     string            `json:"date"`
	TextBody string            `json:"text_body,omitempty"`
	HTMLBody string            `json:"html_body,omitempty"`
	Images   map[string]string `json:"images,omitempty"`
}

// ImagePaths returns the local paths of all materialized inline images.
func (m *Message) ImagePaths() []string {
	if len(m.Images) == 0 {
		return nil
	}
	paths := make([]string, 0, len(m.Images))
	for _, p := range m.Images {
		paths = append(paths, p)
	}
	return paths
}

// Query selects which messages to fetch.
type Query struct {
	Mailbox  string // mailbox/label name
	MaxCount int    // 0 = no limit
}

// Fetcher abstracts mail retrieval.
type Fetcher interface {
	// Fetch returns messages from the queried mailbox, newest first.
	Fetch(ctx context.Context, q Query) ([]Message, error)

	// Close releases the underlying connection.
	Close() error
}
