package mail

import (
	"sort"
	"strings"
	"testing"
)

func TestIMAPConfigValidate(t *testing.T) {
	valid := IMAPConfig{
		Host:     "imap.example.com",
		Port:     993,
		Username: "me@example.com",
		Password: "secret",
		ImageDir: "/tmp/images",
	}

	t.Run("valid config passes", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*IMAPConfig)
	}{
		{"missing host", func(c *IMAPConfig) { c.Host = "" }},
		{"missing username", func(c *IMAPConfig) { c.Username = "" }},
		{"missing password", func(c *IMAPConfig) { c.Password = "" }},
		{"missing image dir", func(c *IMAPConfig) { c.ImageDir = "" }},
		{"zero port", func(c *IMAPConfig) { c.Port = 0 }},
		{"port out of range", func(c *IMAPConfig) { c.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewIMAPFetcherRejectsInvalidConfig(t *testing.T) {
	if _, err := NewIMAPFetcher(IMAPConfig{}); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestImagePaths(t *testing.T) {
	t.Run("nil for no images", func(t *testing.T) {
		m := Message{}
		if paths := m.ImagePaths(); paths != nil {
			t.Errorf("expected nil, got %v", paths)
		}
	})

	t.Run("returns every path", func(t *testing.T) {
		m := Message{Images: map[string]string{
			"cid-1": "/tmp/a.png",
			"cid-2": "/tmp/b.jpg",
		}}
		paths := m.ImagePaths()
		sort.Strings(paths)
		if len(paths) != 2 || paths[0] != "/tmp/a.png" || paths[1] != "/tmp/b.jpg" {
			t.Errorf("unexpected paths: %v", paths)
		}
	})
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain.png", "plain.png"},
		{"a/b\\c.png", "a_b_c.png"},
		{`x:*?"<>|.png`, "x_______.png"},
		{"msg-1_0_photo.jpg", "msg-1_0_photo.jpg"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilenameKeepsExtension(t *testing.T) {
	got := sanitizeFilename("msg<1>_0_pic.png")
	if !strings.HasSuffix(got, ".png") {
		t.Errorf("expected extension preserved, got %q", got)
	}
}
