package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwhitfield/dossier/internal/cache"
	"github.com/mwhitfield/dossier/internal/llm"
	"github.com/mwhitfield/dossier/internal/logger"
	"github.com/mwhitfield/dossier/pkg/assembler"
	"github.com/mwhitfield/dossier/pkg/cleaner"
	"github.com/mwhitfield/dossier/pkg/mail"
	"github.com/mwhitfield/dossier/pkg/polisher"
	"github.com/mwhitfield/dossier/pkg/renderer"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch the mailbox and produce the PDF",
	Long: `Build fetches the messages in the configured mail folder, cleans
each one, and writes a single print-ready PDF.

Examples:
  # Fetch and build
  dossier build --user me@example.com --server imap.example.com

  # Use a different folder and cap the message count
  dossier build --mailbox Newsletters --max 10

  # Rebuild from the cache without a network connection
  dossier build --cache dossier.db --offline

  # Add an LLM cleanup pass after the rule-based cleaner
  dossier build --polish anthropic -m claude-sonnet-4-20250514`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	flags := buildCmd.Flags()

	// Mail source
	flags.String("server", "", "IMAP server hostname")
	flags.Int("port", 993, "IMAP server port")
	flags.StringP("user", "u", "", "IMAP username")
	flags.String("password", "", "IMAP password (prefer DOSSIER_IMAP_PASSWORD)")
	flags.String("mailbox", "Dossier", "mail folder to read")
	flags.Int("max", 20, "maximum number of messages to fetch")

	// Output
	flags.StringP("output", "o", "dossier.pdf", "output PDF path")
	flags.String("html-out", "", "also write the composed HTML to this path (for debugging)")
	flags.String("image-dir", "dossier-images", "directory for extracted inline images")

	// Cache
	flags.String("cache", "", "SQLite cache file for fetched messages")
	flags.Bool("offline", false, "build from the cache only; never contact the server")

	// Cleaning
	flags.String("rules", "", "YAML file with extra cleaning rules")
	flags.IntP("workers", "c", 5, "concurrent cleaning workers")

	// Polishing
	flags.String("polish", "", "LLM polish provider: anthropic, openai (disabled when empty)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("max-polish-size", "200KB", "skip polishing articles larger than this (0=unlimited)")

	_ = viper.BindPFlag("server", flags.Lookup("server"))
	_ = viper.BindPFlag("port", flags.Lookup("port"))
	_ = viper.BindPFlag("user", flags.Lookup("user"))
	_ = viper.BindPFlag("mailbox", flags.Lookup("mailbox"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mailbox := viper.GetString("mailbox")
	maxCount, _ := cmd.Flags().GetInt("max")
	offline, _ := cmd.Flags().GetBool("offline")
	cachePath, _ := cmd.Flags().GetString("cache")

	var store *cache.Cache
	if cachePath != "" {
		var err error
		store, err = cache.Open(cachePath)
		if err != nil {
			logger.Error("failed to open cache", "path", cachePath, "error", err)
			return err
		}
		defer func() { _ = store.Close() }()
	}

	messages, err := loadMessages(ctx, cmd, store, mailbox, maxCount, offline)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		logger.Warn("no messages found", "mailbox", mailbox)
		return fmt.Errorf("mailbox %q is empty", mailbox)
	}
	logger.Info("loaded messages", "mailbox", mailbox, "count", len(messages))

	cleanerCfg := cleaner.DefaultConfig()
	if rulesPath, _ := cmd.Flags().GetString("rules"); rulesPath != "" {
		cleanerCfg, err = cleaner.LoadRulesFile(rulesPath)
		if err != nil {
			logger.Error("failed to load rules file", "path", rulesPath, "error", err)
			return err
		}
	}

	pol, err := buildPolisher(cmd)
	if err != nil {
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	asm, err := assembler.New(assembler.Config{
		Workers:  workers,
		Cleaner:  cleaner.New(cleanerCfg),
		Polisher: pol,
	})
	if err != nil {
		return err
	}

	articles := asm.Assemble(ctx, messages)
	if len(articles) == 0 {
		return fmt.Errorf("no articles survived processing")
	}

	dateLabel := time.Now().Format("Monday, January 2, 2006")

	if htmlPath, _ := cmd.Flags().GetString("html-out"); htmlPath != "" {
		if err := writeHTMLDebug(htmlPath, articles, dateLabel); err != nil {
			logger.Warn("failed to write debug HTML", "path", htmlPath, "error", err)
		}
	}

	pdfBytes, err := renderer.NewPDF().Render(articles, dateLabel)
	if err != nil {
		logger.Error("failed to render PDF", "error", err)
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	if err := os.WriteFile(outPath, pdfBytes, 0o644); err != nil {
		logger.Error("failed to write PDF", "path", outPath, "error", err)
		return err
	}

	logger.Info("dossier written",
		"path", outPath,
		"articles", len(articles),
		"size", humanize.Bytes(uint64(len(pdfBytes))))
	return nil
}

// loadMessages resolves the message source: the cache when offline, the
// IMAP server otherwise (refreshing the cache on success).
func loadMessages(ctx context.Context, cmd *cobra.Command, store *cache.Cache, mailbox string, maxCount int, offline bool) ([]mail.Message, error) {
	if offline {
		if store == nil {
			return nil, fmt.Errorf("--offline requires --cache")
		}
		messages, found, err := store.Get(mailbox)
		if err != nil {
			logger.Error("failed to read cache", "mailbox", mailbox, "error", err)
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("no cached messages for mailbox %q", mailbox)
		}
		logger.Debug("using cached messages", "mailbox", mailbox, "count", len(messages))
		return messages, nil
	}

	imageDir, _ := cmd.Flags().GetString("image-dir")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = viper.GetString("imap_password")
	}

	fetcher, err := mail.NewIMAPFetcher(mail.IMAPConfig{
		Host:     viper.GetString("server"),
		Port:     viper.GetInt("port"),
		Username: viper.GetString("user"),
		Password: password,
		ImageDir: imageDir,
	})
	if err != nil {
		logger.Error("invalid mail configuration", "error", err)
		return nil, err
	}
	defer func() { _ = fetcher.Close() }()

	messages, err := fetcher.Fetch(ctx, mail.Query{Mailbox: mailbox, MaxCount: maxCount})
	if err != nil {
		logger.Error("failed to fetch messages", "mailbox", mailbox, "error", err)
		return nil, err
	}

	if store != nil {
		if err := store.Put(mailbox, messages); err != nil {
			logger.Warn("failed to update cache", "mailbox", mailbox, "error", err)
		}
	}
	return messages, nil
}

// buildPolisher wires the optional LLM pass. Returns nil (polishing
// disabled) when --polish is unset; an unusable provider is an error so
// a requested polish never silently degrades to rule-only cleaning.
func buildPolisher(cmd *cobra.Command) (polisher.Polisher, error) {
	providerName, _ := cmd.Flags().GetString("polish")
	if providerName == "" {
		return nil, nil
	}

	apiKey := viper.GetString("api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("--polish %s requires an API key (set ANTHROPIC_API_KEY or OPENAI_API_KEY)", providerName)
	}

	cfg := llm.ProviderConfig{
		APIKey: apiKey,
		Model:  viper.GetString("model"),
	}

	var provider llm.Provider
	var err error
	switch strings.ToLower(providerName) {
	case "anthropic":
		provider, err = llm.NewAnthropicProvider(cfg)
	case "openai":
		provider, err = llm.NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown polish provider: %s (use 'anthropic' or 'openai')", providerName)
	}
	if err != nil {
		logger.Error("failed to create polish provider", "provider", providerName, "error", err)
		return nil, err
	}

	maxSizeStr, _ := cmd.Flags().GetString("max-polish-size")
	var maxBytes int
	if strings.TrimSpace(maxSizeStr) != "" && maxSizeStr != "0" {
		parsed, err := humanize.ParseBytes(maxSizeStr)
		if err != nil {
			logger.Error("invalid max-polish-size", "value", maxSizeStr, "error", err)
			return nil, err
		}
		maxBytes = int(parsed)
	}

	logger.Debug("polishing enabled", "provider", provider.Name(), "max_bytes", maxBytes)
	return polisher.New(provider, polisher.Config{MaxContentBytes: maxBytes}), nil
}

func writeHTMLDebug(path string, articles []assembler.Article, dateLabel string) error {
	f, err := os.Create(path) //#nosec G304 -- CLI tool writes to user-specified file
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return renderer.WriteHTML(f, articles, dateLabel)
}
