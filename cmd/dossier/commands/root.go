// Package commands implements the CLI commands for dossier.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwhitfield/dossier/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "dossier",
	Short: "Turn a labelled mailbox into a print-ready PDF digest",
	Long: `Dossier fetches the messages in a mail folder, strips newsletter
boilerplate from each one, and lays the results out as a single
paginated PDF with a masthead page.

Examples:
  # Build today's dossier from the "Dossier" folder
  dossier build --user me@example.com --server imap.example.com

  # Rebuild from the local cache without touching the server
  dossier build --cache dossier.db --offline

  # Let an LLM take a second pass over each article
  dossier build --polish anthropic`,
	Version: version.String(),
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.dossier.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".dossier")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DOSSIER")
	viper.AutomaticEnv()

	// Also check the common API key env vars
	_ = viper.BindEnv("api_key", "ANTHROPIC_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("imap_password", "DOSSIER_IMAP_PASSWORD")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
