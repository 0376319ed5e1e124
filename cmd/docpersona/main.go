// Package main is the docpersona command line tool: batch persona-driven
// analysis of a document directory and heading outlines.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/docpersona/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "docpersona",
	Short: "Rank document sections for a persona and a job to be done",
	Long: `docpersona reads a collection of documents (PDF, Markdown, HTML, DOCX,
CSV, text), splits them into titled sections and ranks those sections
against a persona and the job they are trying to get done. The top sections
are refined into short relevant passages and written as JSON.

The outline subcommand extracts a title and H1-H3 heading outline per
document from font sizes.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docpersona.yaml or ~/.config/docpersona/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().String("embedding-provider", "", "embedding provider: hashing or openai")
	rootCmd.PersistentFlags().String("embedding-model", "", "embedding model name for the openai provider")
	rootCmd.PersistentFlags().String("embedding-base-url", "", "OpenAI-compatible base URL")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("embedding_provider", rootCmd.PersistentFlags().Lookup("embedding-provider"))
	viper.BindPFlag("embedding_model", rootCmd.PersistentFlags().Lookup("embedding-model"))
	viper.BindPFlag("embedding_base_url", rootCmd.PersistentFlags().Lookup("embedding-base-url"))
}

func initConfig() {
	// A missing .env is normal.
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "Loaded .env")
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docpersona")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docpersona"))
		}
	}

	viper.SetEnvPrefix("DOCPERSONA")
	viper.AutomaticEnv()
	// The batch container contract passes these without a prefix.
	viper.BindEnv("persona", "DOCPERSONA_PERSONA", "PERSONA")
	viper.BindEnv("job", "DOCPERSONA_JOB", "JOB")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig overlays viper settings (flags, config file, prefixed env) on
// the environment-driven defaults.
func loadConfig() config.Config {
	cfg := config.Load()
	if v := viper.GetString("embedding_provider"); v != "" {
		cfg.EmbeddingProvider = v
	}
	if v := viper.GetString("embedding_model"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := viper.GetString("embedding_base_url"); v != "" {
		cfg.EmbeddingBaseURL = v
	}
	if v := viper.GetString("persona"); v != "" {
		cfg.DefaultPersona = v
	}
	if v := viper.GetString("job"); v != "" {
		cfg.DefaultJob = v
	}
	if v := viper.GetString("lexicon"); v != "" {
		cfg.LexiconPath = v
	}
	if v := viper.GetInt("max_concurrent_embed"); v > 0 {
		cfg.MaxConcurrentEmbed = v
	}
	return cfg
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
