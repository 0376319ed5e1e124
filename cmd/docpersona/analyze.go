package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/docpersona/internal/embed"
	"github.com/dgallion1/docpersona/internal/parser"
	"github.com/dgallion1/docpersona/internal/pipeline"
)

const (
	defaultInputDir   = "/app/input"
	defaultOutputFile = "/app/output/challenge1b_output.json"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank the sections of every document in a directory",
	Long: `Analyze reads every supported document in the input directory, in name
order, ranks their sections for the persona and job to be done, and writes
the analysis JSON to the output file. Documents that cannot be parsed are
listed under metadata.skipped_documents.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("input", defaultInputDir, "directory of documents to analyze")
	analyzeCmd.Flags().String("output", defaultOutputFile, "path of the JSON result")
	analyzeCmd.Flags().String("persona", "", "persona description (env PERSONA)")
	analyzeCmd.Flags().String("job", "", "job to be done (env JOB)")
	analyzeCmd.Flags().String("lexicon", "", "YAML lexicon of persona interest terms")

	for _, name := range []string{"input", "output", "persona", "job", "lexicon"} {
		viper.BindPFlag(name, analyzeCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	inputDir := viper.GetString("input")
	outputPath := viper.GetString("output")

	paths, err := listDocuments(inputDir)
	if err != nil {
		return err
	}
	log.Info("analyzing documents", "input", inputDir, "documents", len(paths), "persona", cfg.DefaultPersona)

	stats := embed.NewStats(cfg.EmbeddingStatsTTL)
	analyzer, err := pipeline.NewAnalyzerFromConfig(cmd.Context(), cfg, stats, log)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := analyzer.RunFiles(cmd.Context(), paths, cfg.DefaultPersona, cfg.DefaultJob)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if err := result.WriteFile(outputPath); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	snap := stats.Snapshot()
	log.Info("analysis complete",
		"output", outputPath,
		"sections", result.Metadata.TotalSectionsFound,
		"skipped", len(result.Metadata.SkippedDocuments),
		"embed_calls", snap.Calls,
		"embed_p95_ms", snap.P95Ms,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// listDocuments returns the supported files directly inside dir, sorted by
// name.
func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}
