package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/dgallion1/docpersona/internal/parser"
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Write a heading outline JSON for every document in a directory",
	Long: `Outline reads every supported document in the input directory and writes
<name>.json to the output directory with the document title and its H1-H3
headings and page numbers.`,
	RunE: runOutline,
}

func init() {
	outlineCmd.Flags().String("input", defaultInputDir, "directory of documents")
	outlineCmd.Flags().String("output", "/app/output", "directory for outline JSON files")

	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	log := newLogger()
	inputDir, _ := cmd.Flags().GetString("input")
	outputDir, _ := cmd.Flags().GetString("output")

	paths, err := listDocuments(inputDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	opts := parser.Options{PDFFallbackPdftotext: config.Load().PDFFallbackPdftotext}
	written := 0
	for _, path := range paths {
		name := filepath.Base(path)
		out, err := outlineFile(opts, path)
		if err != nil {
			log.Warn("skipping document", "document", name, "error", err)
			continue
		}
		target := filepath.Join(outputDir, strings.TrimSuffix(name, filepath.Ext(name))+".json")
		if err := writeOutline(target, out); err != nil {
			return err
		}
		log.Debug("wrote outline", "document", name, "headings", len(out.Headings))
		written++
	}
	log.Info("outlines complete", "output", outputDir, "written", written, "documents", len(paths))
	return nil
}

func outlineFile(opts parser.Options, path string) (outline.Outline, error) {
	p, err := opts.ForFile(path)
	if err != nil {
		return outline.Outline{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return outline.Outline{}, err
	}
	defer f.Close()
	tree, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return outline.Outline{}, err
	}
	return outline.Extract(tree), nil
}

func writeOutline(path string, out outline.Outline) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := out.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
