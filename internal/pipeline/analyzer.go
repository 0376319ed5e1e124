package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/docpersona/internal/chunker"
	"github.com/dgallion1/docpersona/internal/doctree"
	"github.com/dgallion1/docpersona/internal/embed"
	"github.com/dgallion1/docpersona/internal/parser"
	"github.com/dgallion1/docpersona/internal/persona"
	"github.com/dgallion1/docpersona/internal/rank"
	"github.com/dgallion1/docpersona/internal/segment"
)

const (
	// TopSections is the number of sections reported per run.
	TopSections = 15
	// DetailedSections is the number of top sections refined into excerpts.
	DetailedSections = 8
)

// Stage names the step a run has reached.
type Stage string

const (
	StageParsing    Stage = "parsing"
	StageSegmenting Stage = "segmenting"
	StageProfiled   Stage = "profiled"
	StageRanked     Stage = "ranked"
	StageRefining   Stage = "refining"
	StageAssembled  Stage = "assembled"
)

// Upload is a named document body awaiting parsing.
type Upload struct {
	Filename string
	Data     []byte
}

// Analyzer runs the persona-driven ranking pipeline over a batch.
type Analyzer struct {
	embedder      embed.Embedder
	lexicon       persona.Lexicon
	parseOpts     parser.Options
	maxConcurrent int
	log           *slog.Logger
	now           func() time.Time
}

// AnalyzerOptions configure an Analyzer. Zero values select defaults.
type AnalyzerOptions struct {
	Lexicon       persona.Lexicon
	Parser        parser.Options
	MaxConcurrent int
}

func NewAnalyzer(e embed.Embedder, opts AnalyzerOptions, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	lex := opts.Lexicon
	if lex == nil {
		lex = persona.DefaultLexicon
	}
	return &Analyzer{
		embedder:      e,
		lexicon:       lex,
		parseOpts:     opts.Parser,
		maxConcurrent: opts.MaxConcurrent,
		log:           log,
		now:           time.Now,
	}
}

// Run analyses already parsed documents. Documents with no blocks are
// skipped and listed in the result metadata.
func (a *Analyzer) Run(ctx context.Context, docs []*doctree.DocTree, personaText, task string) (*AnalysisResult, error) {
	var kept []*doctree.DocTree
	var skipped []string
	for _, d := range docs {
		if d == nil {
			continue
		}
		if len(d.Blocks) == 0 {
			a.log.Warn("skipping document without text", "document", d.Source)
			skipped = append(skipped, d.Source)
			continue
		}
		kept = append(kept, d)
	}
	return a.run(ctx, kept, skipped, personaText, task, nil)
}

// RunFiles reads and parses each path, then analyses the batch. Unreadable
// or unparseable files are skipped.
func (a *Analyzer) RunFiles(ctx context.Context, paths []string, personaText, task string) (*AnalysisResult, error) {
	uploads := make([]Upload, 0, len(paths))
	var skipped []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			a.log.Warn("skipping unreadable document", "document", path, "error", err)
			skipped = append(skipped, filepath.Base(path))
			continue
		}
		uploads = append(uploads, Upload{Filename: filepath.Base(path), Data: data})
	}

	docs, parseSkipped := a.parseAll(uploads)
	return a.run(ctx, docs, append(skipped, parseSkipped...), personaText, task, nil)
}

// RunUploads parses in-memory documents and analyses the batch. progress,
// when set, is called as the run moves through its stages.
func (a *Analyzer) RunUploads(ctx context.Context, uploads []Upload, personaText, task string, progress func(Stage)) (*AnalysisResult, error) {
	report(progress, StageParsing)
	docs, skipped := a.parseAll(uploads)
	return a.run(ctx, docs, skipped, personaText, task, progress)
}

func report(progress func(Stage), s Stage) {
	if progress != nil {
		progress(s)
	}
}

func (a *Analyzer) parseAll(uploads []Upload) ([]*doctree.DocTree, []string) {
	var docs []*doctree.DocTree
	var skipped []string
	for _, u := range uploads {
		log := a.log.With("document", u.Filename)

		p, err := a.parseOpts.ForFile(u.Filename)
		if err != nil {
			log.Warn("skipping unsupported document", "error", err)
			skipped = append(skipped, u.Filename)
			continue
		}
		tree, err := p.Parse(bytes.NewReader(u.Data), u.Filename)
		if err != nil {
			log.Warn("skipping unparseable document", "error", err)
			skipped = append(skipped, u.Filename)
			continue
		}
		if len(tree.Blocks) == 0 {
			log.Warn("skipping document without text")
			skipped = append(skipped, u.Filename)
			continue
		}
		tree.Source = u.Filename
		log.Debug("parsed document", "blocks", len(tree.Blocks), "pages", tree.Pages())
		docs = append(docs, tree)
	}
	return docs, skipped
}

func (a *Analyzer) run(ctx context.Context, docs []*doctree.DocTree, skipped []string, personaText, task string, progress func(Stage)) (*AnalysisResult, error) {
	start := a.now()
	// Identical texts are embedded once per run.
	e := embed.NewMemo(a.embedder)

	report(progress, StageSegmenting)
	names := make([]string, 0, len(docs))
	var pooled []doctree.Section
	for _, d := range docs {
		names = append(names, d.Source)
		sections := segment.Segment(d)
		a.log.Debug("segmented document", "document", d.Source, "sections", len(sections))
		pooled = append(pooled, sections...)
	}

	profiler := &persona.Profiler{Embedder: e, Lexicon: a.lexicon}
	profile, err := profiler.Build(ctx, personaText, task)
	if err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}
	report(progress, StageProfiled)

	scorer := &rank.Scorer{Embedder: e, MaxConcurrent: a.maxConcurrent}
	ranked, err := scorer.ScoreAndRank(ctx, pooled, profile)
	if err != nil {
		return nil, fmt.Errorf("rank sections: %w", err)
	}
	report(progress, StageRanked)

	result := &AnalysisResult{
		Metadata: Metadata{
			InputDocuments:      names,
			Persona:             profile.Persona,
			JobToBeDone:         profile.Task,
			ProcessingTimestamp: start.Format(time.RFC3339Nano),
			TotalSectionsFound:  len(pooled),
			SkippedDocuments:    skipped,
		},
		ExtractedSections:  make([]ExtractedSection, 0, min(TopSections, len(ranked))),
		SubsectionAnalysis: []SubsectionAnalysis{},
	}
	for i, s := range ranked[:min(TopSections, len(ranked))] {
		result.ExtractedSections = append(result.ExtractedSections, ExtractedSection{
			Document:       s.Section.Source,
			PageNumber:     s.Section.Page,
			SectionTitle:   s.Section.Title,
			ImportanceRank: i + 1,
		})
	}

	report(progress, StageRefining)
	extractor := &chunker.Extractor{Embedder: e, MaxConcurrent: a.maxConcurrent}
	for _, s := range ranked[:min(DetailedSections, len(ranked))] {
		chunks, err := extractor.TopChunks(ctx, s.Section.Content, profile, chunker.DefaultMaxChunks)
		if err != nil {
			return nil, fmt.Errorf("refine section %q: %w", s.Section.Title, err)
		}
		for _, c := range chunks {
			result.SubsectionAnalysis = append(result.SubsectionAnalysis, SubsectionAnalysis{
				Document:    s.Section.Source,
				PageNumber:  s.Section.Page,
				RefinedText: c.Cleaned,
			})
		}
	}
	report(progress, StageAssembled)

	a.log.Info("analysis complete",
		"documents", len(docs),
		"skipped", len(skipped),
		"sections", len(pooled),
		"excerpts", len(result.SubsectionAnalysis),
		"cached_embeddings", e.Hits(),
		"duration_ms", a.now().Sub(start).Milliseconds(),
	)
	return result, nil
}
