package persona

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/dgallion1/docpersona/internal/embed"
)

func TestFocusAreasRoleAndTaskKeywords(t *testing.T) {
	got := FocusAreas(DefaultLexicon, "PhD Researcher in Computational Biology", "Prepare a literature review on gene expression")

	for _, want := range []string{"methodology", "results", "data", "prepare", "literature", "review", "gene", "expression"} {
		if !slices.Contains(got, want) {
			t.Errorf("expected focus area %q in %v", want, got)
		}
	}
	for _, absent := range []string{"on", "a", "phd"} {
		if slices.Contains(got, absent) {
			t.Errorf("did not expect %q in %v", absent, got)
		}
	}
	if !slices.IsSorted(got) {
		t.Errorf("expected sorted focus areas, got %v", got)
	}
}

func TestFocusAreasDeduplicates(t *testing.T) {
	// developer and engineer both list "design".
	got := FocusAreas(DefaultLexicon, "developer and engineer", "design review")
	count := 0
	for _, term := range got {
		if term == "design" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected design once, got %d times in %v", count, got)
	}
}

func TestFocusAreasUnknownRole(t *testing.T) {
	got := FocusAreas(DefaultLexicon, "Chef", "cut it")
	if len(got) != 0 {
		t.Fatalf("expected no focus areas, got %v", got)
	}
}

func TestBuildUsesDefaultsAndContextText(t *testing.T) {
	var seen string
	p := &Profiler{Embedder: embed.Func(func(ctx context.Context, text string) ([]float32, error) {
		seen = text
		return []float32{1, 0}, nil
	})}

	profile, err := p.Build(context.Background(), "", "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Role: General Researcher\nTask: Extract relevant information from documents"
	if seen != want || profile.ContextText != want {
		t.Fatalf("expected context %q, got %q", want, seen)
	}
	if !slices.Contains(profile.FocusAreas, "methodology") || !slices.Contains(profile.FocusAreas, "extract") {
		t.Errorf("expected researcher and task keywords, got %v", profile.FocusAreas)
	}
}

func TestBuildPropagatesEmbeddingError(t *testing.T) {
	sentinel := errors.New("no provider")
	p := &Profiler{Embedder: embed.Func(func(ctx context.Context, text string) ([]float32, error) {
		return nil, sentinel
	})}
	if _, err := p.Build(context.Background(), "Analyst", "compare revenue"); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestParseLexiconExtend(t *testing.T) {
	lex, err := ParseLexicon([]byte("extend: true\nroles:\n  Auditor: [controls, evidence]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lex["auditor"]) != 2 {
		t.Errorf("expected auditor role, got %v", lex["auditor"])
	}
	if _, ok := lex["researcher"]; !ok {
		t.Error("expected built-in roles kept when extend is set")
	}
}

func TestParseLexiconReplace(t *testing.T) {
	lex, err := ParseLexicon([]byte("roles:\n  chef: [recipes]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := lex["researcher"]; ok {
		t.Error("expected built-in roles dropped without extend")
	}
	got := FocusAreas(lex, "Head Chef", "plan menu")
	if !slices.Contains(got, "recipes") {
		t.Errorf("expected recipes in %v", got)
	}
}

func TestParseLexiconErrors(t *testing.T) {
	if _, err := ParseLexicon([]byte("roles: {}\n")); err == nil {
		t.Error("expected error for empty roles")
	}
	if _, err := ParseLexicon([]byte("roles: [unclosed\n")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestLoadLexiconFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	if err := os.WriteFile(path, []byte("roles:\n  pilot: [weather, navigation]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lex["pilot"]) != 2 {
		t.Fatalf("expected pilot role, got %v", lex)
	}
	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
