package test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pgprism/pgprism/internal/analyzer"
	"github.com/pgprism/pgprism/internal/model"
	"github.com/pgprism/pgprism/internal/parser"
)

var (
	rootPath string
	once     sync.Once
)

// RootPath resolves the repository root (where go.mod resides).
func RootPath(t *testing.T) string {
	t.Helper()
	once.Do(func() {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("getwd: %v", err)
		}
		for {
			if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
				rootPath = wd
				break
			}
			next := filepath.Dir(wd)
			if next == wd {
				t.Fatalf("go.mod not found from %s", wd)
			}
			wd = next
		}
	})
	return rootPath
}

// LoadSampleText reads a plan text from the samples directory.
func LoadSampleText(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(RootPath(t), "samples", rel))
	if err != nil {
		t.Fatalf("read plan: %v", err)
	}
	return string(data)
}

// LoadSamplePlan parses a plan from the samples directory.
func LoadSamplePlan(t *testing.T, rel string) *model.Plan {
	t.Helper()
	plan, err := parser.ParseText(LoadSampleText(t, rel))
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	return plan
}

// LoadSampleAnalysis parses and analyzes a plan from the samples directory.
func LoadSampleAnalysis(t *testing.T, rel string) *analyzer.Analysis {
	t.Helper()
	analysis, err := analyzer.Analyze(LoadSamplePlan(t, rel))
	if err != nil {
		t.Fatalf("analyze plan: %v", err)
	}
	return analysis
}
