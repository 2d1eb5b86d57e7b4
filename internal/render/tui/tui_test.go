package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pgprism/pgprism/internal/render/tui"
	"github.com/pgprism/pgprism/test"
)

func TestRenderPlain(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "nested.txt")

	var buf bytes.Buffer
	err := tui.Render(&buf, analysis, tui.Options{})
	if err != nil {
		t.Fatalf("render tui: %v", err)
	}
	output := buf.String()
	if output == "" {
		t.Fatalf("expected tui output")
	}
	if !strings.Contains(output, "GroupAggregate") {
		t.Fatalf("expected root node in output:\n%s", output)
	}
	if !strings.Contains(output, "Execution Time: 129.345 ms") {
		t.Fatalf("expected tail line in output:\n%s", output)
	}
	if strings.Contains(output, "\x1b[") {
		t.Fatalf("expected no escapes without color:\n%s", output)
	}
	if strings.Contains(output, "[green]") {
		t.Fatalf("expected markup stripped:\n%s", output)
	}
}

func TestRenderColor(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "nested.txt")

	var buf bytes.Buffer
	err := tui.Render(&buf, analysis, tui.Options{Color: true, Icons: true, Heat: true})
	if err != nil {
		t.Fatalf("render tui: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\x1b[")) {
		t.Fatalf("expected escape sequences in colored output")
	}
	if !bytes.Contains(buf.Bytes(), []byte("🔍")) {
		t.Fatalf("expected icons in output")
	}
}

func TestRenderInsights(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "nested.txt")

	var buf bytes.Buffer
	err := tui.Render(&buf, analysis, tui.Options{ShowInsights: true})
	if err != nil {
		t.Fatalf("render tui: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Insights:")) {
		t.Fatalf("expected insights section:\n%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("Hot spot")) {
		t.Fatalf("expected hot spot message:\n%s", buf.String())
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "simple.txt")

	if err := tui.Render(nil, analysis, tui.Options{}); err == nil {
		t.Fatalf("expected error for nil writer")
	}
	var buf bytes.Buffer
	if err := tui.Render(&buf, nil, tui.Options{}); err == nil {
		t.Fatalf("expected error for nil analysis")
	}
}
