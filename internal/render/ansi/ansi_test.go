package ansi_test

import (
	"strings"
	"testing"

	"github.com/pgprism/pgprism/internal/render/ansi"
)

func TestResolveColorized(t *testing.T) {
	got := ansi.Resolve("[blue]Seq Scan[/blue] on users", true)

	if !strings.Contains(got, "\x1b[34m") {
		t.Errorf("missing blue escape: %q", got)
	}
	if !strings.Contains(got, "Seq Scan") || !strings.Contains(got, "on users") {
		t.Errorf("text mangled: %q", got)
	}
	if strings.Contains(got, "[blue]") {
		t.Errorf("markup token survived: %q", got)
	}
}

func TestResolveRGB(t *testing.T) {
	got := ansi.Resolve("[#ff8000]1.00..2.00[/#ff8000]", true)

	if !strings.Contains(got, "38;2;255;128;0") {
		t.Errorf("missing 24-bit escape: %q", got)
	}
}

func TestResolveStripped(t *testing.T) {
	got := ansi.Resolve("[purple]Hash Join[/purple]  (cost=[#ffff00]1.00..2.00[/#ffff00] rows=3 width=4)", false)

	want := "Hash Join  (cost=1.00..2.00 rows=3 width=4)"
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveUnknownSpec(t *testing.T) {
	const in = "[orange]kept[/orange]"
	if got := ansi.Resolve(in, true); got != in {
		t.Errorf("unknown spec rewritten: %q", got)
	}
}

func TestResolveMismatchedSpecs(t *testing.T) {
	const in = "[blue]kept[/red]"
	if got := ansi.Resolve(in, true); got != in {
		t.Errorf("mismatched span rewritten: %q", got)
	}
}
