package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestEmbedding_CIReporter(t *testing.T) {
	var buf bytes.Buffer
	fn := Embedding(&CIReporter{Out: &buf}, "legal_texas")

	fn(64, 150)
	fn(128, 150)
	fn(150, 150)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"Embedding 150 chunks for legal_texas",
		"[64/150] legal_texas: 64/150 chunks",
		"[128/150] legal_texas: 128/150 chunks",
		"[150/150] legal_texas: 150/150 chunks",
		"legal_texas: embedding complete",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestNewReporter_CI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter().(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}
