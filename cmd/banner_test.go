package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintBanner(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("banner should not contain color codes with NO_COLOR set")
	}
	if !strings.Contains(out, "tokensmith --help") {
		t.Errorf("banner should point at --help, got: %s", out)
	}
	if strings.Count(out, "\n") < 4 {
		t.Errorf("banner art missing: %q", out)
	}
}
