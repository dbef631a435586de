package main

import (
	"strings"
	"testing"
)

func TestRenderVersion(t *testing.T) {
	var sb strings.Builder
	renderVersion(&sb, false, false)
	out := sb.String()
	if !strings.HasPrefix(out, "strata ") {
		t.Errorf("output = %q, want the strata prefix", out)
	}
	if strings.Contains(out, "commit:") || strings.Contains(out, "built:") {
		t.Errorf("metadata printed without being requested:\n%s", out)
	}

	sb.Reset()
	renderVersion(&sb, true, true)
	out = sb.String()
	if !strings.Contains(out, "commit: unknown") {
		t.Errorf("missing commit line:\n%s", out)
	}
	if !strings.Contains(out, "built:  unknown") {
		t.Errorf("missing build date line:\n%s", out)
	}
}

func TestValueOrUnknown(t *testing.T) {
	if got := valueOrUnknown(""); got != "unknown" {
		t.Errorf("empty = %q", got)
	}
	if got := valueOrUnknown("abc123"); got != "abc123" {
		t.Errorf("non-empty = %q", got)
	}
}
