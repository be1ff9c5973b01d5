package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"genreclf/internal/publish"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Registry", statusError, "unreachable", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Registry:", "[ERROR] unreachable")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Local model", statusOK, "", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
	if !strings.Contains(got, "[OK]") {
		t.Fatalf("expected bare status label, got %q", got)
	}
}

func TestRenderOutcome(t *testing.T) {
	cases := []struct {
		outcome publish.Outcome
		want    string
	}{
		{
			publish.Outcome{Decision: publish.Published, Metric: "f1_micro", NewValue: 0.5, PriorValue: 0.4, PriorState: publish.PriorFound},
			"[OK] f1_micro 0.5000 (prior 0.4000)",
		},
		{
			publish.Outcome{Decision: publish.Skipped, Metric: "f1_micro", NewValue: 0.55, PriorValue: 0.6, PriorState: publish.PriorFound},
			"[WARN] f1_micro 0.5500 (prior 0.6000)",
		},
		{
			publish.Outcome{Decision: publish.Published, Metric: "f1_macro", NewValue: 0.1, PriorState: publish.PriorAbsent},
			"(prior none)",
		},
		{
			publish.Outcome{Decision: publish.Published, Metric: "f1_micro", NewValue: 0.1, PriorState: publish.PriorUnavailable},
			"(prior unavailable)",
		},
	}
	for _, tc := range cases {
		got := renderOutcome(tc.outcome, false)
		if !strings.Contains(got, tc.want) {
			t.Fatalf("renderOutcome(%+v) = %q, want substring %q", tc.outcome, got, tc.want)
		}
		if !strings.Contains(got, string(tc.outcome.Decision)+":") {
			t.Fatalf("expected decision label in %q", got)
		}
	}
}

func TestShouldColorizeIgnoresBuffers(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Genre", "F1"}, [][]string{{"Drama"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "Drama") || !strings.Contains(out, "Genre") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if strings.Contains(out, "GENRE") {
		t.Fatalf("headers should keep their case:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty render without headers")
	}
}
