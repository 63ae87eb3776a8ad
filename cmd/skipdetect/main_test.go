package main

import (
	"strings"
	"testing"

	"skipdetect/internal/scheduler"
	"skipdetect/internal/segments"
)

func TestRootListsCommands(t *testing.T) {
	out, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"analyze", "daemon", "blacklist", "deps", "config"} {
		if !strings.Contains(out, name) {
			t.Fatalf("help output missing %q:\n%s", name, out)
		}
	}
}

func TestModeLabel(t *testing.T) {
	if got := modeLabel(segments.ModeIntroduction); got != "Introduction" {
		t.Fatalf("got %q, want Introduction", got)
	}
	if got := modeLabel(segments.ModeCredits); got != "Credits" {
		t.Fatalf("got %q, want Credits", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{65.4, "1:05"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}
	for _, tc := range cases {
		if got := formatTimestamp(tc.seconds); got != tc.want {
			t.Fatalf("formatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestRenderSummaryTable(t *testing.T) {
	out := renderSummaryTable([]scheduler.Summary{
		{Mode: segments.ModeIntroduction, Units: 3, QueuedItems: 24, Resolved: 20, Blacklisted: 2, Skipped: 2},
	})
	for _, want := range []string{"Introduction", "24", "20"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary table missing %q:\n%s", want, out)
		}
	}
}
