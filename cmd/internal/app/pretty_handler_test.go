package app

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestStripANSI(t *testing.T) {
	t.Parallel()

	in := ansiBlue + "INFO" + ansiReset + " plain " + ansiRed + "ERR" + ansiReset
	if got := stripANSI(in); got != "INFO plain ERR" {
		t.Fatalf("stripANSI()=%q", got)
	}
}

func TestPrettyHandler_Line(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}, false))

	log.With("component", "vote").WithGroup("req").Warn("vote.submit.fail",
		"status", 409,
		"path", "/votes",
		"err", errors.New("duplicate vote"),
	)
	log.Debug("hidden")

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", out)
	}
	for _, want := range []string{
		"WARN",
		"vote.submit.fail",
		"component=vote",
		"req.status=409",
		"req.path=/votes",
		`req.err="duplicate vote"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if stripANSI(out) != out {
		t.Fatalf("color disabled but found escape codes: %q", out)
	}
}

func TestPrettyHandler_Color(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, nil, true))
	log.Info("http.request", "status", 503, "duration_ms", int64(1200))

	out := buf.String()
	if !strings.Contains(out, ansiRed+"503"+ansiReset) {
		t.Fatalf("expected red 5xx status in %q", out)
	}
	if !strings.Contains(stripANSI(out), "duration_ms=1200ms") {
		t.Fatalf("expected duration rendering in %q", stripANSI(out))
	}
}
