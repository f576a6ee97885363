package utils

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

func TestFormatHostPort(t *testing.T) {
	cases := map[[2]string]string{
		{"localhost", "5000"}: "localhost:5000",
		{"127.0.0.1", "5000"}: "127.0.0.1:5000",
		{"::1", "5000"}:       "[::1]:5000",
		{"[::1]", "5000"}:     "[::1]:5000",
	}
	for in, want := range cases {
		if got := FormatHostPort(in[0], in[1]); got != want {
			t.Fatalf("FormatHostPort(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	logger.Info("hello", "k", "v")
	logger.Debug("hidden")

	out := buf.String()
	if !regexp.MustCompile(`time="\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}"`).MatchString(out) {
		t.Fatalf("expected millisecond timestamp in %q", out)
	}
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "k=v") {
		t.Fatalf("expected message and attribute in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug record to be filtered: %q", out)
	}
}
