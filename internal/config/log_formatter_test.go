package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestNbFormatterOrdersObjectFirstAndEscapesNewlines(t *testing.T) {
	t.Parallel()

	entry := &log.Entry{
		Logger:  log.New(),
		Time:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Level:   log.InfoLevel,
		Message: "line one\nline two",
		Data: log.Fields{
			"user_id": 42,
			"object":  "Gate",
			"error":   errors.New("boom"),
		},
	}

	out, err := (&NbFormatter{}).Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	line := string(out)
	if strings.Count(line, "\n") != 1 {
		t.Fatalf("expected single line, got %q", line)
	}
	objectAt := strings.Index(line, "object")
	errorAt := strings.Index(line, "error")
	userAt := strings.Index(line, "user_id")
	if objectAt < 0 || errorAt < objectAt || userAt < errorAt {
		t.Fatalf("unexpected field order: %q", line)
	}
	if !strings.Contains(line, `"boom"`) {
		t.Fatalf("error value missing: %q", line)
	}
	if !strings.Contains(line, `line one\nline two`) {
		t.Fatalf("message newline not escaped: %q", line)
	}
}
