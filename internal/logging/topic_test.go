package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestTopicHandler(t *testing.T) {
	tests := []struct {
		name    string
		topics  map[string]bool
		wantOut []string
		wantNot []string
	}{
		{
			name:    "no topics",
			topics:  nil,
			wantOut: []string{"startup"},
			wantNot: []string{"extracted", "reloaded"},
		},
		{
			name:    "one topic",
			topics:  map[string]bool{"reload": true},
			wantOut: []string{"startup", "reloaded"},
			wantNot: []string{"extracted"},
		},
		{
			name:    "all",
			topics:  map[string]bool{"all": true},
			wantOut: []string{"startup", "reloaded", "extracted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.topics)

			logger.Info("startup")
			logger.With("topic", "extract").Info("extracted")
			logger.Info("reloaded", "topic", "reload")

			out := buf.String()
			for _, want := range tt.wantOut {
				if !strings.Contains(out, want) {
					t.Fatalf("output missing %q:\n%s", want, out)
				}
			}
			for _, not := range tt.wantNot {
				if strings.Contains(out, not) {
					t.Fatalf("output contains %q:\n%s", not, out)
				}
			}
		})
	}
}

func TestTopicHandler_WarningsBypassFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, ParseTopics(false, ""))

	logger.With("topic", "apply").Error("backup failed", "app", "rofi")
	logger.Warn("history unavailable", "topic", "history")
	logger.With("topic", "apply").Info("applied theme")

	out := buf.String()
	for _, want := range []string{"backup failed", "app=rofi", "history unavailable"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "applied theme") {
		t.Fatalf("filtered info record was written:\n%s", out)
	}
}

func TestTopicHandler_GroupKeepsTopic(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, map[string]bool{"watch": true})
	logger.With("topic", "watch").WithGroup("event").Info("changed", "path", "/w.png")
	if !strings.Contains(buf.String(), "event.path=/w.png") {
		t.Fatalf("grouped record missing: %s", buf.String())
	}
}

func TestParseTopics(t *testing.T) {
	got := ParseTopics(false, " extract, reload,,")
	if len(got) != 2 || !got["extract"] || !got["reload"] {
		t.Fatalf("ParseTopics() = %v", got)
	}
	if got := ParseTopics(true, ""); !got["all"] || len(got) != 1 {
		t.Fatalf("ParseTopics(verbose) = %v", got)
	}
}
