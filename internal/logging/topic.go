// Package logging filters slog output by topic.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Topics known to the themer. "all" enables every topic.
var Topics = []string{"extract", "render", "apply", "reload", "backup", "history", "watch", "dbus"}

// TopicHandler wraps an slog.Handler and filters records by a "topic" attribute.
// Records without a topic attribute and warnings or worse always pass through.
// Other records with a topic only pass if that topic is enabled.
type TopicHandler struct {
	inner  slog.Handler
	topics map[string]bool
	topic  string // set when WithAttrs includes a "topic" key
}

// NewTopicHandler filters inner down to the enabled topics.
func NewTopicHandler(inner slog.Handler, topics map[string]bool) *TopicHandler {
	if topics == nil {
		topics = map[string]bool{}
	}
	return &TopicHandler{inner: inner, topics: topics}
}

func (h *TopicHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.inner.Enabled(context.Background(), level)
}

func (h *TopicHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.topics["all"] || r.Level >= slog.LevelWarn {
		return h.inner.Handle(ctx, r)
	}
	topic := h.topic
	if topic == "" {
		// Check record-level attrs as fallback.
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "topic" {
				topic = a.Value.String()
				return false
			}
			return true
		})
	}
	if topic != "" && !h.topics[topic] {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *TopicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	topic := h.topic
	for _, a := range attrs {
		if a.Key == "topic" {
			topic = a.Value.String()
		}
	}
	return &TopicHandler{inner: h.inner.WithAttrs(attrs), topics: h.topics, topic: topic}
}

func (h *TopicHandler) WithGroup(name string) slog.Handler {
	return &TopicHandler{inner: h.inner.WithGroup(name), topics: h.topics, topic: h.topic}
}

// ParseTopics turns the --verbose and --log flags into an enabled set.
func ParseTopics(verbose bool, list string) map[string]bool {
	topics := make(map[string]bool)
	if verbose {
		topics["all"] = true
	}
	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics[t] = true
		}
	}
	return topics
}

// New builds a debug-level text logger on w filtered to topics.
func New(w io.Writer, topics map[string]bool) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewTopicHandler(inner, topics))
}
