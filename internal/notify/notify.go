package notify

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Kind classifies a user-facing notification. The mapping from transport
// failure to kind happens in the gateway; the mapping from kind to display
// text happens here — callers never build their own error-display logic.
type Kind string

const (
	// KindSessionExpired is emitted when a 401 response tears down the session.
	KindSessionExpired Kind = "session_expired"
	// KindTransient is emitted for 5xx responses.
	KindTransient Kind = "transient"
	// KindRejected is emitted for non-401 4xx responses; the message is the
	// server-supplied error text, verbatim.
	KindRejected Kind = "rejected"
	// KindNetwork is emitted when a request got no response at all.
	KindNetwork Kind = "network"
)

// Notification is the canonical event model delivered to sinks.
type Notification struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Path      string    `json:"path,omitempty"`
}

// Sink receives dispatched notifications.
type Sink interface {
	Emit(ctx context.Context, n Notification)
}

// NoOpSink drops notifications.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Notification) {}

// ChannelSink writes notifications into a buffered channel, the usual bridge
// to a UI toast/banner surface.
type ChannelSink struct {
	events chan Notification
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Notification, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, n Notification) {
	select {
	case s.events <- n:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Notification {
	return s.events
}

// Fanout delivers each notification to every sink in order.
func Fanout(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return fanoutSink(sinks)
}

type fanoutSink []Sink

func (f fanoutSink) Emit(ctx context.Context, n Notification) {
	for _, s := range f {
		s.Emit(ctx, n)
	}
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, n Notification) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// DisplayText maps a notification kind to its generic user-visible message.
// KindRejected carries the server message instead and returns it unchanged.
func DisplayText(n Notification) string {
	switch n.Kind {
	case KindSessionExpired:
		return "Your session has expired. Please sign in again."
	case KindTransient:
		return "The server is temporarily unavailable. Please try again."
	case KindNetwork:
		return "Could not reach the server. Check your connection."
	case KindRejected:
		return n.Message
	}
	return n.Message
}
