package protocol

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stream names used with PublishStream.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Publisher receives side-channel output produced while a request runs.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; captured
// streams are published from pump goroutines while Execute runs.
// - Errors: publishing is best-effort and must not panic.
// - Ownership: data and metadata are owned by the publisher after the call.
type Publisher interface {
	// PublishStream forwards captured text written to the named stream.
	PublishStream(name, text string)

	// PublishExecuteResult publishes the value of a submission's trailing
	// expression, tagged with the submission counter.
	PublishExecuteResult(counter int, data MIMEBundle, metadata map[string]any)

	// PublishDisplayData publishes rich output that is not an execution result.
	PublishDisplayData(data MIMEBundle, metadata map[string]any)
}

// MessageType identifies the kind of a published Message.
type MessageType string

// Message types recorded by Recorder.
const (
	MessageStream        MessageType = "stream"
	MessageExecuteResult MessageType = "execute_result"
	MessageDisplayData   MessageType = "display_data"
)

// Message is one published side-channel message.
type Message struct {
	ID      string         `json:"msg_id"`
	Type    MessageType    `json:"msg_type"`
	Content map[string]any `json:"content"`
	Time    time.Time      `json:"time"`
}

// Recorder is a Publisher that keeps every message it receives, in order.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// PublishStream records a stream message.
func (r *Recorder) PublishStream(name, text string) {
	r.record(MessageStream, map[string]any{
		"name": name,
		"text": text,
	})
}

// PublishExecuteResult records an execute_result message.
func (r *Recorder) PublishExecuteResult(counter int, data MIMEBundle, metadata map[string]any) {
	r.record(MessageExecuteResult, map[string]any{
		"execution_count": counter,
		"data":            data,
		"metadata":        normalizeMetadata(metadata),
	})
}

// PublishDisplayData records a display_data message.
func (r *Recorder) PublishDisplayData(data MIMEBundle, metadata map[string]any) {
	r.record(MessageDisplayData, map[string]any{
		"data":     data,
		"metadata": normalizeMetadata(metadata),
	})
}

func (r *Recorder) record(typ MessageType, content map[string]any) {
	msg := Message{
		ID:      uuid.NewString(),
		Type:    typ,
		Content: content,
		Time:    time.Now(),
	}
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
}

// Messages returns a snapshot of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Drain returns the recorded messages and clears the recorder.
func (r *Recorder) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.messages
	r.messages = nil
	return out
}

// OfType returns the recorded messages of the given type.
func (r *Recorder) OfType(typ MessageType) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.messages {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// Stream returns the concatenated text recorded for the named stream.
func (r *Recorder) Stream(name string) string {
	return StreamText(r.Messages(), name)
}

// StreamText concatenates the text of the stream messages published to name.
func StreamText(messages []Message, name string) string {
	var text string
	for _, m := range messages {
		if m.Type != MessageStream || m.Content["name"] != name {
			continue
		}
		if s, ok := m.Content["text"].(string); ok {
			text += s
		}
	}
	return text
}

func normalizeMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}
