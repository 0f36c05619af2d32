package stream

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// PublishFunc receives text flushed from a Buffer.
type PublishFunc func(text string)

// Buffer is a line-buffered accumulator bound to one stream. Every complete
// line is published as soon as it is written; Flush publishes the remainder.
//
// Buffer is safe for concurrent writers. The publish callback runs with the
// buffer locked and must not write back into the same Buffer.
type Buffer struct {
	mu      sync.Mutex
	buf     []byte
	publish PublishFunc
}

// NewBuffer returns a Buffer that publishes through publish. A nil publish
// discards flushed text.
func NewBuffer(publish PublishFunc) *Buffer {
	return &Buffer{publish: publish}
}

// Write appends p and publishes everything up to the last newline.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if i := bytes.LastIndexByte(b.buf, '\n'); i >= 0 {
		b.emit(i + 1)
	}
	return len(p), nil
}

// WriteString appends s. It implements io.StringWriter.
func (b *Buffer) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

// Flush publishes any buffered text, including a trailing partial line.
func (b *Buffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) > 0 {
		b.emit(len(b.buf))
	}
}

// Len reports the number of buffered, unpublished bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

func (b *Buffer) emit(n int) {
	text := string(b.buf[:n])
	b.buf = append(b.buf[:0], b.buf[n:]...)
	if b.publish != nil {
		b.publish(text)
	}
}

// fileWriter writes to whatever file the function returns at write time.
type fileWriter func() *os.File

func (f fileWriter) Write(p []byte) (int, error) {
	return f().Write(p)
}

// Stdout writes to the current value of os.Stdout. Components built before a
// Redirector is installed can hold it and still land in the captured stream.
var Stdout io.Writer = fileWriter(func() *os.File { return os.Stdout })

// Stderr writes to the current value of os.Stderr.
var Stderr io.Writer = fileWriter(func() *os.File { return os.Stderr })
