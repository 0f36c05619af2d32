package stream

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyInstalled is returned by Install when a redirector already owns
// the process's standard streams.
var ErrAlreadyInstalled = errors.New("stream: redirector already installed")

const (
	// syncTimeout bounds how long Flush waits for a pump to acknowledge.
	syncTimeout = 2 * time.Second

	// drainTimeout bounds how long Restore waits for pumps to reach EOF. A
	// child process that inherited a pipe keeps its write end open.
	drainTimeout = 2 * time.Second
)

// syncMarker is written into a pipe by Flush; the pump strips it and
// acknowledges, which proves every earlier byte has reached the buffer.
var syncMarker = []byte("\x1b]gokernel-sync\x07")

// installed guards the process-wide streams.
var installed atomic.Bool

// Redirector substitutes os.Stdout and os.Stderr with captured pipes.
//
// Contract:
// - Concurrency: methods are safe for concurrent use. Writers to the
// standard streams are not serialized by the redirector; the buffers are.
// - Lifecycle: Install once per session, Restore on every exit path. Restore
// is idempotent and safe to call without Install.
// - Errors: Restore and Flush never fail; lost bytes are preferable to a
// session that cannot shut down.
type Redirector struct {
	mu       sync.Mutex
	stdout   *Buffer
	stderr   *Buffer
	savedOut *os.File
	savedErr *os.File
	pumps    []*pump
	active   bool
}

// NewRedirector returns a Redirector whose captured stdout and stderr text is
// published through the given callbacks.
func NewRedirector(stdout, stderr PublishFunc) *Redirector {
	return &Redirector{
		stdout: NewBuffer(stdout),
		stderr: NewBuffer(stderr),
	}
}

// Install saves the current standard streams and substitutes the capture
// pipes. It returns ErrAlreadyInstalled when any redirector is installed.
func (r *Redirector) Install() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active || !installed.CompareAndSwap(false, true) {
		return ErrAlreadyInstalled
	}

	outPump, err := newPump(r.stdout)
	if err != nil {
		installed.Store(false)
		return fmt.Errorf("stream: stdout pipe: %w", err)
	}
	errPump, err := newPump(r.stderr)
	if err != nil {
		outPump.closeAll()
		installed.Store(false)
		return fmt.Errorf("stream: stderr pipe: %w", err)
	}

	r.savedOut, r.savedErr = os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outPump.w, errPump.w
	r.pumps = []*pump{outPump, errPump}
	for _, p := range r.pumps {
		go p.run()
	}
	r.active = true
	return nil
}

// Installed reports whether this redirector currently owns the streams.
func (r *Redirector) Installed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Original returns the streams that were in place before Install. When the
// redirector is not installed it returns the current streams.
func (r *Redirector) Original() (stdout, stderr *os.File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return os.Stdout, os.Stderr
	}
	return r.savedOut, r.savedErr
}

// Flush forces everything written so far through the pipes and publishes it,
// including partial lines.
func (r *Redirector) Flush() {
	r.mu.Lock()
	pumps := append([]*pump(nil), r.pumps...)
	r.mu.Unlock()

	for _, p := range pumps {
		p.sync(syncTimeout)
	}
	r.stdout.Flush()
	r.stderr.Flush()
}

// Restore reinstates the saved streams, drains the pipes and publishes any
// remaining text.
func (r *Redirector) Restore() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.active = false

	os.Stdout, os.Stderr = r.savedOut, r.savedErr
	for _, p := range r.pumps {
		_ = p.w.Close()
	}
	for _, p := range r.pumps {
		p.drain(drainTimeout)
	}
	r.pumps = nil
	r.savedOut, r.savedErr = nil, nil

	r.stdout.Flush()
	r.stderr.Flush()
	installed.Store(false)
}

// pump copies one pipe into one Buffer.
type pump struct {
	r   *os.File
	w   *os.File
	buf *Buffer

	writeMu sync.Mutex // orders waiter registration with marker writes
	mu      sync.Mutex
	waiters []chan struct{}
	closed  bool
	done    chan struct{}
}

func newPump(buf *Buffer) (*pump, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &pump{r: pr, w: pw, buf: buf, done: make(chan struct{})}, nil
}

func (p *pump) run() {
	defer close(p.done)
	defer p.release()

	chunk := make([]byte, 32*1024)
	var carry []byte
	for {
		n, err := p.r.Read(chunk)
		if n > 0 {
			carry = p.consume(append(carry, chunk[:n]...))
		}
		if err != nil {
			if len(carry) > 0 {
				_, _ = p.buf.Write(carry)
			}
			return
		}
	}
}

// consume writes data to the buffer, acknowledging sync markers, and returns
// a trailing fragment that may be the start of a marker.
func (p *pump) consume(data []byte) []byte {
	for {
		i := bytes.Index(data, syncMarker)
		if i < 0 {
			break
		}
		if i > 0 {
			_, _ = p.buf.Write(data[:i])
		}
		p.ack()
		data = data[i+len(syncMarker):]
	}
	keep := markerPrefixLen(data)
	if n := len(data) - keep; n > 0 {
		_, _ = p.buf.Write(data[:n])
	}
	return append([]byte(nil), data[len(data)-keep:]...)
}

// markerPrefixLen returns the length of the longest suffix of data that is a
// proper prefix of syncMarker.
func markerPrefixLen(data []byte) int {
	k := len(syncMarker) - 1
	if len(data) < k {
		k = len(data)
	}
	for ; k > 0; k-- {
		if bytes.HasPrefix(syncMarker, data[len(data)-k:]) {
			return k
		}
	}
	return 0
}

func (p *pump) ack() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.waiters) == 0 {
		return
	}
	close(p.waiters[0])
	p.waiters = p.waiters[1:]
}

func (p *pump) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.waiters {
		close(ch)
	}
	p.waiters = nil
	p.closed = true
}

func (p *pump) sync(timeout time.Duration) bool {
	ch := make(chan struct{})

	p.writeMu.Lock()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.writeMu.Unlock()
		return false
	}
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()

	_, err := p.w.Write(syncMarker)
	p.writeMu.Unlock()
	if err != nil {
		p.forget(ch)
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

func (p *pump) forget(ch chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waiters {
		if w == ch {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}

func (p *pump) drain(timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		// Unblocks the pending Read.
		_ = p.r.Close()
		<-p.done
		return
	}
	_ = p.r.Close()
}

func (p *pump) closeAll() {
	_ = p.w.Close()
	_ = p.r.Close()
}
