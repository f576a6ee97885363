package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/vector-ops/dualkv/internal/protocol"
	"github.com/vector-ops/dualkv/internal/storage"
)

var ErrTransportClosed = errors.New("transport closed")

// MockTransport answers requests in-process with its own interpreter. Drop
// and Hangup let tests simulate lost datagrams and a server closing the
// stream.
type MockTransport struct {
	mu      sync.Mutex
	interp  *protocol.Interpreter
	sent    []string
	pending []Result
	drop    map[int]bool
	hangup  map[int]bool
	closed  bool
}

func NewMockTransport(dialect protocol.Dialect) *MockTransport {
	return &MockTransport{
		interp: protocol.NewInterpreter(storage.NewKeyVal(), dialect),
		drop:   make(map[int]bool),
		hangup: make(map[int]bool),
	}
}

// Drop loses the n-th request (zero based) so its Receive times out.
func (t *MockTransport) Drop(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drop[n] = true
}

// Hangup makes the n-th request observe end of stream.
func (t *MockTransport) Hangup(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hangup[n] = true
}

func (t *MockTransport) Send(request string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return &ConnectionError{Op: "send", Addr: t.GetRemoteAddress(), Err: ErrTransportClosed}
	}

	n := len(t.sent)
	t.sent = append(t.sent, request)

	switch {
	case t.drop[n]:
		t.pending = append(t.pending, Result{Status: TimedOut})
	case t.hangup[n]:
		t.pending = append(t.pending, Result{Status: Closed})
	default:
		resp := t.interp.Execute(request)
		t.pending = append(t.pending, Result{Status: Received, Response: resp.Text})
	}
	return nil
}

func (t *MockTransport) Receive(_ time.Duration) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return Result{Status: Failed, Err: ErrTransportClosed}
	}
	if len(t.pending) == 0 {
		return Result{Status: TimedOut}
	}
	res := t.pending[0]
	t.pending = t.pending[1:]
	return res
}

// Sent returns every request seen so far.
func (t *MockTransport) Sent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}

func (t *MockTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *MockTransport) GetRemoteAddress() string {
	return "mock-address"
}

func (t *MockTransport) GetLocalAddress() string {
	return "mock-address"
}

func (t *MockTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
