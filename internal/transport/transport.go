package transport

import (
	"fmt"
	"time"
)

// Status tags the outcome of waiting for a response.
type Status int

const (
	Received Status = iota
	TimedOut
	Closed
	Failed
)

func (s Status) String() string {
	switch s {
	case Received:
		return "received"
	case TimedOut:
		return "timed out"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is what Receive hands back: a response, a timeout, end of stream,
// or an error.
type Result struct {
	Status   Status
	Response string
	Err      error
}

// Transport is the client side of one request/response channel.
type Transport interface {
	Send(request string) error
	Receive(timeout time.Duration) Result
	GetRemoteAddress() string
	GetLocalAddress() string
	Close() error
}

// ConnectionError wraps a socket level failure of a client transport.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
