package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/jpillora/backoff"
)

// DialOptions controls how many times a stream dial is retried.
type DialOptions struct {
	Attempts   int
	BackoffMin time.Duration
	BackoffMax time.Duration
}

type TCPTransport struct {
	conn net.Conn
	rd   *bufio.Reader
	// bytes of a response line cut short by a read deadline
	partial string
}

func NewTCPTransport(conn net.Conn) *TCPTransport {
	return &TCPTransport{
		conn: conn,
		rd:   bufio.NewReader(conn),
	}
}

// DialTCP connects to addr, backing off between failed attempts.
func DialTCP(ctx context.Context, addr string, opts DialOptions) (*TCPTransport, error) {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	b := &backoff.Backoff{
		Min:    opts.BackoffMin,
		Max:    opts.BackoffMax,
		Factor: 2,
		Jitter: true,
	}

	var d net.Dialer
	var lastErr error
	for b.Attempt() < float64(opts.Attempts) {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return NewTCPTransport(conn), nil
		}
		lastErr = err

		wait := b.Duration()
		if b.Attempt() >= float64(opts.Attempts) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &ConnectionError{Op: "dial", Addr: addr, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}
	return nil, &ConnectionError{Op: "dial", Addr: addr, Err: lastErr}
}

func (t *TCPTransport) Send(request string) error {
	if _, err := io.WriteString(t.conn, request+"\n"); err != nil {
		return &ConnectionError{Op: "send", Addr: t.GetRemoteAddress(), Err: err}
	}
	return nil
}

func (t *TCPTransport) Receive(timeout time.Duration) Result {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Result{Status: Failed, Err: err}
	}
	line, err := t.rd.ReadString('\n')
	line = t.partial + line
	t.partial = ""
	if err != nil {
		switch {
		case errors.Is(err, os.ErrDeadlineExceeded):
			t.partial = line
			return Result{Status: TimedOut, Err: err}
		case errors.Is(err, io.EOF) && line == "":
			return Result{Status: Closed}
		case !errors.Is(err, io.EOF):
			return Result{Status: Failed, Err: err}
		}
	}
	return Result{Status: Received, Response: strings.TrimRight(line, "\r\n")}
}

func (t *TCPTransport) GetRemoteAddress() string {
	return t.conn.RemoteAddr().String()
}

func (t *TCPTransport) GetLocalAddress() string {
	return t.conn.LocalAddr().String()
}

func (t *TCPTransport) Close() error {
	return t.conn.Close()
}
