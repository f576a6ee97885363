package transport

import (
	"errors"
	"net"
	"os"
	"time"
)

// UDPTransport sends each request as one datagram on a connected socket, so
// only replies from the server address are received.
type UDPTransport struct {
	conn net.Conn
	buf  []byte
}

func DialUDP(addr string, bufSize int) (*UDPTransport, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Addr: addr, Err: err}
	}
	return &UDPTransport{
		conn: conn,
		buf:  make([]byte, bufSize),
	}, nil
}

func (t *UDPTransport) Send(request string) error {
	if _, err := t.conn.Write([]byte(request)); err != nil {
		return &ConnectionError{Op: "send", Addr: t.GetRemoteAddress(), Err: err}
	}
	return nil
}

func (t *UDPTransport) Receive(timeout time.Duration) Result {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Result{Status: Failed, Err: err}
	}
	n, err := t.conn.Read(t.buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return Result{Status: TimedOut, Err: err}
		}
		return Result{Status: Failed, Err: err}
	}
	return Result{Status: Received, Response: string(t.buf[:n])}
}

func (t *UDPTransport) GetRemoteAddress() string {
	return t.conn.RemoteAddr().String()
}

func (t *UDPTransport) GetLocalAddress() string {
	return t.conn.LocalAddr().String()
}

func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
