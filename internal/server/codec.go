package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"unicode"

	"github.com/tidwall/resp"
	"github.com/vector-ops/dualkv/internal/config"
	"github.com/vector-ops/dualkv/internal/protocol"
)

// codec frames requests and responses on a stream connection.
type codec interface {
	// ReadRequest returns the request tokens and the raw request for logging.
	ReadRequest() ([]string, string, error)
	WriteResponse(protocol.Response) error
}

func newCodec(name string, conn net.Conn) codec {
	if name == config.CodecRESP {
		return newRESPCodec(conn)
	}
	return newTextCodec(conn)
}

// textCodec is one request per newline terminated line, one response line back.
type textCodec struct {
	rd *bufio.Reader
	wr *bufio.Writer
}

func newTextCodec(conn net.Conn) *textCodec {
	return &textCodec{
		rd: bufio.NewReader(conn),
		wr: bufio.NewWriter(conn),
	}
}

func (c *textCodec) ReadRequest() ([]string, string, error) {
	line, err := c.rd.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return nil, "", err
	}
	line = strings.TrimRight(line, "\r\n")
	return strings.Fields(line), line, nil
}

func (c *textCodec) WriteResponse(r protocol.Response) error {
	if _, err := c.wr.WriteString(r.Text + "\n"); err != nil {
		return err
	}
	return c.wr.Flush()
}

// respCodec accepts RESP arrays, or inline values, and answers with simple
// strings for successes and errors for failures.
type respCodec struct {
	rd *resp.Reader
	bw *bufio.Writer
	wr *resp.Writer
}

func newRESPCodec(conn net.Conn) *respCodec {
	bw := bufio.NewWriter(conn)
	return &respCodec{
		rd: resp.NewReader(conn),
		bw: bw,
		wr: resp.NewWriter(bw),
	}
}

func (c *respCodec) ReadRequest() ([]string, string, error) {
	v, _, err := c.rd.ReadValue()
	if err != nil {
		return nil, "", err
	}

	if v.Type() != resp.Array {
		tokens := strings.Fields(v.String())
		return tokens, strings.Join(tokens, " "), nil
	}

	elems := v.Array()
	tokens := make([]string, 0, len(elems))
	for _, a := range elems {
		tokens = append(tokens, a.String())
	}
	raw := strings.Join(tokens, " ")
	for _, tok := range tokens {
		// an element must be a single token, as on the text protocol
		if !isToken(tok) {
			return nil, raw, nil
		}
	}
	return tokens, raw, nil
}

func isToken(s string) bool {
	return s != "" && !strings.ContainsFunc(s, unicode.IsSpace)
}

func (c *respCodec) WriteResponse(r protocol.Response) error {
	var err error
	if r.OK() {
		err = c.wr.WriteSimpleString(r.Text)
	} else {
		err = c.wr.WriteError(errors.New(r.Text))
	}
	if err != nil {
		return err
	}
	return c.bw.Flush()
}
