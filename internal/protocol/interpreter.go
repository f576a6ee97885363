package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Store is the subset of the key-value store the interpreter drives.
type Store interface {
	Put(key, value string)
	Get(key string) (string, bool)
	Delete(key string) bool
}

// Dialect holds the success wording of one transport. Error wording is
// shared by every dialect.
type Dialect struct {
	Name    string
	Stored  string // key, value
	Found   string // key, value
	Deleted string // key
}

var (
	StreamDialect = Dialect{
		Name:    "stream",
		Stored:  "Success: Key=%s, Value=%s stored.",
		Found:   "Success: Key=%s, Value=%s",
		Deleted: "Success: Key=%s deleted.",
	}
	DatagramDialect = Dialect{
		Name:    "datagram",
		Stored:  "PUT Success: Key=%s, Value=%s",
		Found:   "GET Success: Key=%s, Value=%s",
		Deleted: "DELETE Success: Key=%s",
	}
)

// Response is the outcome of one request. Text is what goes on the wire.
type Response struct {
	Cmd  Command
	Err  error
	Text string
}

func (r Response) OK() bool {
	return r.Err == nil
}

func (r Response) String() string {
	return r.Text
}

// ErrorText renders err the way it is sent to peers.
func ErrorText(err error) string {
	var ae *ArityError
	switch {
	case errors.As(err, &ae):
		return "Error: " + ae.Error()
	case errors.Is(err, ErrKeyNotFound):
		return "Error: Key not found"
	case errors.Is(err, ErrUnknownCommand):
		return "Error: Unknown command"
	case errors.Is(err, ErrMalformedRequest):
		return "Error: Malformed request"
	default:
		msg := err.Error()
		if msg == "" {
			return "Error"
		}
		return "Error: " + strings.ToUpper(msg[:1]) + msg[1:]
	}
}

type Interpreter struct {
	store   Store
	dialect Dialect
}

func NewInterpreter(store Store, dialect Dialect) *Interpreter {
	return &Interpreter{
		store:   store,
		dialect: dialect,
	}
}

func (in *Interpreter) Dialect() Dialect {
	return in.dialect
}

// Execute runs a single raw request line.
func (in *Interpreter) Execute(line string) Response {
	return in.Dispatch(strings.Fields(line))
}

// Dispatch runs an already tokenised request. It never fails: every error
// path is carried in the returned Response.
func (in *Interpreter) Dispatch(tokens []string) Response {
	cmd, err := Parse(tokens)
	if err != nil {
		return errorResponse(cmd, err)
	}

	switch cmd.Op {
	case CommandPUT:
		in.store.Put(cmd.Key(), cmd.Value())
		return Response{Cmd: cmd, Text: fmt.Sprintf(in.dialect.Stored, cmd.Key(), cmd.Value())}

	case CommandGET:
		val, ok := in.store.Get(cmd.Key())
		if !ok {
			return errorResponse(cmd, ErrKeyNotFound)
		}
		return Response{Cmd: cmd, Text: fmt.Sprintf(in.dialect.Found, cmd.Key(), val)}

	case CommandDELETE:
		if !in.store.Delete(cmd.Key()) {
			return errorResponse(cmd, ErrKeyNotFound)
		}
		return Response{Cmd: cmd, Text: fmt.Sprintf(in.dialect.Deleted, cmd.Key())}
	}

	return errorResponse(cmd, ErrUnknownCommand)
}

func errorResponse(cmd Command, err error) Response {
	return Response{Cmd: cmd, Err: err, Text: ErrorText(err)}
}
