package protocol

import (
	"errors"
	"fmt"
	"strings"
)

type Op string

const (
	CommandPUT    Op = "PUT"
	CommandGET    Op = "GET"
	CommandDELETE Op = "DELETE"
)

var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrKeyNotFound      = errors.New("key not found")
)

type arity struct {
	args  int
	usage string
}

// arities maps every supported operation to the number of argument tokens
// that must follow it.
var arities = map[Op]arity{
	CommandPUT:    {args: 2, usage: "key, value"},
	CommandGET:    {args: 1, usage: "key"},
	CommandDELETE: {args: 1, usage: "key"},
}

// ArityError reports a known operation sent with the wrong number of arguments.
type ArityError struct {
	Op    Op
	Want  int
	Got   int
	Usage string
}

func (e *ArityError) Error() string {
	noun := "arguments"
	if e.Want == 1 {
		noun = "argument"
	}
	return fmt.Sprintf("%s command requires %d %s (%s)", e.Op, e.Want, noun, e.Usage)
}

// Command is a parsed request. Args holds exactly the arity of Op.
type Command struct {
	Op   Op
	Args []string
}

func (c Command) Key() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

func (c Command) Value() string {
	if len(c.Args) < 2 {
		return ""
	}
	return c.Args[1]
}

func (c Command) String() string {
	return strings.Join(append([]string{string(c.Op)}, c.Args...), " ")
}

// Parse turns whitespace separated tokens into a Command. The operation is
// matched case-insensitively.
func Parse(tokens []string) (Command, error) {
	if len(tokens) == 0 {
		return Command{}, ErrMalformedRequest
	}

	op := Op(strings.ToUpper(tokens[0]))
	a, ok := arities[op]
	if !ok {
		return Command{}, ErrUnknownCommand
	}

	args := tokens[1:]
	if len(args) != a.args {
		return Command{Op: op}, &ArityError{Op: op, Want: a.args, Got: len(args), Usage: a.usage}
	}

	return Command{Op: op, Args: args}, nil
}

// ParseLine is Parse applied to strings.Fields(line).
func ParseLine(line string) (Command, error) {
	return Parse(strings.Fields(line))
}
