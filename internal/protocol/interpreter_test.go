package protocol

import (
	"errors"
	"testing"

	"github.com/vector-ops/dualkv/internal/storage"
)

func TestInterpreterStreamDialect(t *testing.T) {
	in := NewInterpreter(storage.NewKeyVal(), StreamDialect)

	steps := []struct {
		line string
		want string
	}{
		{"GET a", "Error: Key not found"},
		{"DELETE a", "Error: Key not found"},
		{"PUT a 1", "Success: Key=a, Value=1 stored."},
		{"GET a", "Success: Key=a, Value=1"},
		{"PUT a 2", "Success: Key=a, Value=2 stored."},
		{"GET a", "Success: Key=a, Value=2"},
		{"put b x", "Success: Key=b, Value=x stored."},
		{"Get b", "Success: Key=b, Value=x"},
		{"DELETE a", "Success: Key=a deleted."},
		{"DELETE a", "Error: Key not found"},
		{"GET a", "Error: Key not found"},
		{"PUT a", "Error: PUT command requires 2 arguments (key, value)"},
		{"PUT a 1 2", "Error: PUT command requires 2 arguments (key, value)"},
		{"GET", "Error: GET command requires 1 argument (key)"},
		{"DELETE a b", "Error: DELETE command requires 1 argument (key)"},
		{"FOO k v", "Error: Unknown command"},
		{"", "Error: Malformed request"},
		{"   \t ", "Error: Malformed request"},
		{"  GET   b  ", "Success: Key=b, Value=x"},
	}

	for i, step := range steps {
		got := in.Execute(step.line)
		if got.Text != step.want {
			t.Fatalf("step %d (%q): expected %q but got %q", i, step.line, step.want, got.Text)
		}
	}
}

func TestInterpreterDatagramDialect(t *testing.T) {
	in := NewInterpreter(storage.NewKeyVal(), DatagramDialect)

	steps := []struct {
		line string
		want string
	}{
		{"PUT k v", "PUT Success: Key=k, Value=v"},
		{"GET k", "GET Success: Key=k, Value=v"},
		{"DELETE k", "DELETE Success: Key=k"},
		{"GET k", "Error: Key not found"},
		{"PUT k", "Error: PUT command requires 2 arguments (key, value)"},
		{"NOPE", "Error: Unknown command"},
	}

	for i, step := range steps {
		got := in.Execute(step.line)
		if got.Text != step.want {
			t.Fatalf("step %d (%q): expected %q but got %q", i, step.line, step.want, got.Text)
		}
	}
}

func TestInterpreterErrorsAreTyped(t *testing.T) {
	in := NewInterpreter(storage.NewKeyVal(), StreamDialect)

	resp := in.Execute("GET missing")
	if resp.OK() || !errors.Is(resp.Err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound but got %v", resp.Err)
	}

	resp = in.Execute("PUT only-key")
	var ae *ArityError
	if !errors.As(resp.Err, &ae) {
		t.Fatalf("expected *ArityError but got %v", resp.Err)
	}
	if ae.Op != CommandPUT || ae.Want != 2 || ae.Got != 1 {
		t.Fatalf("unexpected arity error %+v", ae)
	}

	resp = in.Dispatch(nil)
	if !errors.Is(resp.Err, ErrMalformedRequest) {
		t.Fatalf("expected ErrMalformedRequest but got %v", resp.Err)
	}

	resp = in.Dispatch([]string{"foo"})
	if !errors.Is(resp.Err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand but got %v", resp.Err)
	}
}

func TestInterpreterCaseInsensitive(t *testing.T) {
	upper := NewInterpreter(storage.NewKeyVal(), StreamDialect)
	lower := NewInterpreter(storage.NewKeyVal(), StreamDialect)

	for _, pair := range [][2]string{
		{"PUT k v", "put k v"},
		{"GET k", "get k"},
		{"DELETE k", "delete k"},
		{"DELETE k", "dElEtE k"},
	} {
		a := upper.Execute(pair[0])
		b := lower.Execute(pair[1])
		if a.Text != b.Text {
			t.Fatalf("expected %q and %q to match: %q vs %q", pair[0], pair[1], a.Text, b.Text)
		}
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseLine("put key value")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Op != CommandPUT || cmd.Key() != "key" || cmd.Value() != "value" {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if cmd.String() != "PUT key value" {
		t.Fatalf("expected canonical form %q but got %q", "PUT key value", cmd.String())
	}

	if _, err := ParseLine("GET"); err == nil {
		t.Fatalf("expected arity error for bare GET")
	}
}
