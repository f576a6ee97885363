package server

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/vector-ops/dualkv/internal/config"
	"github.com/vector-ops/dualkv/internal/script"
	"github.com/vector-ops/dualkv/internal/storage"
	"github.com/vector-ops/dualkv/internal/utils"
)

func startDatagramServer(t *testing.T, cfg config.ServerConfig, population script.Source) (*DatagramServer, chan error) {
	t.Helper()
	cfg.Host = "127.0.0.1"
	cfg.Port = "0"

	srv := NewDatagramServer(cfg, storage.NewKeyVal(), population, utils.Discard())
	if err := srv.Listen(); err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()
	t.Cleanup(func() { srv.Close() })
	return srv, errCh
}

func exchange(t *testing.T, conn net.Conn, request string) string {
	t.Helper()
	if _, err := conn.Write([]byte(request)); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("reading response to %q: %v", request, err)
	}
	return string(buf[:n])
}

func TestDatagramServerScriptScenario(t *testing.T) {
	srv, _ := startDatagramServer(t, config.DefaultServerConfig(), script.Lines{"PUT a 1", "PUT b 2", "DELETE a"})

	conn, err := net.Dial("udp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	steps := []struct {
		request string
		want    string
	}{
		{"GET a", "Error: Key not found"},
		{"GET b", "GET Success: Key=b, Value=2"},
		{"PUT c 3", "PUT Success: Key=c, Value=3"},
		{"GET c\n", "GET Success: Key=c, Value=3"},
		{"delete c", "DELETE Success: Key=c"},
		{"DELETE c", "Error: Key not found"},
		{"PUT c", "Error: PUT command requires 2 arguments (key, value)"},
		{"FOO", "Error: Unknown command"},
		{" ", "Error: Malformed request"},
	}
	for _, step := range steps {
		if got := exchange(t, conn, step.request); got != step.want {
			t.Fatalf("%q: expected %q but got %q", step.request, step.want, got)
		}
	}
}

func TestDatagramServerRepliesToEachOrigin(t *testing.T) {
	srv, _ := startDatagramServer(t, config.DefaultServerConfig(), script.Lines{})

	first, err := net.Dial("udp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	second, err := net.Dial("udp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	if got := exchange(t, first, "PUT shared x"); got != "PUT Success: Key=shared, Value=x" {
		t.Fatalf("unexpected response %q", got)
	}
	if got := exchange(t, second, "GET shared"); got != "GET Success: Key=shared, Value=x" {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestDatagramServerTruncatesOversizedPayload(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.DatagramSize = 16
	srv, _ := startDatagramServer(t, cfg, script.Lines{})

	conn, err := net.Dial("udp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// "PUT k " + 20 bytes is cut to "PUT k 0123456789", a valid PUT
	got := exchange(t, conn, "PUT k "+strings.Repeat("0123456789", 2))
	if got != "PUT Success: Key=k, Value=0123456789" {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestDatagramServerCloseStopsLoop(t *testing.T) {
	srv, errCh := startDatagramServer(t, config.DefaultServerConfig(), script.Lines{})

	if err := srv.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected clean stop but got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("receive loop did not stop")
	}
}

func TestDatagramServerCloseBeforeStart(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = "0"
	srv := NewDatagramServer(cfg, storage.NewKeyVal(), script.Lines{"PUT a 1"}, utils.Discard())

	srv.Close()
	startReturns(t, srv.Start)
	if srv.Addr() != nil {
		t.Fatalf("expected no socket after Close but got %v", srv.Addr())
	}
}

func TestDatagramServerCloseDuringPopulation(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = "0"
	var srv *DatagramServer
	src := closingSource{close: func() error { return srv.Close() }, lines: script.Lines{"PUT a 1"}}
	srv = NewDatagramServer(cfg, storage.NewKeyVal(), src, utils.Discard())

	startReturns(t, srv.Start)
	if srv.Addr() != nil {
		t.Fatalf("expected no socket after Close but got %v", srv.Addr())
	}
}
