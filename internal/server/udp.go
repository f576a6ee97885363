package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vector-ops/dualkv/internal/config"
	"github.com/vector-ops/dualkv/internal/protocol"
	"github.com/vector-ops/dualkv/internal/script"
	"github.com/vector-ops/dualkv/internal/storage"
)

// DatagramServer answers one UDP datagram per request. Nothing is kept
// between packets; each reply goes back to the packet's origin.
type DatagramServer struct {
	config.ServerConfig

	id         uuid.UUID
	conn       net.PacketConn
	kv         *storage.KV
	interp     *protocol.Interpreter
	population script.Source
	logger     *slog.Logger

	mu     *sync.Mutex
	closed bool
}

func NewDatagramServer(cfg config.ServerConfig, kv *storage.KV, population script.Source, logger *slog.Logger) *DatagramServer {
	id := uuid.New()
	return &DatagramServer{
		ServerConfig: cfg,
		id:           id,
		kv:           kv,
		interp:       protocol.NewInterpreter(kv, protocol.DatagramDialect),
		population:   population,
		logger:       logger.With("server", id.String(), "transport", "udp"),
		mu:           &sync.Mutex{},
	}
}

// Start populates the store, binds the socket and serves until Close.
// A Close that lands before the socket is bound makes Start return nil.
func (s *DatagramServer) Start() error {
	if err := s.Listen(); err != nil {
		if errors.Is(err, ErrServerClosed) {
			return nil
		}
		return err
	}
	return s.Serve()
}

// Listen replays the population script and then binds the socket. It
// returns ErrServerClosed if Close was called first.
func (s *DatagramServer) Listen() error {
	s.logger.Info("udp server is starting", "port", s.Port)
	script.Populate(s.logger, s.interp, s.population)
	if s.isClosed() {
		return ErrServerClosed
	}

	conn, err := net.ListenPacket("udp", s.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.ListenAddr(), err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return ErrServerClosed
	}
	s.conn = conn
	s.mu.Unlock()

	s.logger.Info("server listening", "listenAddr", conn.LocalAddr().String())
	return nil
}

func (s *DatagramServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

func (s *DatagramServer) Store() *storage.KV {
	return s.kv
}

// Serve runs the receive loop. A socket error ends the loop and is returned,
// unless it was caused by Close.
func (s *DatagramServer) Serve() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotListening
	}

	buf := make([]byte, s.DatagramSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if s.isClosed() {
				return nil
			}
			s.logger.Error("fatal socket error", "err", err)
			return err
		}
		s.handlePacket(conn, addr, buf[:n])
	}
}

func (s *DatagramServer) handlePacket(conn net.PacketConn, addr net.Addr, payload []byte) {
	request := strings.TrimRight(string(payload), "\r\n")
	s.logger.Info("received", "remoteAddr", addr.String(), "request", request)

	resp := s.interp.Execute(request)
	if _, err := conn.WriteTo([]byte(resp.Text), addr); err != nil {
		s.logger.Error("peer send error", "remoteAddr", addr.String(), "err", err)
		return
	}
	s.logger.Info("sent", "remoteAddr", addr.String(), "response", resp.Text)
}

func (s *DatagramServer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *DatagramServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	s.logger.Info("server closed")
	return s.conn.Close()
}
