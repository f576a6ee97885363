package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/vector-ops/dualkv/internal/config"
	"github.com/vector-ops/dualkv/internal/protocol"
	"github.com/vector-ops/dualkv/internal/script"
	"github.com/vector-ops/dualkv/internal/storage"
)

var (
	ErrNotListening = errors.New("server is not listening")
	ErrServerClosed = errors.New("server closed")
)

// StreamServer serves the line protocol over TCP, one goroutine per
// connection, all sharing one store.
type StreamServer struct {
	config.ServerConfig

	id         uuid.UUID
	ln         net.Listener
	kv         *storage.KV
	interp     *protocol.Interpreter
	population script.Source
	logger     *slog.Logger
	quitCh     chan struct{}

	mu       *sync.Mutex
	wg       *sync.WaitGroup
	sessions map[*session]bool
	closed   bool
}

func NewStreamServer(cfg config.ServerConfig, kv *storage.KV, population script.Source, logger *slog.Logger) *StreamServer {
	id := uuid.New()
	return &StreamServer{
		ServerConfig: cfg,
		id:           id,
		kv:           kv,
		interp:       protocol.NewInterpreter(kv, protocol.StreamDialect),
		population:   population,
		logger:       logger.With("server", id.String(), "transport", "tcp"),
		quitCh:       make(chan struct{}),
		mu:           &sync.Mutex{},
		wg:           &sync.WaitGroup{},
		sessions:     make(map[*session]bool),
	}
}

// Start populates the store, binds the listener and serves until Close.
// A Close that lands before the listener is bound makes Start return nil.
func (s *StreamServer) Start() error {
	if err := s.Listen(); err != nil {
		if errors.Is(err, ErrServerClosed) {
			return nil
		}
		return err
	}
	return s.Serve()
}

// Listen replays the population script and then binds. No connection is
// accepted before population has finished. It returns ErrServerClosed if
// Close was called first.
func (s *StreamServer) Listen() error {
	s.logger.Info("tcp server is starting", "port", s.Port)
	script.Populate(s.logger, s.interp, s.population)
	if s.isClosed() {
		return ErrServerClosed
	}

	var (
		ln  net.Listener
		err error
	)
	if s.Tunnel.Enabled {
		ln, err = listenTunnel(context.Background(), s.Tunnel.Authtoken)
	} else {
		ln, err = net.Listen("tcp", s.ListenAddr())
	}
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.ListenAddr(), err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("server listening", "listenAddr", ln.Addr().String(), "codec", s.Codec)
	return nil
}

func (s *StreamServer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *StreamServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *StreamServer) Store() *storage.KV {
	return s.kv
}

// Serve runs the accept loop. It returns nil once Close has been called.
func (s *StreamServer) Serve() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}
	return s.acceptLoop(ln)
}

func (s *StreamServer) acceptLoop(ln net.Listener) error {
	b := &backoff.Backoff{
		Min:    5 * time.Millisecond,
		Max:    time.Second,
		Factor: 2,
	}

	for {
		s.logger.Debug("waiting for client connection")
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.quitCh:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			wait := b.Duration()
			s.logger.Error("accept error", "err", err, "retryIn", wait)
			time.Sleep(wait)
			continue
		}
		b.Reset()

		sess := s.track(conn)
		if sess == nil {
			conn.Close()
			return nil
		}

		go s.handleConn(sess)
	}
}

func (s *StreamServer) track(conn net.Conn) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	sess := newSession(conn, s.Codec, s.logger)
	s.sessions[sess] = true
	s.wg.Add(1)
	return sess
}

func (s *StreamServer) handleConn(sess *session) {
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		s.wg.Done()
	}()

	sess.logger.Info("connection established")
	sess.serve(s.interp, s.IdleTimeout)
	sess.logger.Info("peer disconnected")
}

// ActiveSessions returns the number of connections currently being served.
func (s *StreamServer) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops accepting, closes every open session and waits for them.
func (s *StreamServer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.quitCh)
	ln := s.ln
	open := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, sess := range open {
		sess.close()
	}
	s.wg.Wait()

	s.logger.Info("server closed")
	return err
}
