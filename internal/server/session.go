package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/vector-ops/dualkv/internal/protocol"
)

const (
	stateAccepted = "accepted"
	stateServing  = "serving"
	stateClosed   = "closed"

	eventServe = "serve"
	eventClose = "close"
)

// session is one accepted stream connection. Its lifecycle is
// accepted -> serving -> closed; closing is allowed from either open state
// and happens exactly once.
type session struct {
	id     uuid.UUID
	conn   net.Conn
	codec  codec
	fsm    *fsm.FSM
	logger *slog.Logger
}

func newSession(conn net.Conn, codecName string, logger *slog.Logger) *session {
	s := &session{
		id:    uuid.New(),
		conn:  conn,
		codec: newCodec(codecName, conn),
	}
	s.logger = logger.With("session", s.id.String(), "remoteAddr", conn.RemoteAddr().String())
	s.fsm = fsm.NewFSM(
		stateAccepted,
		fsm.Events{
			{Name: eventServe, Src: []string{stateAccepted}, Dst: stateServing},
			{Name: eventClose, Src: []string{stateAccepted, stateServing}, Dst: stateClosed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.logger.Debug("session state", "from", e.Src, "to", e.Dst)
			},
			"enter_" + stateClosed: func(_ context.Context, e *fsm.Event) {
				if err := s.conn.Close(); err != nil {
					s.logger.Debug("close error", "err", err)
				}
			},
		},
	)
	return s
}

func (s *session) State() string {
	return s.fsm.Current()
}

func (s *session) close() {
	// a second close is an invalid transition and is ignored
	_ = s.fsm.Event(context.Background(), eventClose)
}

// serve answers requests until the peer goes away, the idle timeout
// elapses or the session is closed from outside.
func (s *session) serve(interp *protocol.Interpreter, idle time.Duration) {
	if err := s.fsm.Event(context.Background(), eventServe); err != nil {
		s.logger.Debug("session not served", "err", err)
		return
	}
	defer s.close()

	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(idle)); err != nil {
			s.logger.Error("set deadline error", "err", err)
			return
		}

		tokens, raw, err := s.codec.ReadRequest()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.logger.Info("connection closed by peer")
			case errors.Is(err, os.ErrDeadlineExceeded):
				s.logger.Warn("idle timeout, closing connection", "timeout", idle)
			case errors.Is(err, net.ErrClosed):
				s.logger.Debug("session closed")
			default:
				s.logger.Error("peer read error", "err", err)
			}
			return
		}
		s.logger.Info("received", "request", raw)

		resp := interp.Dispatch(tokens)
		if err := s.codec.WriteResponse(resp); err != nil {
			s.logger.Error("peer send error", "err", err)
			return
		}
		s.logger.Info("sent", "response", resp.Text)
	}
}
