package shell

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/vector-ops/dualkv/internal/runner"
	"github.com/vector-ops/dualkv/internal/script"
)

const (
	cmdRun   = "run"
	cmdClose = "close"
)

// Shell reads operator commands: "run" replays the operations script,
// "close" releases the transport and returns.
type Shell struct {
	in     *bufio.Scanner
	runner *runner.Runner
	src    script.Source
	closer io.Closer
	logger *slog.Logger
}

func New(in io.Reader, r *runner.Runner, src script.Source, closer io.Closer, logger *slog.Logger) *Shell {
	return &Shell{
		in:     bufio.NewScanner(in),
		runner: r,
		src:    src,
		closer: closer,
		logger: logger,
	}
}

// Run loops until "close" or end of input. It returns the number of script
// runs performed.
func (s *Shell) Run() (int, error) {
	runs := 0
	for {
		s.logger.Info("enter 'run' to execute the operations script or 'close' to exit")
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				s.logger.Error("input read error", "err", err)
			}
			return runs, s.close()
		}

		switch strings.ToLower(strings.TrimSpace(s.in.Text())) {
		case cmdRun:
			runs++
			if _, err := s.runner.Run(s.src); err != nil && !errors.Is(err, script.ErrNotFound) {
				s.logger.Error("run failed", "err", err)
			}
		case cmdClose:
			return runs, s.close()
		default:
			s.logger.Warn("invalid input, please enter 'run' or 'close'")
		}
	}
}

func (s *Shell) close() error {
	s.logger.Info("exiting client")
	return s.closer.Close()
}
