package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vector-ops/dualkv/internal/script"
	"github.com/vector-ops/dualkv/internal/transport"
)

const CompletionMessage = "All Operations Performed"

// Report summarises one pass over a script.
type Report struct {
	Sent       int
	Received   int
	TimedOut   int
	NoResponse int
	Failed     int
}

// Runner replays a script over a transport, one request at a time, waiting
// up to timeout for each response.
type Runner struct {
	transport transport.Transport
	timeout   time.Duration
	logger    *slog.Logger
}

func New(t transport.Transport, timeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		transport: t,
		timeout:   timeout,
		logger:    logger,
	}
}

// Run sends every non-blank line of src. A missing response only affects its
// own line; a failed send stops the run and is returned. A missing script is
// logged and returned without sending anything.
func (r *Runner) Run(src script.Source) (Report, error) {
	var report Report
	logger := r.logger.With("run", uuid.New().String())

	lines, err := src.Lines()
	if err != nil {
		if errors.Is(err, script.ErrNotFound) {
			logger.Error("script file not found", "err", err)
		} else {
			logger.Error("script read error", "err", err)
		}
		return report, err
	}

	for _, line := range lines {
		if script.IsBlank(line) {
			continue
		}

		if err := r.transport.Send(line); err != nil {
			report.Failed++
			logger.Error("send error, stopping run", "command", line, "err", err)
			return report, fmt.Errorf("run stopped at %q: %w", line, err)
		}
		report.Sent++
		logger.Info("command sent", "command", line)

		res := r.transport.Receive(r.timeout)
		switch res.Status {
		case transport.Received:
			report.Received++
			logger.Info("received", "command", line, "response", res.Response)
		case transport.TimedOut:
			report.TimedOut++
			logger.Warn("no response from server within timeout", "command", line, "timeout", r.timeout)
		case transport.Closed:
			report.NoResponse++
			logger.Warn("no response from server", "command", line)
		default:
			report.Failed++
			logger.Error("receive error", "command", line, "err", res.Err)
		}
	}

	logger.Info(CompletionMessage, "sent", report.Sent, "received", report.Received, "timedOut", report.TimedOut)
	return report, nil
}
