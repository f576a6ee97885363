package script

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/vector-ops/dualkv/internal/protocol"
)

var ErrNotFound = errors.New("script file not found")

// Source produces the lines of a script, one command per line.
type Source interface {
	Lines() ([]string, error)
}

// File is a script on disk. It is read again on every call to Lines.
type File string

func (f File) Lines() ([]string, error) {
	fh, err := os.Open(string(f))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, string(f))
		}
		return nil, fmt.Errorf("open script %s: %w", string(f), err)
	}
	defer fh.Close()

	var lines []string
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("read script %s: %w", string(f), err)
	}
	return lines, nil
}

func (f File) String() string {
	return string(f)
}

// Lines is an in-memory script.
type Lines []string

func (l Lines) Lines() ([]string, error) {
	return l, nil
}

// IsBlank reports whether a script line carries no command.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Populate replays src through in, skipping blank lines, and returns how many
// commands succeeded. A missing or unreadable script is logged and skipped.
func Populate(logger *slog.Logger, in *protocol.Interpreter, src Source) int {
	lines, err := src.Lines()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("population script not found, starting empty", "err", err)
		} else {
			logger.Error("population script read error", "err", err)
		}
		if len(lines) == 0 {
			return 0
		}
	}

	applied := 0
	for _, line := range lines {
		if IsBlank(line) {
			continue
		}
		resp := in.Execute(line)
		if !resp.OK() {
			logger.Warn("prepopulation command failed", "command", line, "response", resp.Text)
			continue
		}
		applied++
		logger.Info("prepopulated", "command", resp.Cmd.String(), "response", resp.Text)
	}

	logger.Info("data population completed", "applied", applied)
	return applied
}
