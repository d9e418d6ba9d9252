package run

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tmadas/beamline/internal/kernel"
)

// session is the interactive command loop entered when no event bound is
// configured. Lines are forwarded to the kernel command interface; a failed
// command is reported on the user stream and the loop continues. The stop
// predicate is checked at every command boundary, so a cooperative stop
// raised during a blocking read takes effect before the next command runs.
type session struct {
	kern *kernel.Kernel
	in   io.Reader
	out  io.Writer
	log  *slog.Logger
	stop func() bool
}

func (s *session) run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	for {
		if s.stop() {
			s.log.Info("session stopping: cooperative stop requested")
			return nil
		}

		fmt.Fprint(s.out, "beamline> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read command: %w", err)
			}
			s.log.Debug("session input closed")
			return nil
		}
		if s.stop() {
			s.log.Info("session stopping: cooperative stop requested")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "exit" || line == "quit" {
			s.log.Debug("session ended by command", "command", line)
			return nil
		}

		if err := s.kern.ApplyCommand(ctx, line); err != nil {
			fmt.Fprintf(s.out, "command failed: %v\n", err)
		}
	}
}
