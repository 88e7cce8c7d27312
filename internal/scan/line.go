package scan

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// LineSource reads newline-terminated codes, the way USB keyboard-wedge
// scanners type them, and feeds them through a Gate.
type LineSource struct {
	*Gate
	r io.Reader
}

func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{
		Gate: NewGate(),
		r:    r,
	}
}

// Run pumps lines until the reader ends or ctx is cancelled, then closes the
// gate. Blank lines are ignored. Run blocks; start it in its own goroutine.
func (s *LineSource) Run(ctx context.Context) error {
	defer s.Close()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			s.Offer(line)
		}
	}
}
