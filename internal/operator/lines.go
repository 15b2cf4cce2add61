package operator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Lines prints each prompt to out and reads the reply as one line from in.
// It works without a terminal (pipes, systemd with a FIFO, tests).
type Lines struct {
	out io.Writer

	mu    sync.Mutex // serializes prompts
	lines chan string
	errc  chan error
}

// NewLines starts reading lines from in in the background.
func NewLines(in io.Reader, out io.Writer) *Lines {
	l := &Lines{
		out:   out,
		lines: make(chan string),
		errc:  make(chan error, 1),
	}
	go l.readLoop(in)
	return l
}

func (l *Lines) readLoop(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		l.lines <- scanner.Text()
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	l.errc <- err
	close(l.lines)
}

// Reply shows p and waits for a line. After the input is exhausted every call
// returns io.EOF.
func (l *Lines) Reply(ctx context.Context, p Prompt) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "\n--- New message from %s (%d) ---\n%s\n", p.Name, p.ChatID, p.Text)
	fmt.Fprint(l.out, "Type your reply (and press Enter): ")

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-l.lines:
		if !ok {
			return "", l.closedErr()
		}
		return strings.TrimSpace(line), nil
	}
}

// closedErr returns the terminal read error, keeping it for later calls.
func (l *Lines) closedErr() error {
	err := <-l.errc
	l.errc <- err
	return fmt.Errorf("operator input closed: %w", err)
}
