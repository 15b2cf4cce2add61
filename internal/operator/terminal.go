package operator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
)

// Terminal asks for replies with an interactive form on the controlling terminal.
//
// The form owns the terminal while it is shown, so ctrl+c reaches huh instead
// of the process as SIGINT. Terminal treats that abort as a shutdown request:
// it calls onAbort (the process stop func) and returns ErrAborted.
type Terminal struct {
	mu      sync.Mutex
	onAbort func()
}

// ErrAborted is returned when the operator aborts a prompt with ctrl+c.
var ErrAborted = errors.New("operator aborted")

// NewTerminal returns a terminal replier. onAbort may be nil.
func NewTerminal(onAbort func()) *Terminal { return &Terminal{onAbort: onAbort} }

// Reply shows p and blocks until the operator submits or aborts the form.
func (t *Terminal) Reply(ctx context.Context, p Prompt) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var reply string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("New message from %s (%d)", p.Name, p.ChatID)).
				Description(p.Text),
			huh.NewInput().
				Title("Type your reply (and press Enter)").
				Placeholder("leave empty to skip").
				Value(&reply),
		),
	)

	return t.result(reply, form.RunWithContext(ctx))
}

// result maps the form outcome to a reply.
func (t *Terminal) result(reply string, err error) (string, error) {
	if err == nil {
		return strings.TrimSpace(reply), nil
	}
	if errors.Is(err, huh.ErrUserAborted) {
		if t.onAbort != nil {
			t.onAbort()
		}
		return "", ErrAborted
	}
	return "", fmt.Errorf("operator prompt: %w", err)
}
