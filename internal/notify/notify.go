// Package notify delivers the single user-facing outcome message of a command.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/PolarWolf314/tokensmith/internal/ui"
)

// Kind is the outcome a notification reports.
type Kind int

const (
	Success Kind = iota
	Error
)

func (k Kind) String() string {
	if k == Error {
		return "error"
	}
	return "success"
}

// Console prints notifications as ✓/✗ lines.
type Console struct {
	Out io.Writer
}

// Notify writes the message. Write errors are dropped; notifications are
// fire-and-forget.
func (c Console) Notify(message string, kind Kind) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}

	line := ui.Done(message)
	if kind == Error {
		line = ui.Failed(message)
	}
	_, _ = fmt.Fprint(out, ui.EnsureNewline(line))
}

// Notification is one recorded call to Notify.
type Notification struct {
	Message string
	Kind    Kind
}

// Recorder keeps notifications in memory. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(message string, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Message: message, Kind: kind})
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}
