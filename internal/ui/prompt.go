package ui

import (
	"context"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ryanm101/romscraper/internal/logging"
)

// Prompt asks the user to choose on the terminal. Calls are serialized so
// concurrent scrapes never interleave prompts.
type Prompt struct {
	mu  sync.Mutex
	in  io.Reader
	out io.Writer
}

// NewPrompt creates a prompt on in/out; nil means stdin/stdout.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompt{in: in, out: out}
}

// SelectOne implements scraper.Selector. A single option is returned without
// prompting; errors and cancellation report ok=false.
func (p *Prompt) SelectOne(ctx context.Context, title string, options []string) (int, bool) {
	if len(options) == 0 {
		return 0, false
	}
	if len(options) == 1 {
		return 0, true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prog := tea.NewProgram(newPicker(title, options),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if err != nil {
		logging.Warn("selection prompt failed", "title", title, "error", err)
		return 0, false
	}
	return result(final)
}

func result(final tea.Model) (int, bool) {
	m, ok := final.(picker)
	if !ok || m.cancelled || m.chosen < 0 {
		return 0, false
	}
	return m.chosen, true
}
