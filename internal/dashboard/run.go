package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexus-erp/nexusctl/internal/engine"
	"github.com/nexus-erp/nexusctl/internal/session"
)

// Engine is what Run needs from the sync engine.
type Engine interface {
	Controller
	Stop()
}

// Options configures Run.
type Options struct {
	Guard *session.Guard

	// NewEngine builds the engine reporting to obs.
	NewEngine func(obs engine.Observer) Engine

	// Input and Output override the terminal, for tests.
	Input  io.Reader
	Output io.Writer
}

// Outcome describes how the dashboard ended.
type Outcome struct {
	// Redirected is set when the session was missing or invalidated.
	Redirected bool
	Reason     string
}

// Run shows the dashboard until the operator quits or the session ends.
func Run(ctx context.Context, opts Options) (Outcome, error) {
	bridge := NewBridge()
	opts.Guard.SetRedirector(bridge)
	defer opts.Guard.SetRedirector(nil)

	eng := opts.NewEngine(bridge)
	model := NewModel(ctx, eng, func() { opts.Guard.Invalidate("logout") }, nil)

	progOpts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	p := tea.NewProgram(model, progOpts...)
	bridge.Attach(p)

	final, err := p.Run()
	bridge.Attach(nil)
	eng.Stop()

	if err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return Outcome{}, fmt.Errorf("dashboard: %w", err)
	}

	out := Outcome{}
	if fm, ok := final.(Model); ok {
		out.Redirected, out.Reason = fm.Redirected()
	}
	return out, nil
}
