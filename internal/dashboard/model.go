// Package dashboard renders the live operations dashboard as a Bubble Tea
// program on top of the sync engine.
package dashboard

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexus-erp/nexusctl/internal/channel"
	"github.com/nexus-erp/nexusctl/internal/engine"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
	"github.com/nexus-erp/nexusctl/internal/ui"
)

// PulseDuration is how long the live indicator stays highlighted after a sale.
const PulseDuration = 500 * time.Millisecond

// clockInterval re-renders the "updated ... ago" footer.
const clockInterval = time.Second

// Controller is the slice of the engine the dashboard drives.
type Controller interface {
	Start(ctx context.Context) error
	RefreshAsync()
}

// Model is the Bubble Tea model for the live dashboard.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	logout func()
	now    func() time.Time

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	display    snapshot.Display
	points     []series.Point
	state      channel.State
	pulsing    bool
	pulseSeq   int
	notice     string
	width      int
	height     int
	showHelp   bool
	started    bool
	quitting   bool
	redirected bool
	reason     string
}

// NewModel creates a dashboard model. logout is run off the event loop when
// the operator presses the logout key; it is expected to invalidate the
// session, which redirects through the Bridge.
func NewModel(ctx context.Context, ctrl Controller, logout func(), now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		logout:  logout,
		now:     now,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: ui.NewBubblesSpinner(),
		display: snapshot.NewDisplay(),
		state:   channel.StateConnecting,
	}
}

// Redirected reports whether the dashboard closed to send the operator to
// login, and why.
func (m Model) Redirected() (bool, string) {
	return m.redirected, m.reason
}

// Init starts the engine and the animation timers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), m.spinner.Tick, clockTickCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.FocusMsg:
		if m.started {
			m.ctrl.RefreshAsync()
		}

	case startedMsg:
		m.started = msg.err == nil
		if msg.err != nil && !stderrors.Is(msg.err, engine.ErrNoSession) && !errors.IsCode(msg.err, errors.ErrUnauthorized) {
			m.notice = errors.Summarize(msg.err)
		}

	case redirectMsg:
		m.redirected = true
		m.reason = msg.reason
		m.quitting = true
		return m, tea.Quit

	case stateMsg:
		m.state = channel.State(msg)

	case pulseMsg:
		m.pulseSeq++
		m.pulsing = true
		seq := m.pulseSeq
		return m, tea.Tick(PulseDuration, func(time.Time) tea.Msg {
			return pulseEndMsg{seq: seq}
		})

	case pulseEndMsg:
		// A newer pulse extends the highlight.
		if msg.seq == m.pulseSeq {
			m.pulsing = false
		}

	case snapshotMsg:
		m.display.Apply(snapshot.Snapshot(msg))
		m.notice = ""

	case refreshFailedMsg:
		m.notice = describeFailure(msg.err)

	case seriesMsg:
		m.points = []series.Point(msg)

	case clockTickMsg:
		return m, clockTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Refresh):
		if m.started {
			m.ctrl.RefreshAsync()
		}

	case key.Matches(msg, m.keys.Logout):
		if m.logout != nil {
			logout := m.logout
			return m, func() tea.Msg {
				logout()
				return nil
			}
		}
	}
	return m, nil
}

func (m Model) startCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return startedMsg{err: ctrl.Start(ctx)}
	}
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

// describeFailure turns a refresh error into the one-line notice.
func describeFailure(err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrRouteMissing:
		return "Dashboard route not found (404): mount the admin router before the market router"
	case errors.ErrUnauthorized:
		return "Session expired"
	default:
		return errors.Summarize(err)
	}
}
