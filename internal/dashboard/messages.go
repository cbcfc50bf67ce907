package dashboard

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexus-erp/nexusctl/internal/channel"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
)

// startedMsg reports the outcome of starting the engine.
type startedMsg struct {
	err error
}

// stateMsg carries a push channel state change.
type stateMsg channel.State

// pulseMsg starts the sale highlight.
type pulseMsg struct{}

// pulseEndMsg ends the highlight started by pulse number seq.
type pulseEndMsg struct {
	seq int
}

// snapshotMsg carries a fresh snapshot.
type snapshotMsg snapshot.Snapshot

// refreshFailedMsg carries a failed refresh.
type refreshFailedMsg struct {
	err error
}

// seriesMsg carries the current chart points.
type seriesMsg []series.Point

// redirectMsg asks the dashboard to hand over to the login view.
type redirectMsg struct {
	reason string
}

// clockTickMsg re-renders relative timestamps.
type clockTickMsg time.Time

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards engine callbacks and login redirects into the Bubble Tea
// event loop. Messages sent while no program is attached are dropped.
type Bridge struct {
	mu     sync.RWMutex
	sender Sender
}

// NewBridge creates a detached bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach routes subsequent messages to s. Pass nil to detach.
func (b *Bridge) Attach(s Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = s
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.RLock()
	s := b.sender
	b.mu.RUnlock()
	if s != nil {
		s.Send(msg)
	}
}

func (b *Bridge) StateChanged(s channel.State) {
	b.send(stateMsg(s))
}

func (b *Bridge) Pulse() {
	b.send(pulseMsg{})
}

func (b *Bridge) SnapshotUpdated(s snapshot.Snapshot) {
	b.send(snapshotMsg(s))
}

func (b *Bridge) RefreshFailed(err error) {
	b.send(refreshFailedMsg{err: err})
}

func (b *Bridge) SeriesChanged(points []series.Point) {
	b.send(seriesMsg(points))
}

// RedirectToLogin implements session.Redirector.
func (b *Bridge) RedirectToLogin(reason string) {
	b.send(redirectMsg{reason: reason})
}
