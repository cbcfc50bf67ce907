package dashboard

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/nexus-erp/nexusctl/internal/channel"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func TestBridge_Forwards(t *testing.T) {
	b := NewBridge()
	b.Pulse()

	s := &recordingSender{}
	b.Attach(s)
	boom := errors.New("boom")
	b.StateChanged(channel.StateOpen)
	b.Pulse()
	b.SnapshotUpdated(snapshot.Snapshot{SalesToday: 3})
	b.RefreshFailed(boom)
	b.SeriesChanged([]series.Point{{Value: 1}})
	b.RedirectToLogin("logout")

	b.Attach(nil)
	b.Pulse()

	assert.Equal(t, []tea.Msg{
		stateMsg(channel.StateOpen),
		pulseMsg{},
		snapshotMsg(snapshot.Snapshot{SalesToday: 3}),
		refreshFailedMsg{err: boom},
		seriesMsg([]series.Point{{Value: 1}}),
		redirectMsg{reason: "logout"},
	}, s.msgs)
}
