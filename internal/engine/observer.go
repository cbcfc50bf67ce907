package engine

import (
	"github.com/nexus-erp/nexusctl/internal/channel"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
)

// MultiObserver fans every callback out to each observer in order. Nil
// entries are skipped.
func MultiObserver(observers ...Observer) Observer {
	m := multiObserver{}
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

type multiObserver []Observer

func (m multiObserver) StateChanged(s channel.State) {
	for _, o := range m {
		o.StateChanged(s)
	}
}

func (m multiObserver) Pulse() {
	for _, o := range m {
		o.Pulse()
	}
}

func (m multiObserver) SnapshotUpdated(s snapshot.Snapshot) {
	for _, o := range m {
		o.SnapshotUpdated(s)
	}
}

func (m multiObserver) RefreshFailed(err error) {
	for _, o := range m {
		o.RefreshFailed(err)
	}
}

func (m multiObserver) SeriesChanged(points []series.Point) {
	for _, o := range m {
		o.SeriesChanged(points)
	}
}

func (m multiObserver) MessageRejected(err error) {
	for _, o := range m {
		if r, ok := o.(RejectionObserver); ok {
			r.MessageRejected(err)
		}
	}
}
