package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nexus-erp/nexusctl/internal/channel"
	channeltest "github.com/nexus-erp/nexusctl/internal/channel/testing"
	clocktest "github.com/nexus-erp/nexusctl/internal/clock/testing"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/logger"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/session"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var epoch = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

// scriptedFetcher returns queued results; an empty queue returns def.
type scriptedFetcher struct {
	mu    sync.Mutex
	calls int
	def   snapshot.Snapshot
	err   error
	gates map[int]chan struct{}
	snaps map[int]snapshot.Snapshot

	onCall func(ctx context.Context)
}

func (f *scriptedFetcher) Refresh(ctx context.Context) (snapshot.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	gate := f.gates[n]
	snap, ok := f.snaps[n]
	if !ok {
		snap = f.def
	}
	err := f.err
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall(ctx)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return snapshot.Snapshot{}, ctx.Err()
		}
	}
	return snap, err
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recorder struct {
	mu       sync.Mutex
	events   []string
	snaps    []snapshot.Snapshot
	failures []error
	series   [][]series.Point
	states   []channel.State
	rejected int
}

func (r *recorder) add(ev string) {
	r.events = append(r.events, ev)
}

func (r *recorder) StateChanged(s channel.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) Pulse() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add("pulse")
}

func (r *recorder) SnapshotUpdated(s snapshot.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add("snapshot")
	r.snaps = append(r.snaps, s)
}

func (r *recorder) RefreshFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add("failed")
	r.failures = append(r.failures, err)
}

func (r *recorder) SeriesChanged(points []series.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add("series")
	r.series = append(r.series, points)
}

func (r *recorder) MessageRejected(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Snaps() []snapshot.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]snapshot.Snapshot(nil), r.snaps...)
}

func (r *recorder) Count(ev string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == ev {
			n++
		}
	}
	return n
}

type fixture struct {
	engine   *Engine
	guard    *session.Guard
	fetcher  *scriptedFetcher
	dialer   *channeltest.FakeDialer
	clock    *clocktest.FakeClock
	buffer   *series.Buffer
	observer *recorder
	redirect []string
}

func newFixture(t *testing.T, token string, mutate func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		fetcher:  &scriptedFetcher{def: snapshot.Snapshot{SalesToday: 1200, LowStockCount: 3, AverageTicket: 40}},
		dialer:   channeltest.NewFakeDialer(),
		clock:    clocktest.NewFakeClock(epoch),
		observer: &recorder{},
	}
	f.guard = session.NewGuard(session.NewMemoryStore(token), session.RedirectFunc(func(reason string) {
		f.redirect = append(f.redirect, reason)
	}), logger.Noop())
	f.buffer = series.NewBuffer(f.clock)

	opts := Options{
		Session:    f.guard,
		Fetcher:    f.fetcher,
		Buffer:     f.buffer,
		Observer:   f.observer,
		Logger:     logger.Noop(),
		SeedPoints: DefaultSeedPoints,
		Rand:       func() float64 { return 0.5 },
		Channel: channel.Options{
			URL:          "ws://localhost:8000/ws",
			Dialer:       f.dialer,
			Clock:        f.clock,
			LegacyMarker: channel.DefaultLegacyMarker,
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	f.engine = New(opts)
	t.Cleanup(f.engine.Stop)
	return f
}

func (f *fixture) waitOpen(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return f.engine.ChannelState() == channel.StateOpen }, waitFor, tick)
}

func TestStart_NoSessionRedirects(t *testing.T) {
	f := newFixture(t, "", nil)

	err := f.engine.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Len(t, f.redirect, 1)
	assert.Equal(t, 0, f.fetcher.Calls(), "no request without a credential")
	assert.Equal(t, 0, f.dialer.Dials())
	assert.Equal(t, 0, f.buffer.Len())
}

func TestStart_RefreshesSeedsAndConnects(t *testing.T) {
	f := newFixture(t, "tok", nil)

	require.NoError(t, f.engine.Start(context.Background()))
	f.waitOpen(t)

	assert.Equal(t, 1, f.fetcher.Calls())
	assert.Equal(t, []string{"snapshot", "series"}, f.observer.Events())
	assert.Equal(t, DefaultSeedPoints, f.buffer.Len())
	for _, v := range f.buffer.Values() {
		assert.GreaterOrEqual(t, v, SeedLow)
		assert.Less(t, v, SeedHigh)
	}
	assert.Equal(t, 1, f.dialer.Dials())
}

func TestStart_UnauthorizedStopsBeforeChannel(t *testing.T) {
	f := newFixture(t, "tok", nil)
	f.fetcher.err = errors.New(errors.ErrUnauthorized, "expired", "")

	err := f.engine.Start(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))
	assert.Equal(t, 0, f.dialer.Dials())
	assert.Equal(t, 1, f.observer.Count("failed"))
}

func TestStart_UnauthorizedReleasesContext(t *testing.T) {
	f := newFixture(t, "tok", nil)
	var runCtx context.Context
	f.fetcher.err = errors.New(errors.ErrUnauthorized, "expired", "")
	f.fetcher.onCall = func(ctx context.Context) { runCtx = ctx }

	err := f.engine.Start(context.Background())
	require.Error(t, err)
	require.NotNil(t, runCtx)
	assert.ErrorIs(t, runCtx.Err(), context.Canceled)

	f.engine.RefreshAsync()
	assert.Equal(t, 1, f.fetcher.Calls(), "no background refresh after a failed start")

	f.fetcher.err = nil
	require.NoError(t, f.engine.Start(context.Background()))
	f.waitOpen(t)
	assert.Equal(t, 1, f.dialer.Dials())
}

func TestStart_ServerFailureKeepsGoing(t *testing.T) {
	f := newFixture(t, "tok", nil)
	f.fetcher.err = errors.New(errors.ErrServer, "HTTP 500", "")

	require.NoError(t, f.engine.Start(context.Background()))
	f.waitOpen(t)
	assert.Equal(t, 1, f.observer.Count("failed"))
	assert.Equal(t, 0, f.observer.Count("snapshot"))
}

func TestSale_PulseThenRefreshAndAppend(t *testing.T) {
	f := newFixture(t, "tok", func(o *Options) { o.SeedPoints = 0 })
	require.NoError(t, f.engine.Start(context.Background()))
	f.waitOpen(t)

	f.fetcher.mu.Lock()
	f.fetcher.gates = map[int]chan struct{}{2: make(chan struct{})}
	gate := f.fetcher.gates[2]
	f.fetcher.mu.Unlock()

	f.dialer.Conn(0).Push([]byte("NUEVA_VENTA"))

	require.Eventually(t, func() bool { return f.buffer.Len() == 1 }, waitFor, tick)
	last, _ := f.buffer.Last()
	assert.Equal(t, SaleLow+0.5*(SaleHigh-SaleLow), last.Value)
	assert.Equal(t, "10:00:00", last.Label)

	// The chart already moved while the refresh is still pending.
	events := f.observer.Events()
	assert.Equal(t, []string{"snapshot", "series", "pulse", "series"}, events)

	close(gate)
	require.Eventually(t, func() bool { return f.observer.Count("snapshot") == 2 }, waitFor, tick)
	assert.Equal(t, 2, f.fetcher.Calls())
}

func TestSale_UsesEventTotal(t *testing.T) {
	f := newFixture(t, "tok", func(o *Options) { o.SeedPoints = 0 })
	require.NoError(t, f.engine.Start(context.Background()))
	f.waitOpen(t)

	f.dialer.Conn(0).Push([]byte(`{"type":"sale_event","total":321.5}`))

	require.Eventually(t, func() bool { return f.buffer.Len() == 1 }, waitFor, tick)
	last, _ := f.buffer.Last()
	assert.Equal(t, 321.5, last.Value)
}

func TestSale_NonMarkerPayloadIgnored(t *testing.T) {
	f := newFixture(t, "tok", func(o *Options) { o.SeedPoints = 0 })
	require.NoError(t, f.engine.Start(context.Background()))
	f.waitOpen(t)

	conn := f.dialer.Conn(0)
	conn.Push([]byte("PING"))
	conn.Push([]byte(`{"type":"sale_event"}`))

	require.Eventually(t, func() bool { return f.buffer.Len() == 1 }, waitFor, tick)
	assert.Equal(t, 1, f.observer.Count("pulse"))
	f.observer.mu.Lock()
	assert.Equal(t, 1, f.observer.rejected)
	f.observer.mu.Unlock()
}

func TestSale_BufferStaysBounded(t *testing.T) {
	f := newFixture(t, "tok", nil)
	require.NoError(t, f.engine.Start(context.Background()))
	f.waitOpen(t)

	conn := f.dialer.Conn(0)
	for i := 0; i < 10; i++ {
		conn.Push([]byte(`{"type":"sale_event","total":200}`))
	}

	require.Eventually(t, func() bool { return f.observer.Count("pulse") == 10 }, waitFor, tick)
	assert.Equal(t, series.Capacity, f.buffer.Len())
	values := f.buffer.Values()
	assert.Equal(t, 200.0, values[len(values)-1])
}

func TestRefresh_StaleResultDropped(t *testing.T) {
	log := logger.NewBufferLogger()
	f := newFixture(t, "tok", func(o *Options) {
		o.SeedPoints = 0
		o.Logger = log
	})
	require.NoError(t, f.engine.Start(context.Background()))

	slow := make(chan struct{})
	f.fetcher.mu.Lock()
	f.fetcher.gates = map[int]chan struct{}{2: slow}
	f.fetcher.snaps = map[int]snapshot.Snapshot{
		2: {SalesToday: 1},
		3: {SalesToday: 2},
	}
	f.fetcher.mu.Unlock()

	f.engine.RefreshAsync()
	require.Eventually(t, func() bool { return f.fetcher.Calls() == 2 }, waitFor, tick)

	_, err := f.engine.Refresh(context.Background())
	require.NoError(t, err)
	close(slow)

	require.Eventually(t, func() bool { return log.Contains("debug", "stale snapshot") }, waitFor, tick)

	snaps := f.observer.Snaps()
	require.Len(t, snaps, 2)
	assert.Equal(t, 2.0, snaps[1].SalesToday)
}

func TestStop_Idempotent(t *testing.T) {
	f := newFixture(t, "tok", nil)
	require.NoError(t, f.engine.Start(context.Background()))
	f.waitOpen(t)

	f.engine.Stop()
	f.engine.Stop()

	assert.True(t, f.dialer.Conn(0).Closed())
	assert.ErrorIs(t, f.engine.Start(context.Background()), ErrStopped)

	// Refreshes requested after stop never run.
	calls := f.fetcher.Calls()
	f.engine.RefreshAsync()
	assert.Equal(t, calls, f.fetcher.Calls())
}

func TestStart_RefreshSchedule(t *testing.T) {
	f := newFixture(t, "tok", func(o *Options) { o.RefreshSchedule = "@every 1s" })
	require.NoError(t, f.engine.Start(context.Background()))

	require.Eventually(t, func() bool { return f.fetcher.Calls() >= 2 }, 3*time.Second, 20*time.Millisecond)
}
