// Package engine keeps dashboard state in sync with the backend.
//
// It composes the session guard, the snapshot fetcher, the sales series and
// the push channel. A sale announced on the channel triggers a pulse, an
// asynchronous snapshot refresh and a chart append. The refresh and the
// append are independent: the chart may show a sale before the KPIs that
// include it arrive.
package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/nexus-erp/nexusctl/internal/channel"
	"github.com/nexus-erp/nexusctl/internal/logger"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/session"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
)

// Synthetic chart value ranges, [low, high).
const (
	DefaultSeedPoints = 15
	SeedLow           = 0.0
	SeedHigh          = 50.0
	SaleLow           = 150.0
	SaleHigh          = 250.0
)

// ErrNoSession is returned by Start when no credential is present. The
// redirect to login has already been issued when it is returned.
var ErrNoSession = errors.New("no active session")

// ErrStopped is returned by Start on an engine that was already stopped.
var ErrStopped = errors.New("engine stopped")

// Observer receives engine updates. Callbacks may arrive from several
// goroutines and must not block.
type Observer interface {
	StateChanged(channel.State)
	// Pulse fires on every sale, before the refresh it triggers resolves.
	Pulse()
	SnapshotUpdated(snapshot.Snapshot)
	RefreshFailed(err error)
	SeriesChanged(points []series.Point)
}

// RejectionObserver is optionally implemented by an Observer that wants to
// know about channel payloads that could not be decoded.
type RejectionObserver interface {
	MessageRejected(err error)
}

// Session is the slice of the session guard the engine needs.
type Session interface {
	RequireSession(view session.View) bool
}

// Refresher fetches snapshots. Implemented by *snapshot.Fetcher.
type Refresher interface {
	Refresh(ctx context.Context) (snapshot.Snapshot, error)
}

// Options configures an Engine.
type Options struct {
	Session  Session
	Fetcher  Refresher
	Buffer   *series.Buffer
	Observer Observer
	Logger   logger.Logger

	// Channel configures the push channel. Its Listener is replaced by the engine.
	Channel channel.Options

	// SeedPoints is the number of synthetic points the chart starts with.
	// Negative means DefaultSeedPoints.
	SeedPoints int

	// RefreshSchedule is an optional standard cron expression for periodic
	// refreshes. Empty disables it.
	RefreshSchedule string

	// Rand returns a uniform value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// Engine orchestrates one live dashboard session.
type Engine struct {
	session  Session
	fetcher  Refresher
	buffer   *series.Buffer
	observer Observer
	log      logger.Logger
	channel  *channel.Manager
	seed     int
	schedule string

	randMu sync.Mutex
	rand   func() float64

	mu        sync.Mutex
	started   bool
	stopped   bool
	ctx       context.Context
	cancel    context.CancelFunc
	cron      *cron.Cron
	seq       uint64
	delivered uint64
	wg        sync.WaitGroup
}

// New creates an engine. Nothing runs until Start.
func New(opts Options) *Engine {
	e := &Engine{
		session:  opts.Session,
		fetcher:  opts.Fetcher,
		buffer:   opts.Buffer,
		observer: opts.Observer,
		log:      logger.OrDefault(opts.Logger),
		seed:     opts.SeedPoints,
		schedule: opts.RefreshSchedule,
		rand:     opts.Rand,
	}
	if e.buffer == nil {
		e.buffer = series.NewBuffer(opts.Channel.Clock)
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.seed < 0 {
		e.seed = DefaultSeedPoints
	}
	if e.rand == nil {
		e.rand = rand.Float64
	}

	chOpts := opts.Channel
	chOpts.Listener = e
	if chOpts.Logger == nil {
		chOpts.Logger = e.log
	}
	e.channel = channel.NewManager(chOpts)
	return e
}

// Start requires a session, loads the first snapshot, seeds the chart and
// opens the push channel.
//
// Without a credential it returns ErrNoSession. When the first refresh is
// rejected as unauthorized the session is already invalidated and Start
// returns that error without opening the channel, releasing ctx. Any other refresh failure
// is reported to the observer and the engine keeps going.
func (e *Engine) Start(ctx context.Context) error {
	if !e.session.RequireSession(session.ViewDashboard) {
		return ErrNoSession
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(ctx)
	runCtx := e.ctx
	e.mu.Unlock()

	if _, err := e.Refresh(runCtx); err != nil && isUnauthorized(err) {
		e.mu.Lock()
		e.cancel()
		e.started = false
		e.ctx, e.cancel = nil, nil
		e.mu.Unlock()
		return err
	}

	e.buffer.Seed(e.seed, func() float64 { return e.uniform(SeedLow, SeedHigh) })
	e.observer.SeriesChanged(e.buffer.Snapshot())

	if err := e.channel.Start(runCtx); err != nil {
		return err
	}

	if e.schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(e.schedule, e.refreshAsync); err != nil {
			e.log.Warn("invalid refresh schedule %q: %v", e.schedule, err)
		} else {
			c.Start()
			e.mu.Lock()
			e.cron = c
			e.mu.Unlock()
			e.log.Info("periodic refresh scheduled: %s", e.schedule)
		}
	}
	return nil
}

// Stop closes the channel, stops the refresh schedule and waits for
// in-flight refreshes. It is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	c := e.cron
	cancel := e.cancel
	e.mu.Unlock()

	e.channel.Stop()
	if c != nil {
		<-c.Stop().Done()
	}
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
}

// Refresh fetches a snapshot now and reports the outcome to the observer.
//
// Results are delivered in the order the refreshes were issued: a snapshot
// from an older refresh that resolves after a newer one is dropped.
func (e *Engine) Refresh(ctx context.Context) (snapshot.Snapshot, error) {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	e.mu.Unlock()

	snap, err := e.fetcher.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return snap, err
		}
		e.observer.RefreshFailed(err)
		return snap, err
	}

	e.mu.Lock()
	stale := seq < e.delivered
	if !stale {
		e.delivered = seq
	}
	e.mu.Unlock()

	if stale {
		e.log.Debug("dropping stale snapshot from refresh #%d", seq)
		return snap, nil
	}
	e.observer.SnapshotUpdated(snap)
	return snap, nil
}

// RefreshAsync starts a refresh in the background. It is a no-op before Start
// or after Stop.
func (e *Engine) RefreshAsync() {
	e.refreshAsync()
}

func (e *Engine) refreshAsync() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	ctx := e.ctx
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		_, _ = e.Refresh(ctx)
	}()
}

// Series returns the current chart points, oldest first.
func (e *Engine) Series() []series.Point {
	return e.buffer.Snapshot()
}

// ChannelState returns the push channel state.
func (e *Engine) ChannelState() channel.State {
	return e.channel.State()
}

// StateChanged implements channel.Listener.
func (e *Engine) StateChanged(s channel.State) {
	e.observer.StateChanged(s)
}

// SaleReceived implements channel.Listener.
func (e *Engine) SaleReceived(ev channel.SaleEvent) {
	e.observer.Pulse()
	e.refreshAsync()

	value := ev.Amount
	if !ev.HasAmount {
		value = e.uniform(SaleLow, SaleHigh)
	}
	p := e.buffer.AppendValue(value)
	e.log.Debug("sale %q appended %.2f at %s", ev.ID, p.Value, p.Label)
	e.observer.SeriesChanged(e.buffer.Snapshot())
}

// MessageRejected implements channel.RejectionListener.
func (e *Engine) MessageRejected(err error) {
	if r, ok := e.observer.(RejectionObserver); ok {
		r.MessageRejected(err)
	}
}

func (e *Engine) uniform(low, high float64) float64 {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return low + (high-low)*e.rand()
}

type nopObserver struct{}

func (nopObserver) StateChanged(channel.State)        {}
func (nopObserver) Pulse()                            {}
func (nopObserver) SnapshotUpdated(snapshot.Snapshot) {}
func (nopObserver) RefreshFailed(error)               {}
func (nopObserver) SeriesChanged([]series.Point)      {}
