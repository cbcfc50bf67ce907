// Package channel maintains the push connection that announces new sales,
// reconnecting on a fixed delay for as long as it is started.
package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nexus-erp/nexusctl/internal/clock"
	"github.com/nexus-erp/nexusctl/internal/logger"
)

// ReconnectDelay is the fixed pause between a closure and the next dial.
const ReconnectDelay = 5 * time.Second

// ErrStopped is returned by Start on a manager that has already been stopped.
var ErrStopped = errors.New("channel manager stopped")

// Listener receives channel notifications. Callbacks run on the manager's
// goroutines and must not block.
type Listener interface {
	StateChanged(State)
	SaleReceived(SaleEvent)
}

// RejectionListener is optionally implemented by a Listener that wants to
// count payloads Decode could not recognize.
type RejectionListener interface {
	MessageRejected(err error)
}

// Options configures a Manager.
type Options struct {
	// URL is the websocket address, e.g. ws://localhost:8000/ws.
	URL          string
	Dialer       Dialer
	Clock        clock.Clock
	Listener     Listener
	Logger       logger.Logger
	LegacyMarker string
}

// Manager owns one push connection at a time.
type Manager struct {
	url      string
	dialer   Dialer
	clock    clock.Clock
	listener Listener
	log      logger.Logger
	marker   string

	mu      sync.Mutex
	state   State
	started bool
	stopped bool
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	conn    Conn
	timer   clock.Timer
	wg      sync.WaitGroup
}

// NewManager creates a manager. Nothing is dialled until Start.
func NewManager(opts Options) *Manager {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = NewWebsocketDialer(nil)
	}
	listener := opts.Listener
	if listener == nil {
		listener = nopListener{}
	}
	return &Manager{
		url:      opts.URL,
		dialer:   dialer,
		clock:    clock.OrReal(opts.Clock),
		listener: listener,
		log:      logger.OrDefault(opts.Logger),
		marker:   opts.LegacyMarker,
		state:    StateClosed,
	}
}

// Start dials the first connection. Calling Start twice is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrStopped
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.connect()
	return nil
}

// Stop cancels any pending reconnect, closes the live connection and waits
// for the reader goroutine to exit. It is idempotent.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	conn := m.conn
	m.conn = nil
	m.state = StateClosed
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	m.wg.Wait()
	m.log.Debug("channel stopped")
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// connect starts a fresh connection attempt under a new generation.
func (m *Manager) connect() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.gen++
	gen := m.gen
	ctx := m.ctx
	m.state = StateConnecting
	m.wg.Add(1)
	m.mu.Unlock()

	m.listener.StateChanged(StateConnecting)
	go m.run(ctx, gen)
}

func (m *Manager) run(ctx context.Context, gen uint64) {
	defer m.wg.Done()

	m.log.Debug("channel dialing %s", m.url)
	conn, err := m.dialer.Dial(ctx, m.url)
	if err != nil {
		if ctx.Err() == nil {
			m.log.Warn("channel dial failed: %v", err)
		}
		m.closed(gen)
		return
	}

	m.mu.Lock()
	if m.stopped || gen != m.gen {
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.conn = conn
	m.state = StateOpen
	m.mu.Unlock()

	m.log.Info("channel open: %s", m.url)
	m.listener.StateChanged(StateOpen)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				m.log.Warn("channel connection lost: %v", err)
			}
			m.closed(gen)
			return
		}
		m.handle(data)
	}
}

// closed moves generation gen to Closed and schedules exactly one reconnect.
func (m *Manager) closed(gen uint64) {
	m.mu.Lock()
	if m.stopped || gen != m.gen {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.conn = nil
	m.state = StateClosed
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	m.listener.StateChanged(StateClosed)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || gen != m.gen || m.timer != nil {
		return
	}
	m.log.Info("channel reconnecting in %s", ReconnectDelay)
	m.timer = m.clock.AfterFunc(ReconnectDelay, m.connect)
}

func (m *Manager) handle(data []byte) {
	msg, err := Decode(data, m.marker)
	if err != nil {
		m.log.Warn("channel: %v", err)
		if r, ok := m.listener.(RejectionListener); ok {
			r.MessageRejected(err)
		}
		return
	}

	switch msg.Kind {
	case KindSale:
		m.log.Debug("channel sale event id=%q legacy=%t", msg.Sale.ID, msg.Sale.Legacy)
		m.listener.SaleReceived(*msg.Sale)
	case KindHeartbeat:
		m.log.Debug("channel heartbeat")
	}
}

type nopListener struct{}

func (nopListener) StateChanged(State)     {}
func (nopListener) SaleReceived(SaleEvent) {}
