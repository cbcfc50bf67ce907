// Package series holds the rolling sales series shown on the dashboard chart.
package series

import (
	"sync"

	"github.com/nexus-erp/nexusctl/internal/clock"
)

// Capacity is the fixed number of points the buffer retains.
const Capacity = 20

// LabelFormat is the time layout used for point labels.
const LabelFormat = "15:04:05"

// Point is a single chart sample.
type Point struct {
	Label string
	Value float64
}

// Buffer is a fixed-capacity FIFO of chart points backed by a ring buffer.
// Appending to a full buffer evicts the oldest point. Safe for concurrent use.
type Buffer struct {
	mu    sync.RWMutex
	clock clock.Clock
	data  [Capacity]Point
	head  int
	count int
}

// NewBuffer creates an empty buffer. Labels for seeded points come from c;
// nil uses the real clock.
func NewBuffer(c clock.Clock) *Buffer {
	return &Buffer{clock: clock.OrReal(c)}
}

// Append adds p at the tail, evicting the head once the buffer is full.
func (b *Buffer) Append(p Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushLocked(p)
}

// AppendValue appends v labelled with the current time.
func (b *Buffer) AppendValue(v float64) Point {
	p := Point{Label: b.Label(), Value: v}
	b.Append(p)
	return p
}

// Seed appends n synthetic points produced by gen so the chart never renders
// empty. Every synthetic point carries the current time label.
func (b *Buffer) Seed(n int, gen func() float64) {
	if n <= 0 || gen == nil {
		return
	}
	label := b.Label()

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < n; i++ {
		b.pushLocked(Point{Label: label, Value: gen()})
	}
}

// Snapshot returns the buffered points in arrival order (oldest first).
// The returned slice is independent of the buffer.
func (b *Buffer) Snapshot() []Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Point, b.count)
	start := (b.head - b.count + Capacity) % Capacity
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(start+i)%Capacity]
	}
	return out
}

// Values returns just the point values in arrival order.
func (b *Buffer) Values() []float64 {
	points := b.Snapshot()
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}

// Last returns the most recently appended point.
func (b *Buffer) Last() (Point, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.count == 0 {
		return Point{}, false
	}
	return b.data[(b.head-1+Capacity)%Capacity], true
}

// Len returns the number of buffered points.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Label formats the buffer clock's current time as a point label.
func (b *Buffer) Label() string {
	return b.clock.Now().Format(LabelFormat)
}

// pushLocked writes p at head. Must be called with b.mu held.
func (b *Buffer) pushLocked(p Point) {
	b.data[b.head] = p
	b.head = (b.head + 1) % Capacity
	if b.count < Capacity {
		b.count++
	}
}
