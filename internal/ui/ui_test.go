package ui

import (
	"bytes"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func TestSparklineLevels(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want []int
	}{
		{"empty", nil, nil},
		{"flat", []float64{5, 5, 5}, []int{4, 4, 4}},
		{"ramp", []float64{0, 50, 100}, []int{0, 3, 7}},
		{"negative", []float64{-10, 10}, []int{0, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SparklineLevels(tt.data))
		})
	}
}

func TestRenderSparkline(t *testing.T) {
	assert.Empty(t, RenderSparkline(nil, 10))
	assert.Empty(t, RenderSparkline([]float64{1}, 0))

	assert.Equal(t, "▁▄█", stripANSI(RenderSparkline([]float64{0, 50, 100}, 10)))

	// Only the most recent width points are drawn.
	got := stripANSI(RenderSparkline([]float64{100, 0, 100}, 2))
	assert.Equal(t, "▁█", got)
}

func TestTrendColor(t *testing.T) {
	assert.Equal(t, ColorSuccess, trendColor([]float64{1}))
	assert.Equal(t, ColorSuccess, trendColor([]float64{1, 2}))
	assert.Equal(t, ColorWarning, trendColor([]float64{2, 1}))
}

func TestRenderBars(t *testing.T) {
	assert.Empty(t, RenderBars(nil, 3))
	assert.Empty(t, RenderBars([]float64{1}, 0))

	out := stripANSI(RenderBars([]float64{0, 100, 50}, 2))
	rows := strings.Split(out, "\n")
	assert.Len(t, rows, 2)
	assert.Equal(t, "  █  ", rows[0])
	assert.Equal(t, "  █ █", rows[1])
}

func TestSpinner_SuccessAndFail(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "Fetching dashboard")
	s.Start()
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Success()

	out := stripANSI(buf.String())
	assert.Contains(t, out, "Fetching dashboard...")
	assert.Contains(t, out, SymbolSuccess+" Fetching dashboard")
	assert.True(t, strings.HasSuffix(out, "s\n"))

	buf.Reset()
	f := NewSpinner(&buf, "Signing in")
	f.Fail()
	assert.Equal(t, SymbolFail+" Signing in\n", stripANSI(buf.String()))
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	PrintSuccess(&buf, "Signed in")
	PrintWarning(&buf, "Session expired")
	assert.Equal(t, "✓ Signed in\n⚠ Session expired\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.05s", formatDuration(50*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}
