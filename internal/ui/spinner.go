package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Spinner animation frames.
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Spinner shows an animated line while a one-shot operation runs, then
// replaces it with a final status line.
type Spinner struct {
	mu        sync.Mutex
	w         io.Writer
	label     string
	frame     int
	startTime time.Time
	running   bool
	lastLen   int
	stop      chan struct{}
	done      chan struct{}
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{w: w, label: label}
}

// Start begins the animation. Calling Start twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.startTime = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.render()
	go s.animate()
}

// Success stops the spinner with a check mark.
func (s *Spinner) Success() {
	s.finish(SymbolSuccess, ColorSuccess)
}

// Fail stops the spinner with a cross.
func (s *Spinner) Fail() {
	s.finish(SymbolFail, ColorError)
}

func (s *Spinner) halt() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()
	<-s.done
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.mu.Unlock()
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	style := lipgloss.NewStyle().Foreground(ColorSecondary)
	line := fmt.Sprintf("%s %s...", style.Render(spinnerFrames[s.frame]), s.label)
	s.clearLocked()
	fmt.Fprint(s.w, line)
	s.lastLen = len([]rune(line))
}

func (s *Spinner) finish(symbol string, color lipgloss.Color) {
	s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	timing := ""
	if !s.startTime.IsZero() {
		timing = " " + MutedStyle().Render(formatDuration(time.Since(s.startTime)))
	}
	fmt.Fprintf(s.w, "%s %s%s\n", lipgloss.NewStyle().Foreground(color).Render(symbol), s.label, timing)
	s.lastLen = 0
}

func (s *Spinner) clearLocked() {
	if s.lastLen > 0 {
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.lastLen)+"\r")
	}
}

// formatDuration formats a duration for display (e.g., "0.3s", "1.2s").
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
