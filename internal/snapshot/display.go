package snapshot

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Placeholder is shown in a field before the first successful refresh.
const Placeholder = "--"

// Display holds the rendered KPI fields bound to the dashboard.
type Display struct {
	Sales    string
	LowStock string
	Ticket   string

	// AlertVisible and AlertText follow the most recent snapshot only.
	AlertVisible bool
	AlertText    string

	UpdatedAt time.Time
}

// NewDisplay returns a display with placeholder fields and no banner.
func NewDisplay() Display {
	return Display{
		Sales:    Placeholder,
		LowStock: Placeholder,
		Ticket:   Placeholder,
	}
}

// Apply reflects s into the display. Applying the same snapshot twice yields
// the same fields. The alert banner is shown with the snapshot's alert text
// when present and hidden when the snapshot has none.
func (d *Display) Apply(s Snapshot) {
	d.Sales = FormatCurrency(s.SalesToday)
	d.LowStock = humanize.Comma(int64(s.LowStockCount))
	d.Ticket = FormatCurrency(s.AverageTicket)

	d.AlertVisible = s.HasAlert()
	d.AlertText = s.AIAlert

	d.UpdatedAt = s.FetchedAt
}

// Ready reports whether at least one snapshot has been applied.
func (d Display) Ready() bool {
	return d.Sales != Placeholder && d.Sales != ""
}

// FormatCurrency renders an amount in soles with two decimals.
func FormatCurrency(v float64) string {
	return fmt.Sprintf("S/ %.2f", v)
}
