package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nexus-erp/nexusctl/internal/channel"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/ui"
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderCards())
	b.WriteString("\n")
	if m.display.AlertVisible {
		b.WriteString(alertStyle.Render(ui.SymbolWarning + " AI alert: " + m.display.AlertText))
		b.WriteString("\n")
	}
	b.WriteString(m.renderChart())
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(ui.SymbolFail + " " + m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	line := titleStyle.Render("Nexus ERP") + "  " + m.renderIndicator()
	if trend := ui.RenderSparkline(m.values(), series.Capacity); trend != "" {
		line += "  " + trend
	}
	return headerStyle.Render(line)
}

// renderIndicator shows the channel state, highlighted while a sale pulse is active.
func (m Model) renderIndicator() string {
	switch m.state {
	case channel.StateOpen:
		if m.pulsing {
			return pulseStyle.Render(ui.SymbolLive + " LIVE")
		}
		return liveStyle.Render(ui.SymbolLive + " LIVE")
	case channel.StateClosed:
		return offlineStyle.Render(ui.SymbolPending + " OFFLINE")
	default:
		return pendingStyle.Render(m.spinner.View() + " CONNECTING")
	}
}

func (m Model) renderCards() string {
	if !m.display.Ready() {
		return pendingStyle.Render(m.spinner.View() + " Loading dashboard...")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderCard("Sales today", m.display.Sales),
		renderCard("Low stock", m.display.LowStock),
		renderCard("Avg ticket", m.display.Ticket),
	)
}

func renderCard(label, value string) string {
	body := cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value)
	return cardStyle.Width(cardWidth).Render(body)
}

func (m Model) renderChart() string {
	if len(m.points) == 0 {
		return chartStyle.Render(pendingStyle.Render("No sales yet"))
	}
	bars := ui.RenderBars(m.values(), chartHeight)
	return chartStyle.Render("Sales\n" + bars + "\n" + axisLabels(m.points))
}

func (m Model) values() []float64 {
	values := make([]float64, len(m.points))
	for i, p := range m.points {
		values[i] = p.Value
	}
	return values
}

// axisLabels places the first and last point labels under the chart.
func axisLabels(points []series.Point) string {
	first := points[0].Label
	last := points[len(points)-1].Label
	width := len(points)*2 - 1
	gap := width - len(first) - len(last)
	if len(points) == 1 || gap < 1 {
		return cardLabelStyle.Render(last)
	}
	return cardLabelStyle.Render(first + strings.Repeat(" ", gap) + last)
}

func (m Model) renderFooter() string {
	updated := "waiting for first update"
	if !m.display.UpdatedAt.IsZero() {
		updated = "updated " + humanize.RelTime(m.display.UpdatedAt, m.now(), "ago", "from now")
	}
	line := footerStyle.Render(fmt.Sprintf("%s | %d points", updated, len(m.points)))
	return line + "\n" + footerStyle.Render(m.help.View(m.keys))
}
