package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nexus-erp/nexusctl/internal/ui"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	liveStyle    = lipgloss.NewStyle().Foreground(ui.ColorSuccess).Bold(true)
	pulseStyle   = lipgloss.NewStyle().Foreground(ui.ColorWarning).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(ui.ColorError).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorMuted).
			Padding(0, 1).
			MarginRight(1)

	cardLabelStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted)
	cardValueStyle = lipgloss.NewStyle().Bold(true)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ui.ColorWarning).
			Foreground(ui.ColorWarning).
			Padding(0, 1)

	chartStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorMuted).
			Padding(0, 1)

	noticeStyle = lipgloss.NewStyle().Foreground(ui.ColorError)
	footerStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted).Padding(0, 1)
)

// cardWidth is the inner width of a KPI card.
const cardWidth = 18

// chartHeight is the number of rows the sales chart spans.
const chartHeight = 6
