package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// SparklineLevels maps values to block levels 0..7 relative to the min/max of
// data. A flat series maps every value to the middle level.
func SparklineLevels(data []float64) []int {
	if len(data) == 0 {
		return nil
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal
	levels := make([]int, len(data))
	for i, v := range data {
		if valueRange == 0 {
			levels[i] = numLevels / 2
			continue
		}
		level := int((v - minVal) / valueRange * float64(numLevels-1))
		if level < 0 {
			level = 0
		} else if level >= numLevels {
			level = numLevels - 1
		}
		levels[i] = level
	}
	return levels
}

// RenderSparkline draws the most recent width values as block characters.
// The line is green when the last value is at or above the previous one and
// yellow when it dropped.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for _, level := range SparklineLevels(data) {
		sb.WriteRune(sparklineBlockRunes[level])
	}

	return lipgloss.NewStyle().Foreground(trendColor(data)).Render(sb.String())
}

// RenderBars draws data as vertical bars height rows tall, one column per
// value, with columns separated by a space.
func RenderBars(data []float64, height int) string {
	if len(data) == 0 || height <= 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range data {
		if v > maxVal {
			maxVal = v
		}
	}

	// Each row covers 8 sub-levels so bars grow in eighths.
	filled := make([]int, len(data))
	total := height * len(sparklineBlockRunes)
	for i, v := range data {
		if maxVal > 0 && v > 0 {
			filled[i] = int(v / maxVal * float64(total))
			if filled[i] == 0 {
				filled[i] = 1
			}
		}
	}

	style := lipgloss.NewStyle().Foreground(ColorInfo)
	rows := make([]string, height)
	for r := 0; r < height; r++ {
		floor := (height - 1 - r) * len(sparklineBlockRunes)
		var sb strings.Builder
		for i, f := range filled {
			if i > 0 {
				sb.WriteByte(' ')
			}
			switch rest := f - floor; {
			case rest >= len(sparklineBlockRunes):
				sb.WriteRune(sparklineBlockRunes[len(sparklineBlockRunes)-1])
			case rest > 0:
				sb.WriteRune(sparklineBlockRunes[rest-1])
			default:
				sb.WriteByte(' ')
			}
		}
		rows[r] = style.Render(sb.String())
	}
	return strings.Join(rows, "\n")
}

func trendColor(data []float64) lipgloss.Color {
	if len(data) < 2 || data[len(data)-1] >= data[len(data)-2] {
		return ColorSuccess
	}
	return ColorWarning
}
