// Package ui provides terminal styling shared by the nexusctl commands and
// the live dashboard.
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - channel open, successful operations
//	ColorError     (red)    - failures, channel closed
//	ColorWarning   (yellow) - sale pulse, AI alerts
//	ColorInfo      (cyan)   - chart bars
//	ColorMuted     (gray)   - secondary text, timestamps
//
// Use DisableColors() to switch to monochrome output (for --no-color flag).
//
// RenderSparkline and RenderBars draw the sales series; Spinner animates
// one-shot CLI operations and NewBubblesSpinner serves Bubble Tea models.
package ui
