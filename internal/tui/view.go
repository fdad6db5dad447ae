package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Danondso/squeak/internal/grain"
)

// Styles, rebuilt by applyTheme.
var (
	titleStyle       lipgloss.Style
	borderStyle      lipgloss.Style
	labelStyle       lipgloss.Style
	translationStyle lipgloss.Style
	helpStyle        lipgloss.Style
	bodyStyle        lipgloss.Style

	idleBadge     lipgloss.Style
	thinkingBadge lipgloss.Style
	speakingBadge lipgloss.Style
	errorBadge    lipgloss.Style

	meterStyle      lipgloss.Style
	meterEmptyStyle lipgloss.Style
	gaugeStyle      lipgloss.Style
	grainStyle      lipgloss.Style
	skippedStyle    lipgloss.Style
	reverbStyle     lipgloss.Style

	debugTitleStyle    lipgloss.Style
	debugRuleStyle     lipgloss.Style
	debugHeaderStyle   lipgloss.Style
	debugTimeStyle     lipgloss.Style
	debugCategoryStyle lipgloss.Style
	debugMsgStyle      lipgloss.Style
	debugSepStyle      lipgloss.Style

	statusOkStyle  lipgloss.Style
	statusBadStyle lipgloss.Style
)

func init() {
	applyTheme(themes["synthwave"])
}

// panelWidth is the total outer width of the main panel.
// borderStyle has: border (1+1) = 2, padding (2+2) = 4, total chrome = 6.
// Width() in lipgloss sets width including padding but excluding border.
const panelWidth = 80
const panelWidthForStyle = panelWidth - 2
const panelContentWidth = panelWidth - 6

// View renders the TUI.
func (m Model) View() string {
	var b strings.Builder

	titleText := "  SQUEAK  "
	barTotal := panelContentWidth - len(titleText)
	barLeft := barTotal / 2
	barRight := barTotal - barLeft
	title := strings.Repeat("▓", barLeft) + titleText + strings.Repeat("▓", barRight)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Status:  "))
	b.WriteString(m.renderBadge())
	if m.State == StateSpeaking {
		b.WriteString(bodyStyle.Render("  "))
		b.WriteString(m.renderMeter())
	}
	b.WriteString("\n\n")

	b.WriteString(m.Input.View())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Translation:"))
	b.WriteString("\n")
	if m.LastResult != nil {
		b.WriteString(translationStyle.Width(panelContentWidth).Render(fmt.Sprintf("%q", m.LastReply.Caption)))
		b.WriteString("\n")
		if m.LastResult.Intent != nil {
			b.WriteString(bodyStyle.Render(fmt.Sprintf("%s %s", m.LastResult.Onomatopoeia, m.LastResult.Phrase)))
			b.WriteString("\n")
			b.WriteString(m.renderGauge())
			b.WriteString("\n")
		}
		b.WriteString(m.renderTimeline())
	} else {
		b.WriteString(bodyStyle.Render("(none yet)"))
	}
	b.WriteString("\n\n")

	help := "enter translate · ctrl+a analysis · ctrl+y copy · ctrl+t theme · esc quit"
	b.WriteString(helpStyle.Render(help))
	if m.Notice != "" {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(m.Notice))
	}

	if m.DebugMode || len(m.DebugEntries) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderDebugPanel())
	}

	return borderStyle.Width(panelWidthForStyle).Render(b.String())
}

const debugPanelMaxLines = 5

// Debug table column widths. Row content must fit within panelContentWidth.
const (
	colTimeWidth     = 12
	colCategoryWidth = 10
	colSepWidth      = 3 // " │ "
	colMsgWidth      = panelContentWidth - colTimeWidth - colCategoryWidth - colSepWidth*2
)

func (m Model) renderDebugPanel() string {
	sep := debugSepStyle.Render(" │ ")
	rule := debugRuleStyle.Render(strings.Repeat("─", panelContentWidth))

	var db strings.Builder
	db.WriteString(debugTitleStyle.Render("Debug"))
	db.WriteString("\n")
	db.WriteString(rule)
	db.WriteString("\n")
	db.WriteString(
		debugHeaderStyle.Width(colTimeWidth).Render("TIME") +
			sep +
			debugHeaderStyle.Width(colCategoryWidth).Render("COMPONENT") +
			sep +
			debugHeaderStyle.Width(colMsgWidth).Render("MESSAGE"))
	db.WriteString("\n")
	db.WriteString(rule)

	entries := m.DebugEntries
	if len(entries) > debugPanelMaxLines {
		entries = entries[len(entries)-debugPanelMaxLines:]
	}
	for _, entry := range entries {
		db.WriteString("\n")
		db.WriteString(
			debugTimeStyle.Width(colTimeWidth).Render(truncate(entry.Time, colTimeWidth)) +
				sep +
				debugCategoryStyle.Width(colCategoryWidth).Render(truncate(entry.Category, colCategoryWidth)) +
				sep +
				debugMsgStyle.Width(colMsgWidth).Render(ellipsize(entry.Message, colMsgWidth)))
	}

	return db.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func ellipsize(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

const meterWidth = 20

func (m Model) renderMeter() string {
	filled := bar(math.Sqrt(m.Level), meterWidth)
	return helpStyle.Render("Out  ") +
		meterStyle.Render(strings.Repeat("█", filled)) +
		meterEmptyStyle.Render(strings.Repeat("░", meterWidth-filled))
}

const gaugeWidth = 20

// renderGauge shows the winning intent and its confidence.
func (m Model) renderGauge() string {
	ir := m.LastResult.Intent
	filled := bar(ir.Confidence, gaugeWidth)
	label := fmt.Sprintf("%-9s", ir.Intent)
	out := labelStyle.Render(label) +
		gaugeStyle.Render(strings.Repeat("█", filled)) +
		meterEmptyStyle.Render(strings.Repeat("░", gaugeWidth-filled)) +
		bodyStyle.Render(fmt.Sprintf(" %.2f", ir.Confidence))
	if m.LastResult.Fallback {
		out += helpStyle.Render("  (estimated)")
	}
	return out
}

const timelineWidth = panelContentWidth - 12

// renderTimeline draws each grain as a run of cells proportional to its
// span of the utterance.
func (m Model) renderTimeline() string {
	res := m.LastResult
	cells := timelineCells(res.Timeline, res.Duration, timelineWidth)

	var b strings.Builder
	b.WriteString(helpStyle.Render("Grains  "))
	for _, c := range cells {
		switch c {
		case cellGrain:
			b.WriteString(grainStyle.Render("▬"))
		case cellSkipped:
			b.WriteString(skippedStyle.Render("x"))
		default:
			b.WriteString(meterEmptyStyle.Render("·"))
		}
	}
	if res.Reverb {
		b.WriteString(reverbStyle.Render(" ~"))
	}
	return b.String()
}

const (
	cellEmpty = iota
	cellGrain
	cellSkipped
)

func timelineCells(entries []grain.TimelineEntry, total float64, width int) []int {
	cells := make([]int, width)
	if total <= 0 {
		return cells
	}
	scale := float64(width) / total
	for _, e := range entries {
		from := int(e.Start * scale)
		to := int(math.Ceil((e.Start + e.Duration) * scale))
		if to <= from {
			to = from + 1
		}
		kind := cellGrain
		if e.Skipped {
			kind = cellSkipped
		}
		for i := from; i < to && i < width; i++ {
			if cells[i] != cellSkipped {
				cells[i] = kind
			}
		}
	}
	return cells
}

func bar(v float64, width int) int {
	n := int(math.Round(v * float64(width)))
	if n < 0 {
		return 0
	}
	if n > width {
		return width
	}
	return n
}

func (m Model) renderStatusBar() string {
	backend := m.Config.Audio.Backend
	var analysis string
	if m.Translator != nil && m.Translator.AnalysisEnabled() {
		analysis = statusOkStyle.Render("on")
	} else {
		analysis = statusBadStyle.Render("off")
	}
	return helpStyle.Render("Output: ") + bodyStyle.Render(backend) +
		helpStyle.Render("  Analysis: ") + analysis +
		helpStyle.Render("  Theme: ") + bodyStyle.Render(m.ThemeName)
}

func (m Model) renderBadge() string {
	switch m.State {
	case StateThinking:
		return thinkingBadge.Render("● Thinking...")
	case StateSpeaking:
		return speakingBadge.Render("● Speaking...")
	case StateFinalizing:
		return thinkingBadge.Render("● Listening back...")
	case StateError:
		return errorBadge.Render("● Error: " + ellipsize(m.LastError, 53))
	default:
		return idleBadge.Render("● Idle")
	}
}
