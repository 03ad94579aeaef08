package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/blueprint/internal/executor"
)

// renderRun renders the main view showing the phase tree and progress
func (m Model) renderRun() string {
	var b strings.Builder

	// Title
	title := m.styles.Title.Render("⚡ Blueprint Run")
	b.WriteString(title)
	b.WriteString("\n\n")

	// Blueprint name
	nameLabel := m.styles.Muted.Render("Blueprint: ")
	nameText := m.styles.Subtitle.Render(m.blueprintName)
	b.WriteString(nameLabel + nameText)
	b.WriteString("\n\n")

	// Progress section
	b.WriteString(m.renderProgressBox())
	b.WriteString("\n\n")

	// Phase tree
	b.WriteString(m.renderPhaseTree())
	b.WriteString("\n")

	// Log tail
	if tail := m.renderLogTail(logTailLines); tail != "" {
		b.WriteString(tail)
		b.WriteString("\n")
	}

	// Stop notice
	if m.stopping {
		b.WriteString(m.styles.Warning.Render("Stopping after the current step..."))
		b.WriteString("\n")
	}

	// Help text
	b.WriteString(m.renderHelpLine())

	return b.String()
}

// renderProgressBox renders the progress statistics box
func (m Model) renderProgressBox() string {
	var b strings.Builder

	// Status icon and text
	icon := m.statusIcon()
	statusStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.statusColor())

	status := statusStyle.Render(fmt.Sprintf("%s Progress", icon))
	b.WriteString(status)
	b.WriteString("\n\n")

	// Progress bar across phases
	bar := m.progress.ViewAs(m.progressFraction())
	label := m.styles.Muted.Render(fmt.Sprintf(" %d/%d phases", m.completedPhases, m.totalPhases))
	b.WriteString(bar + label)
	b.WriteString("\n\n")

	// Statistics
	b.WriteString(m.renderStats())

	return m.styles.Border.Render(b.String())
}

// renderStats renders execution statistics
func (m Model) renderStats() string {
	stats := []string{
		fmt.Sprintf("Steps done: %s", m.styles.Success.Render(fmt.Sprintf("%d", m.completedSteps))),
	}

	if m.failedSteps > 0 {
		stats = append(stats, fmt.Sprintf("Failed:     %s", m.styles.Error.Render(fmt.Sprintf("%d", m.failedSteps))))
	}

	stats = append(stats,
		fmt.Sprintf("Elapsed:    %s", m.styles.Muted.Render(formatDuration(m.elapsed()))),
	)

	return strings.Join(stats, "\n")
}

// renderPhaseTree renders every phase with the running one expanded
func (m Model) renderPhaseTree() string {
	var b strings.Builder

	for i := range m.phases {
		b.WriteString(m.renderPhaseLine(i))
		b.WriteString("\n")

		// Only the running phase shows its steps
		if m.phases[i].state != stateRunning {
			continue
		}
		for j := range m.phases[i].steps {
			b.WriteString(m.renderStepLine(&m.phases[i].steps[j]))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderPhaseLine renders a single phase in the tree
func (m Model) renderPhaseLine(index int) string {
	phase := &m.phases[index]

	var icon string
	var style lipgloss.Style
	switch phase.state {
	case stateDone:
		icon = m.styles.Success.Render("✓")
		style = m.styles.Success
	case stateRunning:
		icon = m.spinner.View()
		style = m.styles.Status
	case stateFailed:
		icon = m.styles.Error.Render("✗")
		style = m.styles.Error
	default: // Pending
		icon = m.styles.Muted.Render("○")
		style = m.styles.Muted
	}

	text := fmt.Sprintf("Phase %d/%d: %s", index+1, len(m.phases), phase.name)
	if phase.state == stateRunning {
		text = m.styles.Status.Bold(true).Render(text)
	} else {
		text = style.Render(text)
	}

	return icon + " " + text
}

// renderStepLine renders a single step under its phase
func (m Model) renderStepLine(step *stepRow) string {
	if step.state == stateRunning {
		return "  " + m.spinner.View() + " " + m.styles.Status.Bold(true).Render(step.desc)
	}

	var icon string
	var style lipgloss.Style
	switch step.state {
	case stateDone:
		icon = "✓"
		style = m.styles.Success
	case stateFailed:
		icon = "✗"
		style = m.styles.Error
	default: // Pending
		icon = "○"
		style = m.styles.Muted
	}

	line := "  " + style.Render(icon+" "+step.desc)
	if step.state == stateFailed && step.err != "" {
		line += m.styles.Muted.Render(" - " + step.err)
	}
	return line
}

// renderLogTail renders the newest execution log entries
func (m Model) renderLogTail(n int) string {
	if len(m.logTail) == 0 {
		return ""
	}

	entries := m.logTail
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}

	var b strings.Builder
	b.WriteString(m.styles.Muted.Render("Execution log"))
	b.WriteString("\n")
	for _, entry := range entries {
		b.WriteString(m.renderLogEntry(entry))
		b.WriteString("\n")
	}

	return b.String()
}

// renderLogEntry renders one execution log line
func (m Model) renderLogEntry(entry executor.LogEntry) string {
	ts := m.styles.Muted.Render(entry.Timestamp.Format("15:04:05"))

	var msg string
	switch entry.Level {
	case executor.LogError:
		msg = m.styles.Error.Render(entry.Message)
	case executor.LogWarning:
		msg = m.styles.Warning.Render(entry.Message)
	default:
		msg = m.styles.KeyDesc.Render(entry.Message)
	}

	return ts + " " + msg
}

// renderLog renders the execution log view
func (m Model) renderLog() string {
	var b strings.Builder

	// Title
	title := m.styles.Title.Render("📜 Execution Log")
	b.WriteString(title)
	b.WriteString("\n\n")

	if len(m.logTail) == 0 {
		b.WriteString(m.styles.Muted.Render("No log entries yet"))
		b.WriteString("\n\n")
		b.WriteString(m.renderHelpLine())
		return b.String()
	}

	for _, entry := range m.logTail {
		b.WriteString(m.renderLogEntry(entry))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelpLine())

	return b.String()
}

// renderHelp renders the help view
func (m Model) renderHelp() string {
	var b strings.Builder

	// Title
	title := m.styles.Title.Render("❓ Help")
	b.WriteString(title)
	b.WriteString("\n\n")

	// Hotkeys
	hotkeys := []struct {
		key  string
		desc string
	}{
		{"?", "Toggle help"},
		{"l", "Toggle execution log"},
		{"q", "Stop the run after the current step"},
		{"Ctrl+C", "Stop; press twice to abandon the display"},
		{"Esc", "Return to run view"},
	}

	for _, hk := range hotkeys {
		keyText := m.styles.Key.Render(fmt.Sprintf("%-10s", hk.key))
		descText := m.styles.KeyDesc.Render(hk.desc)
		b.WriteString(keyText + " " + descText)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("Press ? or Esc to return to the run view"))

	return b.String()
}

// renderComplete renders the completion screen
func (m Model) renderComplete() string {
	var b strings.Builder

	if m.result == nil {
		// The user abandoned the display before the run settled
		b.WriteString(m.styles.Warning.Render("Display closed; waiting for the run to wind down"))
		b.WriteString("\n")
		return b.String()
	}

	if m.result.Success {
		title := m.styles.Success.Render("✅ Blueprint Complete!")
		b.WriteString(title)
		b.WriteString("\n\n")
		total, succeeded := m.result.StepCount()
		stats := []string{
			fmt.Sprintf("Phases: %d", len(m.result.Phases)),
			fmt.Sprintf("Steps: %d/%d", succeeded, total),
			fmt.Sprintf("Duration: %s", formatDuration(m.result.Elapsed)),
		}
		b.WriteString(strings.Join(stats, "\n"))
	} else {
		title := m.styles.Error.Render("❌ Blueprint Failed")
		b.WriteString(title)
		b.WriteString("\n\n")
		if m.result.Err != nil {
			b.WriteString(m.styles.Muted.Render("Error: ") + errLine(m.result.Err))
		}
	}

	b.WriteString("\n")
	return b.String()
}

// renderHelpLine renders the help line at the bottom
func (m Model) renderHelpLine() string {
	helpItems := []string{
		m.styles.Key.Render("?") + " help",
		m.styles.Key.Render("l") + " log",
		m.styles.Key.Render("q") + " stop",
	}

	helpLine := strings.Join(helpItems, " • ")
	return m.styles.Help.Render(helpLine)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
