package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		Padding(1, 2)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// HumanTimestampFrom returns a relative timestamp such as "5m ago", falling
// back to an absolute date after a day.
func HumanTimestampFrom(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Local().Format("Jan 2, 2006")
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "Yesterday"
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}

// HumanTimestamp is HumanTimestampFrom relative to the current time.
func HumanTimestamp(t time.Time) string {
	return HumanTimestampFrom(t, time.Now())
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// StatusPill returns a colored indicator for a proposal status.
func StatusPill(status domain.ProposalStatus) string {
	switch status {
	case domain.StatusWon:
		return StyleGreen.Render("● Won")
	case domain.StatusLost:
		return StyleRed.Render("✖ Lost")
	case domain.StatusSubmitted:
		return StyleBlue.Render("○ Submitted")
	case domain.StatusCompleted:
		return StyleGreen.Render("✔ Completed")
	case domain.StatusReview:
		return StyleYellow.Render("○ Review")
	default:
		return StyleDim.Render(string(status))
	}
}

// StepBadge renders a step as "3/6 Trend research".
func StepBadge(step domain.Step, rank, total int) string {
	if step == domain.StepComplete {
		return StyleGreen.Render("✔ " + step.Label())
	}
	return StylePurple.Render(fmt.Sprintf("%d/%d", rank, total)) + " " + StyleFg.Render(step.Label())
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return StyleDim.Render("--")
	}
	return s
}

// bullets renders items as an indented dash list.
func bullets(items []string) string {
	if len(items) == 0 {
		return "  " + Dim("(none)") + "\n"
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("  " + StyleDim.Render("-") + " " + it + "\n")
	}
	return b.String()
}
