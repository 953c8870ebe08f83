package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Green
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // Red
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func renderHeading(title string, colored bool) string {
	if !colored {
		return "== " + title + " =="
	}
	return headingStyle.Render(title)
}

// Added marks an item that appeared, e.g. "+22".
func Added(s string, colored bool) string {
	if !colored {
		return "+" + s
	}
	return addedStyle.Render("+" + s)
}

// Removed marks an item that disappeared, e.g. "-80".
func Removed(s string, colored bool) string {
	if !colored {
		return "-" + s
	}
	return removedStyle.Render("-" + s)
}

// Muted renders secondary text such as placeholders.
func Muted(s string, colored bool) string {
	if !colored {
		return s
	}
	return mutedStyle.Render(s)
}

// Ports joins a port list for a table cell. Empty lists render as "-".
func Ports(ports []uint16) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ",")
}

// OrDash returns s, or "-" when s is blank.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
