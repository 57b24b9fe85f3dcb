package ui

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultAccent = "#A78BFA"

var (
	// Accent style for file paths, labels, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info and hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent)).Bold(true)

	accentColor string
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ConfigureAccent sets the accent color from a config value: an ANSI code
// ("0" to "255") or a hex color ("#RRGGBB"). Invalid values reset to the default
// and report false.
func ConfigureAccent(value string) bool {
	value = strings.TrimSpace(value)
	color, ok := normalizeColor(value)
	if !ok {
		color = ""
	}

	accentColor = color
	effective := color
	if effective == "" {
		effective = defaultAccent
	}
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(effective))
	AccentBold = Accent.Bold(true)

	return ok || value == ""
}

// AccentColor returns the configured accent color, if any.
func AccentColor() (string, bool) {
	return accentColor, accentColor != ""
}

func normalizeColor(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	if hexColorPattern.MatchString(value) {
		return strings.ToUpper(value), true
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 0 && n <= 255 {
		return strconv.Itoa(n), true
	}
	return "", false
}
