// Package ui provides terminal styling for wpasc output.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// ShouldUseColor reports whether output should be colored.
// NO_COLOR (https://no-color.org) and CLICOLOR=0 disable color.
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return termenv.NewOutput(os.Stdout).Profile != termenv.Ascii
}

// Colors adapt to light and dark terminals.
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#86D993"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#F2C14E"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#F07178"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#82AAFF"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#616161", Dark: "#8A8F98"}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

// RenderPass renders text in the success color.
func RenderPass(s string) string { return PassStyle.Render(s) }

// RenderWarn renders text in the warning color.
func RenderWarn(s string) string { return WarnStyle.Render(s) }

// RenderFail renders text in the error color.
func RenderFail(s string) string { return FailStyle.Render(s) }

// RenderAccent renders text in the accent color.
func RenderAccent(s string) string { return AccentStyle.Render(s) }

// RenderMuted renders secondary text.
func RenderMuted(s string) string { return MutedStyle.Render(s) }

// RenderHeader renders a table or section header.
func RenderHeader(s string) string { return HeaderStyle.Render(s) }

// RenderStatus colors a post status by how public it is.
func RenderStatus(status string) string {
	switch status {
	case "publish":
		return RenderPass(status)
	case "draft", "pending", "future":
		return RenderWarn(status)
	case "private":
		return RenderAccent(status)
	default:
		return RenderMuted(status)
	}
}
