// Package ui holds the [lipgloss] styles used for terminal output: the startup banner and command results.
package ui
