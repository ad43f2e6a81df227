package util

import (
	"os"

	"golang.org/x/term"
)

// Progress bar width bounds, in columns
const (
	minBarWidth = 10
	maxBarWidth = 40
)

// IsTerminal reports whether fd is attached to a terminal
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// ShowProgressBar reports whether an interactive progress bar should be
// drawn on f. Piped output and --quiet get periodic log lines instead.
func ShowProgressBar(f *os.File) bool {
	return f != nil && IsTerminal(f.Fd()) && !IsQuiet()
}

// ProgressBarWidth sizes the bar so that the bar and its counters fit on
// one line of f. reserved is the room the description and counters need.
func ProgressBarWidth(f *os.File, reserved int) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return maxBarWidth
	}
	return clampBarWidth(width - reserved)
}

func clampBarWidth(w int) int {
	switch {
	case w < minBarWidth:
		return minBarWidth
	case w > maxBarWidth:
		return maxBarWidth
	}
	return w
}
