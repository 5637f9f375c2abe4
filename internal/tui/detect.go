package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode is how progress is shown.
type Mode int

const (
	// ModePlain prints one line per event. Used for CI, pipes and log files.
	ModePlain Mode = iota
	// ModeInteractive renders a live progress bar.
	ModeInteractive
)

// DetectMode returns ModePlain if:
//   - JSONLOAD_NON_INTERACTIVE=1 is set
//   - CI is set
//   - NO_COLOR is set
//   - stdin or stdout is not a terminal
//
// and ModeInteractive otherwise.
func DetectMode() Mode {
	if os.Getenv("JSONLOAD_NON_INTERACTIVE") == "1" {
		return ModePlain
	}
	if os.Getenv("CI") != "" {
		return ModePlain
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModePlain
	}

	// The bar reads keys from stdin and draws on stdout.
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ModePlain
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ModePlain
	}

	return ModeInteractive
}

// IsInteractive reports whether DetectMode returns ModeInteractive.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
