// Package printer renders operator-facing CLI output.
package printer

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a green checkmarked message.
func Success(format string, a ...any) {
	green.Printf("✓ "+format+"\n", a...)
}

// Info prints a plain informational message.
func Info(format string, a ...any) {
	fmt.Printf(format+"\n", a...)
}

// Warning prints a yellow diagnostic message. Used for soft-limit
// conditions that proceed anyway, like project counters past 9.
func Warning(format string, a ...any) {
	yellow.Printf("! "+format+"\n", a...)
}

// Errorf prints a red message to stderr and returns it as an error.
func Errorf(format string, a ...any) error {
	red.Fprintf(os.Stderr, "%s\n", fmt.Sprintf(format, a...))
	return fmt.Errorf(format, a...)
}

// Heading prints a cyan section heading, e.g. a page banner.
func Heading(format string, a ...any) {
	cyan.Printf(format+"\n", a...)
}
