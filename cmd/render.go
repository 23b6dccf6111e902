package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/conneroisu/docmerge/internal/build"
)

var (
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	failureStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)
)

// printBuildResult writes a short, styled summary of a build to out.
func printBuildResult(out io.Writer, output string, result build.BuildResult) {
	if result.Error != nil && len(result.Files) == 0 {
		fmt.Fprintln(out, failureStyle.Render("Build failed: ")+result.Error.Error())
		return
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Built %d pages into %s in %s",
		len(result.Pages), output, result.Duration)))
	if len(result.Skipped) > 0 {
		fmt.Fprintln(out, warnStyle.Render("Skipped: "+strings.Join(result.Skipped, ", ")))
	}
}

// printHint writes a dimmed informational line.
func printHint(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf(format, args...)))
}
