package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase is what the user must type to approve a checked move
const ConfirmPhrase = "I AGREE"

// ConfirmCheckedMove displays a warning box describing a pending gate move
// and prompts the user to type the confirmation phrase. Returns true if
// the user confirmed. This is the explicit confirmation step performed by
// the caller before the safety-checked commit; the commit itself never
// prompts.
func ConfirmCheckedMove(title string, warnings []string) bool {
	return Confirm(os.Stdin, os.Stdout, title, warnings)
}

// Confirm renders the warning box to out and reads the confirmation
// phrase from in. Split out from ConfirmCheckedMove so the confirmation
// step is testable without a terminal.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string) bool {
	width := GetTerminalWidth()

	var lines []string

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   ⚠  WARNING  ─  %s", title))
	lines = append(lines, "", titleLine, "")

	for _, warning := range warnings {
		bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	content := strings.Join(lines, "\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(content)

	fmt.Fprintln(out, box)
	fmt.Fprintln(out)

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	fmt.Fprint(out, promptStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", ConfirmPhrase)))

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintln(out)
		return false
	}

	input = strings.TrimSpace(input)
	if input == ConfirmPhrase {
		fmt.Fprintln(out)
		return true
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, MutedStyle.Render("  Operation cancelled."))
	fmt.Fprintln(out)
	return false
}
