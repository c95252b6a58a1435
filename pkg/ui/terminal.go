package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Banner is printed when a console session starts
const Banner = `
 ╔═══════════════════════════════════════╗
 ║  ████████╗███╗   ███╗██╗   ██╗        ║
 ║  ╚══██╔══╝████╗ ████║██║   ██║        ║
 ║     ██║   ██╔████╔██║██║   ██║        ║
 ║     ██║   ██║╚██╔╝██║██║   ██║        ║
 ║     ██║   ██║ ╚═╝ ██║╚██████╔╝        ║
 ║     ╚═╝   ╚═╝     ╚═╝ ╚═════╝         ║
 ║      bulk unfollow for X              ║
 ╚═══════════════════════════════════════╝`

// Console palette. Styles fall back to plain text when stdout is not a
// terminal
var (
	Cyan    = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("6")))
	Yellow  = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("3")))
	Red     = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("1")))
	Green   = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("2")))
	Magenta = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true))
	Dim     = paint(lipgloss.NewStyle().Faint(true))
)

func paint(style lipgloss.Style) func(string) string {
	return func(s string) string { return style.Render(s) }
}

// detail joins msg with an optional first argument as "msg: arg"
func detail(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, args[0])
}

// PrintError writes msg (and an optional cause) in red
func PrintError(msg string, args ...interface{}) { fmt.Println(Red(detail(msg, args))) }

// PrintWarning writes msg (and an optional cause) in yellow
func PrintWarning(msg string, args ...interface{}) { fmt.Println(Yellow(detail(msg, args))) }

func PrintSuccess(msg string)   { fmt.Println(Green(msg)) }
func PrintHighlight(msg string) { fmt.Println(Magenta(msg)) }

// PrintInfo writes a "label: value" pair
func PrintInfo(label, value string) { fmt.Printf("%s: %s\n", Cyan(label), Yellow(value)) }
