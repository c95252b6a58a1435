package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleSurface prints status changes and log lines to a terminal
// without taking over the screen
type ConsoleSurface struct {
	mu    sync.Mutex
	out   io.Writer
	total int
	shown bool
}

// NewConsoleSurface writes to stdout
func NewConsoleSurface() *ConsoleSurface {
	return NewConsoleSurfaceTo(os.Stdout)
}

// NewConsoleSurfaceTo writes to w
func NewConsoleSurfaceTo(w io.Writer) *ConsoleSurface {
	return &ConsoleSurface{out: w}
}

func (c *ConsoleSurface) Show() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shown {
		return
	}
	c.shown = true
	fmt.Fprintln(c.out, Cyan(Banner))
}

func (c *ConsoleSurface) SetStatus(text string, tone Tone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", Dim(time.Now().Format("15:04:05")), ToneColor(tone)("["+text+"]"))
}

func (c *ConsoleSurface) Log(kind EntryKind, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s %s\n", Dim(time.Now().Format("15:04:05")), KindSymbol(kind), KindColor(kind)(message))
}

func (c *ConsoleSurface) SetTotal(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if total == c.total {
		return
	}
	c.total = total
	fmt.Fprintf(c.out, "%s %s\n", Dim(time.Now().Format("15:04:05")), Magenta(fmt.Sprintf("Total Unfollowed: %d", total)))
}

// ToneColor returns the color function for a status tone
func ToneColor(tone Tone) func(string) string {
	switch tone {
	case ToneActive, ToneSuccess:
		return Green
	case ToneWarning:
		return Yellow
	case ToneStopped:
		return Red
	default:
		return Cyan
	}
}

// KindColor returns the color function for a log entry kind
func KindColor(kind EntryKind) func(string) string {
	switch kind {
	case EntrySuccess:
		return Green
	case EntryWarning:
		return Yellow
	case EntrySkipped:
		return Dim
	case EntryError:
		return Red
	default:
		return func(s string) string { return s }
	}
}

// KindSymbol returns the marker printed in front of a log entry
func KindSymbol(kind EntryKind) string {
	switch kind {
	case EntrySuccess:
		return Green("✓")
	case EntryWarning:
		return Yellow("!")
	case EntrySkipped:
		return Dim("-")
	case EntryError:
		return Red("✗")
	default:
		return Cyan("•")
	}
}
