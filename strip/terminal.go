package strip

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/ledhost/led"
)

const (
	cell            = "  "
	defaultPerRow   = 44
	cursorUpFmt     = "\x1b[%dA"
	clearLineSuffix = "\x1b[K"
)

// Terminal renders the strip as rows of colored cells, redrawing in place
// on every flush. It stands in for hardware on development hosts.
type Terminal struct {
	*Buffer
	out      io.Writer
	renderer *lipgloss.Renderer
	perRow   int
	drawn    int
}

// NewTerminal renders a strip of count LEDs to out. When out is a terminal
// the row width follows its size.
func NewTerminal(out io.Writer, count int) *Terminal {
	perRow := defaultPerRow
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w >= len(cell) {
			perRow = w / len(cell)
		}
	}
	if perRow > count {
		perRow = count
	}
	return &Terminal{
		Buffer:   NewBuffer(count),
		out:      out,
		renderer: lipgloss.NewRenderer(out),
		perRow:   perRow,
	}
}

// Flush latches the staged frame and redraws it.
func (t *Terminal) Flush() error {
	if err := t.Buffer.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(t.out, t.Render())
	return err
}

// Render returns the escape sequence that redraws the latched frame over
// the previous one.
func (t *Terminal) Render() string {
	frame := t.Frame()
	var b strings.Builder
	if t.drawn > 0 {
		fmt.Fprintf(&b, cursorUpFmt, t.drawn)
	}

	rows := 0
	for i := 0; i < len(frame); i += t.perRow {
		end := min(i+t.perRow, len(frame))
		b.WriteByte('\r')
		for _, c := range frame[i:end] {
			b.WriteString(t.cell(c))
		}
		b.WriteString(clearLineSuffix)
		b.WriteByte('\n')
		rows++
	}
	t.drawn = rows
	return b.String()
}

func (t *Terminal) cell(c led.Color) string {
	return t.renderer.NewStyle().Background(lipgloss.Color(c.Hex())).Render(cell)
}
