package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
)

// timeLayout renders timestamps in run listings.
const timeLayout = "2006-01-02 15:04"

// newTable returns a rounded table writer rendering to w.
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// newTree returns a list writer drawing a connected tree.
func newTree() list.Writer {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)
	return l
}

// confirm asks "<action>? [Y/n]" and reads one line from in. An empty answer,
// "y" or "yes" confirms; anything else, including EOF, declines.
func confirm(in io.Reader, out io.Writer, action string) bool {
	fmt.Fprintf(out, "\n%s? [Y/n]: ", action)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// estimateText renders the expected wall-clock time of count series at two
// paced calls each.
func estimateText(count int, interval time.Duration) string {
	seconds := float64(count) * 2 * interval.Seconds()
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.0f seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1f minutes", seconds/60)
	default:
		return fmt.Sprintf("%.1f hours", seconds/3600)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
