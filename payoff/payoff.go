// Package payoff compares strategies pairwise over many simulated deals.
package payoff

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/internal/statistics"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// DiffFunc turns the raw results of two strategies on one deal into the
// score of the first relative to the second.
type DiffFunc func(a, b float64) float64

// IMPs compares raw duplicate scores in IMPs.
func IMPs(a, b float64) float64 { return float64(bridge.IMPs(int(a), int(b))) }

// Matchpoints compares raw duplicate scores as 1, 0 or -1.
func Matchpoints(a, b float64) float64 { return float64(bridge.Matchpoints(int(a), int(b))) }

// Table is a payoff table: cell (i, j) accumulates diff(raw[i], raw[j])
// over every deal added.
type Table struct {
	entries []string
	index   map[string]int
	diff    DiffFunc
	cells   [][]statistics.Statistics
	deals   int
}

// New creates a table over the named strategies.
func New(entries []string, diff DiffFunc) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("payoff table needs at least one entry")
	}
	if diff == nil {
		return nil, fmt.Errorf("payoff table needs a diff function")
	}
	t := &Table{
		entries: append([]string(nil), entries...),
		index:   make(map[string]int, len(entries)),
		diff:    diff,
		cells:   make([][]statistics.Statistics, len(entries)),
	}
	for i, e := range entries {
		if _, dup := t.index[e]; dup {
			return nil, fmt.Errorf("duplicate payoff entry %q", e)
		}
		t.index[e] = i
		t.cells[i] = make([]statistics.Statistics, len(entries))
	}
	return t, nil
}

// Entries returns the strategy names in table order.
func (t *Table) Entries() []string { return t.entries }

// Deals returns the number of deals added.
func (t *Table) Deals() int { return t.deals }

// Add records one deal's raw result for every strategy.
func (t *Table) Add(raw map[string]float64) error {
	values := make([]float64, len(t.entries))
	for i, e := range t.entries {
		v, ok := raw[e]
		if !ok {
			return fmt.Errorf("payoff: no result for %q", e)
		}
		values[i] = v
	}
	for i := range t.entries {
		for j := range t.entries {
			t.cells[i][j].Add(t.diff(values[i], values[j]))
		}
	}
	t.deals++
	return nil
}

// Mean returns the average score of entry i against entry j.
func (t *Table) Mean(i, j int) float64 { return t.cells[i][j].Mean() }

// StdErr returns the standard error of Mean(i, j).
func (t *Table) StdErr(i, j int) float64 { return t.cells[i][j].StdError() }

// Report writes the table. Means more than one standard error above zero
// are shown in green, more than one below in red.
func (t *Table) Report(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "\t")
	for _, e := range t.entries {
		fmt.Fprintf(tw, "%s\t", headerStyle.Render(e))
	}
	fmt.Fprintln(tw)

	for i, e := range t.entries {
		fmt.Fprintf(tw, "%s\t", headerStyle.Render(e))
		for j := range t.entries {
			if i == j {
				fmt.Fprint(tw, "\t")
				continue
			}
			mean, se := t.Mean(i, j), t.StdErr(i, j)
			cell := fmt.Sprintf("%+.2f", mean)
			switch {
			case mean > se:
				cell = winStyle.Render(cell)
			case mean < -se:
				cell = lossStyle.Render(cell)
			}
			fmt.Fprintf(tw, "%s\t", cell)
		}
		fmt.Fprintln(tw)

		fmt.Fprint(tw, "\t")
		for j := range t.entries {
			if i == j {
				fmt.Fprint(tw, "\t")
				continue
			}
			fmt.Fprintf(tw, "(%.2f)\t", t.StdErr(i, j))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
