package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/lox/redeal/bridge"
)

// ShapeCmd lists the suit-length tuples a shape expression accepts, with
// the chance of a random hand having each.
type ShapeCmd struct {
	Expr string `arg:"" help:"Shape expression, e.g. 'balanced - (4333)' or '5xxx + x5xx'"`
}

func (c *ShapeCmd) Run(g *Globals) error {
	shape, err := bridge.ParseShapeExpr(c.Expr)
	if err != nil {
		return err
	}
	tuples := shape.Tuples()

	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "S\tH\tD\tC\tProbability\t")
	total := 0.0
	for _, t := range tuples {
		p := shapeProbability(t)
		total += p
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%.4f%%\t\n", t[0], t[1], t[2], t[3], 100*p)
	}
	tw.Flush()

	fmt.Fprintf(g.Out, "%s %s\n",
		headerStyle.Render(strconv.Itoa(len(tuples))+" shapes,"),
		valueStyle.Render(fmt.Sprintf("%.4f%% of hands", 100*total)))
	return nil
}

// shapeProbability returns the chance that a random 13-card hand has
// exactly the given suit lengths.
func shapeProbability(l [bridge.NumSuits]int) float64 {
	p := 1.0
	for _, n := range l {
		p *= binomial(bridge.PerSuit, n)
	}
	return p / binomial(bridge.DeckSize, bridge.PerSuit)
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}
