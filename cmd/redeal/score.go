package main

import (
	"fmt"

	"github.com/lox/redeal/bridge"
)

// ScoreCmd prints declarer's score for a contract and trick count, or with
// --imps the IMP swing between two scores.
type ScoreCmd struct {
	Contract string `arg:"" optional:"" help:"Contract and declarer, e.g. 3NS or 4HXW"`
	Tricks   int    `arg:"" optional:"" help:"Tricks taken by declarer"`
	Vul      bool   `help:"Declarer is vulnerable"`
	IMPs     []int  `name:"imps" help:"Compare two scores in IMPs, e.g. --imps 620,170"`
}

func (c *ScoreCmd) Run(g *Globals) error {
	if len(c.IMPs) > 0 {
		if len(c.IMPs) != 2 {
			return fmt.Errorf("--imps takes two scores, got %d", len(c.IMPs))
		}
		fmt.Fprintf(g.Out, "%+d IMPs\n", bridge.IMPs(c.IMPs[0], c.IMPs[1]))
		return nil
	}
	if c.Contract == "" {
		return fmt.Errorf("a contract is required")
	}
	contract, declarer, err := bridge.ParseContractDeclarer(c.Contract, c.Vul)
	if err != nil {
		return err
	}
	if c.Tricks < 0 || c.Tricks > bridge.PerSuit {
		return fmt.Errorf("invalid trick count %d", c.Tricks)
	}

	vul := "non-vulnerable"
	if c.Vul {
		vul = "vulnerable"
	}
	fmt.Fprintf(g.Out, "%s by %s, %s, %d tricks: %s\n",
		headerStyle.Render(contract.String()), declarer.Name(), vul, c.Tricks,
		valueStyle.Render(fmt.Sprintf("%+d", contract.Score(c.Tricks))))
	return nil
}
