package bridge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Doubling states of a contract.
const (
	Undoubled = 0
	Doubled   = 1
	Redoubled = 2
)

// Contract is a level, strain and doubling state, plus declarer's
// vulnerability.
type Contract struct {
	Level      int
	Strain     Strain
	Doubled    int
	Vulnerable bool
}

// NewContract validates and creates a contract.
func NewContract(level int, strain Strain, doubled int, vul bool) (Contract, error) {
	if level < 1 || level > 7 || strain > NoTrump || doubled < Undoubled || doubled > Redoubled {
		return Contract{}, fmt.Errorf("invalid contract: level %d, strain %s, doubled %d", level, strain, doubled)
	}
	return Contract{Level: level, Strain: strain, Doubled: doubled, Vulnerable: vul}, nil
}

// ParseContract parses contracts such as "3N", "4SX" or "7NTXX".
func ParseContract(s string, vul bool) (Contract, error) {
	body := strings.TrimRight(s, "xX")
	doubled := len(s) - len(body)
	if len(body) < 2 {
		return Contract{}, fmt.Errorf("invalid contract %q", s)
	}
	level, err := strconv.Atoi(body[:1])
	if err != nil {
		return Contract{}, fmt.Errorf("invalid contract level in %q", s)
	}
	strain, err := ParseStrain(body[1:])
	if err != nil {
		return Contract{}, fmt.Errorf("invalid contract %q: %w", s, err)
	}
	return NewContract(level, strain, doubled, vul)
}

// ParseContractDeclarer parses a contract followed by declarer's seat,
// e.g. "3NS" or "4HXW".
func ParseContractDeclarer(s string, vul bool) (Contract, Seat, error) {
	if len(s) < 3 {
		return Contract{}, 0, fmt.Errorf("invalid contract and declarer %q", s)
	}
	declarer, err := ParseSeat(s[len(s)-1:])
	if err != nil {
		return Contract{}, 0, err
	}
	c, err := ParseContract(s[:len(s)-1], vul)
	if err != nil {
		return Contract{}, 0, err
	}
	return c, declarer, nil
}

func (c Contract) String() string {
	return fmt.Sprintf("%d%s%s", c.Level, c.Strain, strings.Repeat("X", c.Doubled))
}

// Score returns declarer's duplicate score when taking the given number of
// tricks.
func (c Contract) Score(tricks int) int {
	target := c.Level + 6
	over := tricks - target
	if over >= 0 {
		perTrick := 30
		if c.Strain.IsMinor() {
			perTrick = 20
		}
		base := perTrick * c.Level
		if c.Strain == NoTrump {
			base += 10
		}
		bonus := 0
		switch c.Doubled {
		case Doubled:
			base *= 2
			bonus += 50
		case Redoubled:
			base *= 4
			bonus += 100
		}
		if base >= 100 {
			bonus += vulPick(c.Vulnerable, 300, 500)
		} else {
			bonus += 50
		}
		switch c.Level {
		case 6:
			bonus += vulPick(c.Vulnerable, 500, 750)
		case 7:
			bonus += vulPick(c.Vulnerable, 1000, 1500)
		}
		perOver := perTrick
		if c.Doubled != Undoubled {
			perOver = vulPick(c.Vulnerable, 100, 200) * c.Doubled
		}
		return base + over*perOver + bonus
	}

	if c.Doubled == Undoubled {
		return over * vulPick(c.Vulnerable, 50, 100)
	}
	var score int
	switch over {
	case -1:
		score = vulPick(c.Vulnerable, -100, -200)
	case -2:
		score = vulPick(c.Vulnerable, -300, -500)
	default:
		score = 300*over + vulPick(c.Vulnerable, 400, 100)
	}
	if c.Doubled == Redoubled {
		score *= 2
	}
	return score
}

func vulPick(vul bool, nonVul, vulnerable int) int {
	if vul {
		return vulnerable
	}
	return nonVul
}

var impTable = []int{15, 45, 85, 125, 165, 215, 265, 315, 365, 425, 495, 595,
	745, 895, 1095, 1295, 1495, 1745, 1995, 2245, 2495, 2995, 3495, 3995}

// IMPs converts the difference between two scores to international match
// points.
func IMPs(my, other int) int {
	diff := my - other
	if diff < 0 {
		diff = -diff
	}
	imps := sort.Search(len(impTable), func(i int) bool { return impTable[i] > diff })
	if my > other {
		return imps
	}
	return -imps
}

// Matchpoints compares two scores: 1 for a win, 0 for a tie, -1 for a loss.
func Matchpoints(my, other int) int {
	switch {
	case my > other:
		return 1
	case my < other:
		return -1
	default:
		return 0
	}
}
