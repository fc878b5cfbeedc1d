package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/dds"
	"github.com/lox/redeal/generate"
	"github.com/lox/redeal/internal/archive"
)

func TestMain(m *testing.M) {
	// Plain output regardless of the terminal running the tests.
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// TestHelperProcess is a fake double-dummy engine: declarer always takes
// nine tricks, or eight after a heart lead.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		f := strings.Fields(scanner.Text())
		id, op, seatStr := f[0], f[1], f[3]
		deal, err := bridge.ParsePBN(strings.Join(f[4:], " "))
		if err != nil {
			fmt.Printf("%s err -4\n", id)
			continue
		}
		seat, _ := bridge.ParseSeat(seatStr)
		switch op {
		case "tricks":
			fmt.Printf("%s ok 9\n", id)
		case "leads", "valid":
			var parts []string
			h := deal.Hand(seat)
			for _, suit := range bridge.Suits {
				for _, run := range dds.Runs(h, suit) {
					n := 9
					if suit == bridge.Hearts {
						n = 8
					}
					if op == "leads" {
						parts = append(parts, fmt.Sprintf("%s=%d", run[0], n))
					} else {
						parts = append(parts, run[0].String())
					}
				}
			}
			fmt.Printf("%s ok %s\n", id, strings.Join(parts, " "))
		default:
			fmt.Printf("%s err -1\n", id)
		}
	}
	os.Exit(0)
}

// run parses args as the redeal command line and runs the selected
// command, returning its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("redeal"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = kctx.Run(&Globals{
		Ctx:    context.Background(),
		Stop:   new(atomic.Bool),
		Out:    &out,
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
		Clock:  quartz.NewMock(t),
	})
	return out.String(), err
}

func fakeEngineArgs(t *testing.T) []string {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	return []string{"--solver", os.Args[0], "--solver-args=-test.run=TestHelperProcess"}
}

func TestDealPBN(t *testing.T) {
	t.Parallel()
	out, err := run(t, "deal", "-n", "3", "--seed", "42", "-f", "pbn", "-N", "AK32 KQ2 A32 432")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines[:3] {
		deal, err := bridge.ParsePBN(line)
		require.NoError(t, err)
		require.NoError(t, deal.Validate())
		assert.Equal(t, "AK32 KQ2 A32 432", deal.North().String())
	}
	assert.Contains(t, lines[3], "3 deals in 3 tries")
}

func TestDealSeedReproducible(t *testing.T) {
	t.Parallel()
	first, err := run(t, "deal", "-n", "5", "--seed", "7", "-f", "short")
	require.NoError(t, err)
	second, err := run(t, "deal", "-n", "5", "--seed", "7", "-f", "short")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDealSeedZero(t *testing.T) {
	t.Parallel()
	first, err := run(t, "deal", "-n", "5", "--seed", "0", "-f", "short")
	require.NoError(t, err)
	second, err := run(t, "deal", "-n", "5", "--seed", "0", "-f", "short")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDealSmartStackStats(t *testing.T) {
	t.Parallel()
	out, err := run(t, "deal", "-n", "20", "--seed", "3", "-f", "pbn",
		"--stack", "S:balanced:hcp:15-17", "--stats")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	for _, line := range lines[:20] {
		deal, err := bridge.ParsePBN(line)
		require.NoError(t, err)
		south := deal.South()
		assert.True(t, bridge.Balanced.Accepts(south))
		assert.True(t, bridge.Between(15, 17).Contains(south.HCP()))
	}
	assert.Contains(t, out, "HCP")
	assert.Contains(t, out, "95% CI")
}

func TestDealDiagram(t *testing.T) {
	t.Parallel()
	out, err := run(t, "deal", "-n", "2", "--seed", "1", "--show", "NS")
	require.NoError(t, err)
	assert.Contains(t, out, "Deal 1")
	assert.Contains(t, out, "Deal 2")
}

func TestDealRunFileAndArchive(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "deals.toml")
	runFile := filepath.Join(dir, "run.hcl")
	require.NoError(t, os.WriteFile(runFile, []byte(fmt.Sprintf(`
deals = 4
seed  = 99
archive = %q

accept "N" {
  hcp = [12, 40]
}
`, path)), 0o644))

	out, err := run(t, "deal", "-c", runFile, "-f", "pbn")
	require.NoError(t, err)
	assert.Contains(t, out, "4 deals in")

	a, err := archive.Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(99), a.Seed)
	assert.Equal(t, 4, a.Found)
	assert.GreaterOrEqual(t, a.Tries, 4)
	deals, err := a.Parse()
	require.NoError(t, err)
	for i, deal := range deals {
		assert.GreaterOrEqual(t, deal.North().HCP(), 12)
		assert.Contains(t, out, deal.PBN(), "deal %d", i+1)
	}
}

func TestDealExhausted(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	runFile := filepath.Join(dir, "run.hcl")
	require.NoError(t, os.WriteFile(runFile, []byte(`
accept "N" {
  spades = [13, 13]
}
`), 0o644))
	out, err := run(t, "deal", "-c", runFile, "-n", "1", "--max", "50")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "50 tries")
	assert.Contains(t, out, "0 deals in 50 tries")
}

func TestDealErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad hand", args: []string{"deal", "-N", "AK32 KQ2"}},
		{name: "duplicate card", args: []string{"deal", "-N", "A - - -", "-S", "A - - -"}},
		{name: "seat given twice", args: []string{"deal", "-N", "A - - -", "--stack", "N:balanced:hcp:15-17"}},
		{name: "bad stack flag", args: []string{"deal", "--stack", "N:balanced:15-17"}},
		{name: "bad stack range", args: []string{"deal", "--stack", "N:balanced:hcp:15"}},
		{name: "empty stack", args: []string{"deal", "--stack", "N:(4333):hcp:38-40"}},
		{name: "bad show", args: []string{"deal", "--show", "NQ"}},
		{name: "bad format", args: []string{"deal", "-f", "html"}},
		{name: "solve without solver", args: []string{"deal", "--solve", "3NS"}},
		{name: "bad solve contract", args: []string{"deal", "--solve", "9NS", "--solver", "dds"}},
		{name: "missing run file", args: []string{"deal", "-c", "does-not-exist.hcl"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := run(t, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestDealSolve(t *testing.T) {
	args := append([]string{"deal", "-n", "4", "--seed", "5", "-f", "pbn", "--solve", "3NS", "--workers", "2"}, fakeEngineArgs(t)...)
	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "3N by South")
	assert.Contains(t, out, "9.00 tricks")
	assert.Contains(t, out, "makes 100.0%")
	assert.Contains(t, out, "+400.0")
}

func TestShape(t *testing.T) {
	t.Parallel()
	out, err := run(t, "shape", "(4333)")
	require.NoError(t, err)
	assert.Contains(t, out, "4 shapes,")
	// 4-3-3-3 in some order is dealt 10.54% of the time.
	assert.Contains(t, out, "10.5")

	out, err = run(t, "shape", "xxxx")
	require.NoError(t, err)
	assert.Contains(t, out, "100.0000% of hands")

	_, err = run(t, "shape", "(4333")
	assert.ErrorIs(t, err, bridge.ErrShapeSyntax)
}

func TestShapeProbability(t *testing.T) {
	t.Parallel()
	total := 0.0
	for _, l := range bridge.MustShape("xxxx").Tuples() {
		total += shapeProbability(l)
	}
	assert.InDelta(t, 1, total, 1e-9)
	assert.InDelta(t, 0.01796, shapeProbability([bridge.NumSuits]int{4, 4, 3, 2}), 1e-5)
}

func TestScore(t *testing.T) {
	t.Parallel()
	out, err := run(t, "score", "3NS", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "3N by South")
	assert.Contains(t, out, "+400")

	out, err = run(t, "score", "2SXW", "6", "--vul")
	require.NoError(t, err)
	assert.Contains(t, out, "-500")

	out, err = run(t, "score", "--imps=620,170")
	require.NoError(t, err)
	assert.Equal(t, "+10 IMPs\n", out)

	_, err = run(t, "score", "--imps=620")
	assert.Error(t, err)
	_, err = run(t, "score")
	assert.Error(t, err)
	_, err = run(t, "score", "3NS", "14")
	assert.Error(t, err)
}

func TestLead(t *testing.T) {
	args := append([]string{"lead", "--contract", "3NS", "--hand", "K32 QJ4 T987 652", "-n", "6", "--seed", "2"}, fakeEngineArgs(t)...)
	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "West on lead against 3N (6 deals)")
	assert.Contains(t, out, "HQ")
	assert.Contains(t, out, "+10.00")
}

func TestLeadErrors(t *testing.T) {
	t.Parallel()
	_, err := run(t, "lead", "--solver", "dds")
	assert.Error(t, err, "no contract")

	_, err = run(t, "lead", "--contract", "3NS")
	assert.ErrorIs(t, err, errNoSolver)

	_, err = run(t, "lead", "--contract", "3NS", "--hand", "K32 QJ4 T987 652", "--solver", filepath.Join(t.TempDir(), "no-such-engine"))
	assert.ErrorIs(t, err, dds.ErrUnavailable)
}

func TestLeadNeedsLeaderHand(t *testing.T) {
	t.Parallel()
	_, err := run(t, "lead", "--contract", "3NS", "--solver", filepath.Join(t.TempDir(), "no-such-engine"))
	require.ErrorIs(t, err, generate.ErrLeaderNotPredealt)
	assert.Contains(t, err.Error(), "predeal West")

	_, err = run(t, "lead", "--contract", "3NS", "--hand", "K32 QJ4 - -", "--solver", filepath.Join(t.TempDir(), "no-such-engine"))
	assert.ErrorIs(t, err, generate.ErrLeaderNotPredealt)
}
