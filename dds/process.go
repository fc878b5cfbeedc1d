package dds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lox/redeal/bridge"
)

// Process is a Solver backed by a long-running engine subprocess speaking a
// line protocol on stdin/stdout. Each request is one line
//
//	<id> <op> <strain> <seat> <pbn>
//
// where op is "tricks", "leads" or "valid". The engine answers with
//
//	<id> ok <n>                  for tricks
//	<id> ok <card>=<n> ...       for leads
//	<id> ok <card> ...           for valid
//	<id> err <code>              on a fault
//
// Calls are serialised; run several processes for parallel solving.
type Process struct {
	ID      string
	Command string
	Args    []string

	logger *log.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	done   chan struct{}
	broken error
}

// NewProcess creates a solver for the given engine command. Call Start
// before use.
func NewProcess(command string, args []string, logger *log.Logger) *Process {
	id := uuid.NewString()[:8]
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Process{
		ID:      id,
		Command: command,
		Args:    args,
		logger:  logger.WithPrefix("dds").With("process_id", id),
	}
}

// Start launches the engine. The engine is killed when ctx is done.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return fmt.Errorf("process already started")
	}
	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Env = os.Environ()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrUnavailable, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr pipe: %v", ErrUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = bufio.NewReader(stdout)
	p.done = make(chan struct{})
	p.logger.Debug("engine started", "command", p.Command, "args", p.Args)

	go p.readStderr(stderr)
	go p.monitor()
	return nil
}

func (p *Process) readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.logger.Warn("engine", "stderr", scanner.Text())
	}
}

func (p *Process) monitor() {
	defer close(p.done)
	if err := p.cmd.Wait(); err != nil {
		p.logger.Debug("engine exited", "error", err)
		return
	}
	p.logger.Debug("engine exited")
}

// Close stops the engine, closing its input first and killing it if it
// does not exit promptly.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return nil
	}
	_ = p.stdin.Close()
	select {
	case <-p.done:
		return nil
	case <-time.After(time.Second):
	}
	p.logger.Debug("force killing engine")
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill engine: %w", err)
	}
	<-p.done
	return nil
}

type reply struct {
	line string
	err  error
}

// call sends one request and returns the fields after "ok".
func (p *Process) call(ctx context.Context, op string, deal bridge.Deal, strain bridge.Strain, seat bridge.Seat) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil, fmt.Errorf("%w: not started", ErrUnavailable)
	}
	if p.broken != nil {
		return nil, p.broken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()[:8]
	req := fmt.Sprintf("%s %s %s %s %s\n", id, op, strain, seat, deal.PBN())
	if _, err := io.WriteString(p.stdin, req); err != nil {
		p.broken = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return nil, p.broken
	}

	ch := make(chan reply, 1)
	go func() {
		line, err := p.stdout.ReadString('\n')
		ch <- reply{line: line, err: err}
	}()

	var r reply
	select {
	case <-ctx.Done():
		// The engine is mid-request and out of step with us.
		p.broken = fmt.Errorf("%w: request abandoned", ErrUnavailable)
		_ = p.cmd.Process.Kill()
		return nil, ctx.Err()
	case r = <-ch:
	}
	if r.err != nil {
		p.broken = fmt.Errorf("%w: %v", ErrUnavailable, r.err)
		return nil, p.broken
	}

	fields := strings.Fields(r.line)
	if len(fields) < 2 || fields[0] != id {
		p.broken = fmt.Errorf("%w: unexpected reply %q", ErrUnavailable, strings.TrimSpace(r.line))
		return nil, p.broken
	}
	switch fields[1] {
	case "ok":
		return fields[2:], nil
	case "err":
		code := FaultUnknown
		if len(fields) > 2 {
			if n, err := strconv.Atoi(fields[2]); err == nil {
				code = Fault(n)
			}
		}
		return nil, &Error{Op: op, Code: code}
	default:
		p.broken = fmt.Errorf("%w: unexpected reply %q", ErrUnavailable, strings.TrimSpace(r.line))
		return nil, p.broken
	}
}

// Tricks returns declarer's double-dummy tricks.
func (p *Process) Tricks(ctx context.Context, deal bridge.Deal, strain bridge.Strain, declarer bridge.Seat) (int, error) {
	fields, err := p.call(ctx, "tricks", deal, strain, declarer)
	if err != nil {
		return 0, err
	}
	if len(fields) != 1 {
		return 0, fmt.Errorf("dds tricks: malformed reply %v", fields)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 || n > bridge.PerSuit {
		return 0, fmt.Errorf("dds tricks: bad trick count %q", fields[0])
	}
	return n, nil
}

// AllLeads returns declarer's tricks after each of leader's distinct
// opening leads.
func (p *Process) AllLeads(ctx context.Context, deal bridge.Deal, strain bridge.Strain, leader bridge.Seat) (map[bridge.Card]int, error) {
	fields, err := p.call(ctx, "leads", deal, strain, leader)
	if err != nil {
		return nil, err
	}
	out := make(map[bridge.Card]int, len(fields))
	for _, f := range fields {
		cardStr, nStr, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("dds leads: malformed entry %q", f)
		}
		card, err := bridge.ParseCard(cardStr)
		if err != nil {
			return nil, fmt.Errorf("dds leads: %w", err)
		}
		n, err := strconv.Atoi(nStr)
		if err != nil || n < 0 || n > bridge.PerSuit {
			return nil, fmt.Errorf("dds leads: bad trick count in %q", f)
		}
		out[card] = n
	}
	return out, nil
}

// ValidLeads returns leader's distinct legal opening leads.
func (p *Process) ValidLeads(ctx context.Context, deal bridge.Deal, strain bridge.Strain, leader bridge.Seat) ([]bridge.Card, error) {
	fields, err := p.call(ctx, "valid", deal, strain, leader)
	if err != nil {
		return nil, err
	}
	cards := make([]bridge.Card, 0, len(fields))
	for _, f := range fields {
		card, err := bridge.ParseCard(f)
		if err != nil {
			return nil, fmt.Errorf("dds valid: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}
