package bridge

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrShapeSyntax is returned for malformed shape patterns and expressions.
var ErrShapeSyntax = errors.New("invalid shape pattern")

const (
	lengthBase     = PerSuit + 1
	shapeTableSize = lengthBase * lengthBase * lengthBase * lengthBase
)

// Pattern tokens other than literal lengths.
const (
	tokJoker = -1 - iota
	tokOpen
	tokClose
)

// Shape is an immutable set of suit-length tuples, stored as a dense table
// indexed by ((s*14+h)*14+d)*14+c. Only tuples summing to 13 are ever set.
//
// MinLengths and MaxLengths are sound per-suit bounds over the accepted
// tuples. They are exact for shapes built from a pattern or a condition and
// may be loose for shapes built with Union or Minus.
type Shape struct {
	table [shapeTableSize]bool
	minLs [NumSuits]int
	maxLs [NumSuits]int

	mu  sync.Mutex
	ops map[shapeOp]*Shape
}

type shapeOp struct {
	op    byte
	other *Shape
}

var patternCache = struct {
	sync.Mutex
	shapes map[string]*Shape
}{shapes: make(map[string]*Shape)}

// Balanced accepts 4-3-3-3, 4-4-3-2 and 5-3-3-2 in any suit order.
var Balanced = MustShape("(4333)").Union(MustShape("(4432)")).Union(MustShape("(5332)"))

// Semibalanced adds 5-4-2-2 and 6-3-2-2 to Balanced.
var Semibalanced = Balanced.Union(MustShape("(5422)")).Union(MustShape("(6322)"))

func newShape() *Shape {
	s := &Shape{}
	for i := range s.minLs {
		s.minLs[i] = PerSuit
	}
	return s
}

func shapeIndex(l [NumSuits]int) int {
	return ((l[0]*lengthBase+l[1])*lengthBase+l[2])*lengthBase + l[3]
}

func (s *Shape) set(l [NumSuits]int) {
	s.table[shapeIndex(l)] = true
	for i, n := range l {
		s.minLs[i] = min(s.minLs[i], n)
		s.maxLs[i] = max(s.maxLs[i], n)
	}
}

// NewShape builds a shape from a pattern of four suit-length tokens in suit
// order. A token is a digit, one of t/j/q/k for 10-13, the joker x (any
// length that makes the total 13), or a parenthesised group whose lengths
// may appear in any order. "(4333)" is any 4-3-3-3 hand, "5xxx" any hand
// with exactly five spades. Shapes are cached by pattern.
func NewShape(pattern string) (*Shape, error) {
	key := strings.ToLower(pattern)

	patternCache.Lock()
	cached, ok := patternCache.shapes[key]
	patternCache.Unlock()
	if ok {
		return cached, nil
	}

	tokens, err := tokenizePattern(key)
	if err != nil {
		return nil, err
	}
	s := newShape()
	if err := s.insert(tokens, nil); err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: %q matches no 13-card shape", ErrShapeSyntax, pattern)
	}

	patternCache.Lock()
	if existing, ok := patternCache.shapes[key]; ok {
		s = existing
	} else {
		patternCache.shapes[key] = s
	}
	patternCache.Unlock()
	return s, nil
}

// MustShape builds a shape and panics on error (for package constants).
func MustShape(pattern string) *Shape {
	s, err := NewShape(pattern)
	if err != nil {
		panic(fmt.Sprintf("failed to parse shape '%s': %v", pattern, err))
	}
	return s
}

// ShapeFromCond builds the shape of all tuples summing to 13 for which cond
// returns true.
func ShapeFromCond(cond func(s, h, d, c int) bool) *Shape {
	shape := newShape()
	forEachTuple(func(l [NumSuits]int) {
		if cond(l[0], l[1], l[2], l[3]) {
			shape.set(l)
		}
	})
	return shape
}

func forEachTuple(fn func([NumSuits]int)) {
	for s := 0; s <= PerSuit; s++ {
		for h := 0; s+h <= PerSuit; h++ {
			for d := 0; s+h+d <= PerSuit; d++ {
				fn([NumSuits]int{s, h, d, PerSuit - s - h - d})
			}
		}
	}
}

func tokenizePattern(p string) ([]int, error) {
	tokens := make([]int, 0, len(p))
	depth := 0
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c >= '0' && c <= '9':
			tokens = append(tokens, int(c-'0'))
		case c == 't':
			tokens = append(tokens, 10)
		case c == 'j':
			tokens = append(tokens, 11)
		case c == 'q':
			tokens = append(tokens, 12)
		case c == 'k':
			tokens = append(tokens, 13)
		case c == 'x':
			tokens = append(tokens, tokJoker)
		case c == '(':
			if depth > 0 {
				return nil, fmt.Errorf("%w: nested parentheses in %q", ErrShapeSyntax, p)
			}
			depth++
			tokens = append(tokens, tokOpen)
		case c == ')':
			if depth == 0 {
				return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrShapeSyntax, p)
			}
			depth--
			tokens = append(tokens, tokClose)
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrShapeSyntax, c, p)
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrShapeSyntax, p)
	}
	return tokens, nil
}

// insert expands groups into every permutation of their tokens.
func (s *Shape) insert(tokens, acc []int) error {
	if len(tokens) == 0 {
		return s.insertResolved(acc)
	}
	var head, rest []int
	if tokens[0] == tokOpen {
		closing := -1
		for i, t := range tokens {
			if t == tokClose {
				closing = i
				break
			}
		}
		if closing < 0 {
			return fmt.Errorf("%w: unbalanced parentheses", ErrShapeSyntax)
		}
		head, rest = tokens[1:closing], tokens[closing+1:]
	} else {
		head, rest = tokens[:1], tokens[1:]
	}
	return permute(head, func(perm []int) error {
		next := make([]int, 0, len(acc)+len(perm))
		next = append(append(next, acc...), perm...)
		return s.insert(rest, next)
	})
}

// insertResolved sets every tuple matching a group-free token list.
func (s *Shape) insertResolved(lengths []int) error {
	if len(lengths) != NumSuits {
		return fmt.Errorf("%w: %d suit lengths, want %d", ErrShapeSyntax, len(lengths), NumSuits)
	}
	var l [NumSuits]int
	preset, jokers := 0, 0
	for i, n := range lengths {
		l[i] = n
		if n == tokJoker {
			jokers++
		} else {
			preset += n
		}
	}
	if jokers == 0 {
		if preset == PerSuit {
			s.set(l)
		}
		return nil
	}
	if preset > PerSuit {
		return fmt.Errorf("%w: explicit lengths sum to %d", ErrShapeSyntax, preset)
	}
	s.fillJokers(l, 0, PerSuit-preset)
	return nil
}

func (s *Shape) fillJokers(l [NumSuits]int, from, remaining int) {
	j := from
	for j < NumSuits && l[j] != tokJoker {
		j++
	}
	if j == NumSuits {
		if remaining == 0 {
			s.set(l)
		}
		return
	}
	for n := 0; n <= remaining; n++ {
		l[j] = n
		s.fillJokers(l, j+1, remaining-n)
	}
}

func permute(xs []int, fn func([]int) error) error {
	if len(xs) <= 1 {
		return fn(xs)
	}
	perm := make([]int, len(xs))
	used := make([]bool, len(xs))
	var rec func(depth int) error
	rec = func(depth int) error {
		if depth == len(xs) {
			return fn(perm)
		}
		for i, x := range xs {
			if used[i] {
				continue
			}
			used[i] = true
			perm[depth] = x
			if err := rec(depth + 1); err != nil {
				return err
			}
			used[i] = false
		}
		return nil
	}
	return rec(0)
}

// Contains reports whether the suit-length tuple is accepted.
func (s *Shape) Contains(lengths [NumSuits]int) bool {
	for _, n := range lengths {
		if n < 0 || n > PerSuit {
			return false
		}
	}
	return s.table[shapeIndex(lengths)]
}

// Accepts reports whether the hand's shape is accepted.
func (s *Shape) Accepts(h Hand) bool { return s.table[shapeIndex(h.Shape())] }

// MinLengths returns a lower bound on each suit's length.
func (s *Shape) MinLengths() [NumSuits]int { return s.minLs }

// MaxLengths returns an upper bound on each suit's length.
func (s *Shape) MaxLengths() [NumSuits]int { return s.maxLs }

// Len returns the number of accepted tuples.
func (s *Shape) Len() int {
	n := 0
	forEachTuple(func(l [NumSuits]int) {
		if s.table[shapeIndex(l)] {
			n++
		}
	})
	return n
}

// Tuples returns the accepted tuples in lexicographic order.
func (s *Shape) Tuples() [][NumSuits]int {
	var out [][NumSuits]int
	forEachTuple(func(l [NumSuits]int) {
		if s.table[shapeIndex(l)] {
			out = append(out, l)
		}
	})
	return out
}

// Union returns the shape accepting tuples accepted by s or other. Bounds
// are the per-suit min of minimums and max of maximums. Results are cached
// per operand, so repeated calls return the same *Shape.
func (s *Shape) Union(other *Shape) *Shape {
	return s.cached('+', other, func() *Shape {
		r := &Shape{}
		for i := range r.table {
			r.table[i] = s.table[i] || other.table[i]
		}
		for i := range r.minLs {
			r.minLs[i] = min(s.minLs[i], other.minLs[i])
			r.maxLs[i] = max(s.maxLs[i], other.maxLs[i])
		}
		return r
	})
}

// Minus returns the shape accepting tuples accepted by s but not other. The
// bounds of s are kept unchanged. Results are cached like Union.
func (s *Shape) Minus(other *Shape) *Shape {
	return s.cached('-', other, func() *Shape {
		r := &Shape{minLs: s.minLs, maxLs: s.maxLs}
		for i := range r.table {
			r.table[i] = s.table[i] && !other.table[i]
		}
		return r
	})
}

func (s *Shape) cached(op byte, other *Shape, build func() *Shape) *Shape {
	key := shapeOp{op: op, other: other}
	s.mu.Lock()
	r, ok := s.ops[key]
	s.mu.Unlock()
	if ok {
		return r
	}

	r = build()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.ops[key]; ok {
		return existing
	}
	if s.ops == nil {
		s.ops = make(map[shapeOp]*Shape)
	}
	s.ops[key] = r
	return r
}

var namedShapes = map[string]*Shape{
	"balanced":     Balanced,
	"semibalanced": Semibalanced,
}

// ParseShapeExpr parses a left-to-right composition of patterns and the
// names "balanced" and "semibalanced" joined by + (union) and - (minus),
// e.g. "balanced - (4333) + 5422".
func ParseShapeExpr(expr string) (*Shape, error) {
	var (
		result *Shape
		op     byte = '+'
		start       = 0
	)
	apply := func(term string) error {
		term = strings.ToLower(strings.Join(strings.Fields(term), ""))
		if term == "" {
			return fmt.Errorf("%w: empty term in %q", ErrShapeSyntax, expr)
		}
		s, ok := namedShapes[term]
		if !ok {
			var err error
			if s, err = NewShape(term); err != nil {
				return err
			}
		}
		switch {
		case result == nil && op == '-':
			return fmt.Errorf("%w: expression %q starts with '-'", ErrShapeSyntax, expr)
		case result == nil:
			result = s
		case op == '+':
			result = result.Union(s)
		default:
			result = result.Minus(s)
		}
		return nil
	}
	for i := 0; i < len(expr); i++ {
		if c := expr[i]; c == '+' || c == '-' {
			if i == 0 && c == '-' {
				return nil, fmt.Errorf("%w: expression %q starts with '-'", ErrShapeSyntax, expr)
			}
			if err := apply(expr[start:i]); err != nil {
				return nil, err
			}
			op, start = c, i+1
		}
	}
	if err := apply(expr[start:]); err != nil {
		return nil, err
	}
	return result, nil
}
