// Package coords holds the ordered point list used for region boundaries &
// paths along with its bracketed text encoding, eg.
//
//	x: [0.0 0.4 0.5 0.0]
//	y: [0.0 0.0 1.0 1.0]
package coords

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

var (
	// ErrFormat is matched (via errors.Is) by every FormatError.
	ErrFormat = errors.New("malformed coordinate text")
)

// FormatError explains why coordinate text could not be parsed.
type FormatError struct {
	Axis   string // "x", "y" or "" when the problem spans both
	Pos    int    // token index, -1 if not applicable
	Reason string
}

// Error returns the error string.
func (e *FormatError) Error() string {
	switch {
	case e.Axis == "":
		return fmt.Sprintf("coords: %s", e.Reason)
	case e.Pos < 0:
		return fmt.Sprintf("coords: %s: %s", e.Axis, e.Reason)
	}
	return fmt.Sprintf("coords: %s[%d]: %s", e.Axis, e.Pos, e.Reason)
}

// Is reports whether the target is ErrFormat.
func (e *FormatError) Is(err error) bool {
	return err == ErrFormat
}

// entry is a point plus the text it was parsed from (if any)
type entry struct {
	pt   r2.Point
	text [2]string
}

// List is an ordered, mutable list of points. Order is significant: it
// defines the path (or ring) the points describe.
// The zero value is an empty list.
type List struct {
	entries []entry
}

// New returns a list holding the given points.
func New(pts ...r2.Point) *List {
	l := &List{entries: make([]entry, 0, len(pts))}
	for _, p := range pts {
		l.Append(p)
	}
	return l
}

// FromXY builds a list from parallel x & y slices, which must be the same length.
func FromXY(xs, ys []float64) (*List, error) {
	if len(xs) != len(ys) {
		return nil, &FormatError{Pos: -1, Reason: fmt.Sprintf("x has %d values but y has %d", len(xs), len(ys))}
	}
	l := &List{entries: make([]entry, 0, len(xs))}
	for i := range xs {
		l.Append(r2.Point{X: xs[i], Y: ys[i]})
	}
	return l, nil
}

// Len returns the number of points.
func (l *List) Len() int {
	return len(l.entries)
}

// At returns the i-th point.
func (l *List) At(i int) r2.Point {
	return l.entries[i].pt
}

// Points returns a copy of all points in order.
func (l *List) Points() []r2.Point {
	out := make([]r2.Point, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.pt
	}
	return out
}

// Append adds p to the end of the list.
func (l *List) Append(p r2.Point) {
	l.entries = append(l.entries, entry{pt: p})
}

// Insert places p at index i, shifting later points along.
func (l *List) Insert(i int, p r2.Point) {
	l.entries = append(l.entries, entry{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = entry{pt: p}
}

// Set replaces the i-th point.
func (l *List) Set(i int, p r2.Point) {
	l.entries[i] = entry{pt: p}
}

// Remove deletes the i-th point.
func (l *List) Remove(i int) {
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
}

// Clone returns a deep copy.
func (l *List) Clone() *List {
	out := &List{entries: make([]entry, len(l.entries))}
	copy(out.entries, l.entries)
	return out
}

// IsClosed returns if there are at least two points & the last equals the first.
func (l *List) IsClosed() bool {
	n := len(l.entries)
	return n > 1 && l.entries[0].pt == l.entries[n-1].pt
}

// Close appends a copy of the first point if the list isn't already closed.
// Calling it again is a no-op.
func (l *List) Close() {
	if len(l.entries) == 0 || l.IsClosed() {
		return
	}
	l.entries = append(l.entries, l.entries[0])
}

// Parse reads matching bracketed x & y sequences into a List.
func Parse(textX, textY string) (*List, error) {
	xs, xtext, err := parseAxis("x", textX)
	if err != nil {
		return nil, err
	}
	ys, ytext, err := parseAxis("y", textY)
	if err != nil {
		return nil, err
	}
	if len(xs) != len(ys) {
		return nil, &FormatError{Pos: -1, Reason: fmt.Sprintf("x has %d values but y has %d", len(xs), len(ys))}
	}

	l := &List{entries: make([]entry, len(xs))}
	for i := range xs {
		l.entries[i] = entry{pt: r2.Point{X: xs[i], Y: ys[i]}, text: [2]string{xtext[i], ytext[i]}}
	}
	return l, nil
}

// parseAxis does the work for Parse, returning values & the source tokens.
func parseAxis(axis, text string) ([]float64, []string, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, nil, &FormatError{Axis: axis, Pos: -1, Reason: "missing opening '['"}
	}
	if !strings.HasSuffix(trimmed, "]") {
		return nil, nil, &FormatError{Axis: axis, Pos: -1, Reason: "missing closing ']'"}
	}

	body := trimmed[1 : len(trimmed)-1]
	if strings.ContainsAny(body, "[]") {
		return nil, nil, &FormatError{Axis: axis, Pos: -1, Reason: "unbalanced brackets"}
	}

	tokens := strings.Fields(body)
	vals := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, nil, &FormatError{Axis: axis, Pos: i, Reason: fmt.Sprintf("%q is not a number", tok)}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, &FormatError{Axis: axis, Pos: i, Reason: fmt.Sprintf("%q is not finite", tok)}
		}
		vals[i] = v
	}
	return vals, tokens, nil
}

// Format writes the list as bracketed x & y text. Points that came from Parse
// (and haven't been edited since) are written exactly as they were read.
func (l *List) Format() (string, string) {
	var xb, yb strings.Builder
	xb.WriteByte('[')
	yb.WriteByte('[')
	for i, e := range l.entries {
		if i > 0 {
			xb.WriteByte(' ')
			yb.WriteByte(' ')
		}
		xb.WriteString(lexeme(e.text[0], e.pt.X))
		yb.WriteString(lexeme(e.text[1], e.pt.Y))
	}
	xb.WriteByte(']')
	yb.WriteByte(']')
	return xb.String(), yb.String()
}

// lexeme returns the original text if we have it, otherwise a fresh rendering
func lexeme(orig string, v float64) string {
	if orig != "" {
		return orig
	}
	return FormatFloat(v)
}

// FormatFloat renders v in the shortest form that round trips, always with a
// decimal point (1 -> "1.0").
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
