// Package scoring derives nine-hole and round aggregates from per-hole scores.
//
// Every function here is pure: it never touches storage and is safe to call
// from any goroutine. Unplayed holes are represented by nil and are excluded
// from every sum, including the front-nine, back-nine and total scores. A
// range with no played holes has a nil total rather than zero.
package scoring

import "strconv"

// Holes is the number of holes in a round.
const Holes = 18

// NineSize is the number of holes in each half of a round.
const NineSize = 9

// Line is the aggregate over a contiguous range of holes.
type Line struct {
	Score  *int
	Par    int
	Played int
	ToPar  int
}

// Summary aggregates a whole card.
type Summary struct {
	Front Line
	Back  Line
	Total Line
}

// Summarize walks the card once and produces front, back and total lines.
// Par is only counted for holes that have a score.
func Summarize(holes [Holes]*int, pars [Holes]int) Summary {
	return Summary{
		Front: line(holes[:NineSize], pars[:NineSize]),
		Back:  line(holes[NineSize:], pars[NineSize:]),
		Total: line(holes[:], pars[:]),
	}
}

func line(holes []*int, pars []int) Line {
	var l Line
	sum := 0
	for i, h := range holes {
		if h == nil {
			continue
		}
		sum += *h
		l.Par += pars[i]
		l.Played++
	}
	if l.Played > 0 {
		l.Score = &sum
		l.ToPar = sum - l.Par
	}
	return l
}

// Totals returns the front-nine, back-nine and total scores of a card without
// reference to par. Each value is nil when its range has no played holes.
func Totals(holes [Holes]*int) (front, back, total *int) {
	var zero [Holes]int
	s := Summarize(holes, zero)
	return s.Front.Score, s.Back.Score, s.Total.Score
}

// Played counts the holes that have a score.
func Played(holes [Holes]*int) int {
	n := 0
	for _, h := range holes {
		if h != nil {
			n++
		}
	}
	return n
}

// FrontPar sums par for holes 1-9.
func FrontPar(pars [Holes]int) int { return sum(pars[:NineSize]) }

// BackPar sums par for holes 10-18.
func BackPar(pars [Holes]int) int { return sum(pars[NineSize:]) }

// TotalPar sums par for all 18 holes.
func TotalPar(pars [Holes]int) int { return sum(pars[:]) }

func sum(v []int) int {
	t := 0
	for _, n := range v {
		t += n
	}
	return t
}

// FormatToPar renders a score relative to par the way leaderboards print it:
// "E" for even, "+n" over par and "-n" under par.
func FormatToPar(n int) string {
	switch {
	case n == 0:
		return "E"
	case n > 0:
		return "+" + strconv.Itoa(n)
	default:
		return strconv.Itoa(n)
	}
}

// Less orders two totals for a leaderboard: lower totals first and nil
// totals after every recorded total.
func Less(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
