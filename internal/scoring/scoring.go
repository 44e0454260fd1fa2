// Package scoring evaluates Farkle dice.
//
// Evaluate is a pure function: given the faces of a set of dice it returns the
// best legal score, which of the dice contribute to it, and whether the set is
// an instant-win hand under the active rules.
//
// Two rule variants exist. Doubling is canonical: a set of three or more of a
// kind is worth its base value doubled for every die beyond the third. The
// FixedTable variant uses a fixed escalation table and treats four or more 1s
// as an instant win. The variants are independent; neither is a special case of
// the other.
package scoring

import (
	"fmt"
	"slices"
	"strings"
)

// Variant selects the set-scoring formula.
type Variant int

const (
	// Doubling scores n-of-a-kind as base * 2^(n-3).
	Doubling Variant = iota
	// FixedTable scores n-of-a-kind from a fixed multiplier table.
	FixedTable
)

func (v Variant) String() string {
	switch v {
	case Doubling:
		return "doubling"
	case FixedTable:
		return "fixed-table"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant parses a variant name as written in game config files.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "doubling":
		return Doubling, nil
	case "fixed-table", "fixed", "table":
		return FixedTable, nil
	default:
		return 0, fmt.Errorf("unknown scoring variant %q", s)
	}
}

// DefaultInstantWinScore is the score credited for an instant-win hand.
const DefaultInstantWinScore = 10000

// Rules is the scoring policy for a game.
type Rules struct {
	Variant Variant

	// InstantWinOnes is the number of 1s in a single evaluation that wins the
	// game outright. Zero disables instant wins.
	InstantWinOnes int

	// InstantWinScore replaces the set value of an instant-win hand.
	InstantWinScore int

	// RequireProof demands that a banked three-or-more set is accompanied by
	// at least one 1 or 5.
	RequireProof bool
}

// DefaultRules returns the canonical doubling rules with no instant win.
func DefaultRules() Rules {
	return Rules{Variant: Doubling, InstantWinScore: DefaultInstantWinScore}
}

// FixedTableRules returns the fixed-table variant: four 1s win outright and
// sets must be proven before banking.
func FixedTableRules() Rules {
	return Rules{
		Variant:         FixedTable,
		InstantWinOnes:  4,
		InstantWinScore: DefaultInstantWinScore,
		RequireProof:    true,
	}
}

// Result is the outcome of evaluating a set of dice.
type Result struct {
	Score int
	// Contributing holds indices into the evaluated faces, ascending.
	Contributing []int
	InstantWin   bool
}

// Contributes reports whether the face at index i is part of the score.
func (r Result) Contributes(i int) bool {
	return slices.Contains(r.Contributing, i)
}

// fixedMultipliers maps set size to a multiple of the three-of-a-kind value.
var fixedMultipliers = map[int]int{3: 1, 4: 10, 5: 20, 6: 40}

// Evaluate scores faces under DefaultRules.
func Evaluate(faces []int) Result {
	return DefaultRules().Evaluate(faces)
}

// Evaluate scores faces. Values outside 1..6 are ignored.
func (r Rules) Evaluate(faces []int) Result {
	var byFace [7][]int
	for i, f := range faces {
		if f < 1 || f > 6 {
			continue
		}
		byFace[f] = append(byFace[f], i)
	}

	res := Result{Contributing: []int{}}
	for face := 1; face <= 6; face++ {
		idx := byFace[face]
		n := len(idx)
		if n == 0 {
			continue
		}

		if n >= 3 {
			if face == 1 && r.InstantWinOnes > 0 && n >= r.InstantWinOnes {
				res.InstantWin = true
				res.Score += r.instantWinScore()
			} else {
				res.Score += r.setValue(face, n)
			}
			res.Contributing = append(res.Contributing, idx...)
			continue
		}

		switch face {
		case 1:
			res.Score += 100 * n
			res.Contributing = append(res.Contributing, idx...)
		case 5:
			res.Score += 50 * n
			res.Contributing = append(res.Contributing, idx...)
		}
	}

	slices.Sort(res.Contributing)
	return res
}

func (r Rules) setValue(face, n int) int {
	base := face * 100
	if face == 1 {
		base = 1000
	}
	if r.Variant == FixedTable {
		return base * fixedMultipliers[min(n, 6)]
	}
	return base << (n - 3)
}

func (r Rules) instantWinScore() int {
	if r.InstantWinScore > 0 {
		return r.InstantWinScore
	}
	return DefaultInstantWinScore
}

// ProofSatisfied reports whether any three-or-more set among faces is
// accompanied by a 1 or 5. Faces without a set need no proof.
func ProofSatisfied(faces []int) bool {
	var counts [7]int
	for _, f := range faces {
		if f >= 1 && f <= 6 {
			counts[f]++
		}
	}

	hasSet := false
	for face := 1; face <= 6; face++ {
		if counts[face] >= 3 {
			hasSet = true
			break
		}
	}
	if !hasSet {
		return true
	}
	return counts[1] > 0 || counts[5] > 0
}

// HasScore reports whether faces contain anything that scores. It is the bust
// check: a roll for which HasScore is false forfeits the turn.
func (r Rules) HasScore(faces []int) bool {
	return r.Evaluate(faces).Score > 0
}
