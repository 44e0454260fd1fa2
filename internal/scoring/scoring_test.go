package scoring

import (
	"slices"
	"testing"
)

func TestEvaluateDoubling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		faces        []int
		score        int
		contributing []int
	}{
		{"single one", []int{1, 2, 3, 4, 6}, 100, []int{0}},
		{"single five", []int{5, 2, 3, 4, 6}, 50, []int{0}},
		{"one and five", []int{1, 5, 2, 3, 4}, 150, []int{0, 1}},
		{"three twos", []int{2, 2, 2, 3, 4}, 200, []int{0, 1, 2}},
		{"three ones", []int{1, 1, 1, 3, 4}, 1000, []int{0, 1, 2}},
		{"four twos double", []int{2, 2, 2, 2, 3}, 400, []int{0, 1, 2, 3}},
		{"three twos and a one", []int{2, 2, 2, 1, 4}, 300, []int{0, 1, 2, 3}},
		{"three twos and a five", []int{2, 2, 2, 5, 4}, 250, []int{0, 1, 2, 3}},
		{"nothing", []int{2, 3, 4, 6, 2}, 0, []int{}},
		{"two ones", []int{1, 1}, 200, []int{0, 1}},
		{"two fives", []int{5, 3, 5}, 100, []int{0, 2}},
		{"five sixes", []int{6, 6, 6, 6, 6}, 2400, []int{0, 1, 2, 3, 4}},
		{"six ones", []int{1, 1, 1, 1, 1, 1}, 8000, []int{0, 1, 2, 3, 4, 5}},
		{"two triples", []int{3, 4, 3, 4, 3, 4}, 700, []int{0, 1, 2, 3, 4, 5}},
		{"four fives", []int{5, 5, 5, 5}, 1000, []int{0, 1, 2, 3}},
		{"empty", nil, 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(tt.faces)
			if got.Score != tt.score {
				t.Errorf("Evaluate(%v).Score = %d, want %d", tt.faces, got.Score, tt.score)
			}
			if !slices.Equal(got.Contributing, tt.contributing) {
				t.Errorf("Evaluate(%v).Contributing = %v, want %v", tt.faces, got.Contributing, tt.contributing)
			}
			if got.InstantWin {
				t.Errorf("Evaluate(%v) flagged instant win under doubling rules", tt.faces)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	t.Parallel()
	faces := []int{2, 2, 2, 1, 4, 5}
	before := slices.Clone(faces)

	first := Evaluate(faces)
	second := Evaluate(faces)

	if first.Score != second.Score || !slices.Equal(first.Contributing, second.Contributing) {
		t.Errorf("repeated evaluation differs: %+v vs %+v", first, second)
	}
	if !slices.Equal(faces, before) {
		t.Errorf("Evaluate mutated its input: %v", faces)
	}
}

func TestEvaluateOrderIndependentScore(t *testing.T) {
	t.Parallel()
	a := Evaluate([]int{4, 1, 4, 5, 4, 2})
	b := Evaluate([]int{1, 2, 4, 4, 5, 4})
	if a.Score != b.Score {
		t.Errorf("score depends on order: %d vs %d", a.Score, b.Score)
	}
	if a.Score != 550 {
		t.Errorf("score = %d, want 550", a.Score)
	}
}

func TestEvaluateIgnoresInvalidFaces(t *testing.T) {
	t.Parallel()
	got := Evaluate([]int{0, 7, 1, -3})
	if got.Score != 100 {
		t.Errorf("score = %d, want 100", got.Score)
	}
	if !slices.Equal(got.Contributing, []int{2}) {
		t.Errorf("contributing = %v, want [2]", got.Contributing)
	}
}

func TestEvaluateFixedTable(t *testing.T) {
	t.Parallel()
	rules := FixedTableRules()

	tests := []struct {
		name       string
		faces      []int
		score      int
		instantWin bool
	}{
		{"three twos", []int{2, 2, 2, 3, 4}, 200, false},
		{"four twos", []int{2, 2, 2, 2, 3}, 2000, false},
		{"five threes", []int{3, 3, 3, 3, 3}, 6000, false},
		{"four ones win", []int{1, 1, 1, 1, 3}, 10000, true},
		{"three ones", []int{1, 1, 1, 3, 4}, 1000, false},
		{"singles unchanged", []int{1, 5, 2, 3, 4}, 150, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rules.Evaluate(tt.faces)
			if got.Score != tt.score {
				t.Errorf("Evaluate(%v).Score = %d, want %d", tt.faces, got.Score, tt.score)
			}
			if got.InstantWin != tt.instantWin {
				t.Errorf("Evaluate(%v).InstantWin = %v, want %v", tt.faces, got.InstantWin, tt.instantWin)
			}
		})
	}
}

func TestInstantWinPolicyOnDoubling(t *testing.T) {
	t.Parallel()
	rules := DefaultRules()
	rules.InstantWinOnes = 5

	if got := rules.Evaluate([]int{1, 1, 1, 1, 2}); got.InstantWin {
		t.Error("four ones should not win when the threshold is five")
	}
	got := rules.Evaluate([]int{1, 1, 1, 1, 1, 2})
	if !got.InstantWin {
		t.Error("five ones should win when the threshold is five")
	}
	if got.Score != DefaultInstantWinScore {
		t.Errorf("instant win score = %d, want %d", got.Score, DefaultInstantWinScore)
	}
}

func TestProofSatisfied(t *testing.T) {
	t.Parallel()

	tests := []struct {
		faces []int
		want  bool
	}{
		{[]int{2, 2, 2}, false},
		{[]int{2, 2, 2, 1}, true},
		{[]int{2, 2, 2, 5}, true},
		{[]int{1, 1, 1}, true},
		{[]int{5, 5, 5}, true},
		{[]int{1, 5}, true},
		{[]int{1}, true},
		{nil, true},
	}

	for _, tt := range tests {
		if got := ProofSatisfied(tt.faces); got != tt.want {
			t.Errorf("ProofSatisfied(%v) = %v, want %v", tt.faces, got, tt.want)
		}
	}
}

func TestParseVariant(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Variant{
		"":            Doubling,
		"doubling":    Doubling,
		"Fixed-Table": FixedTable,
		"table":       FixedTable,
	} {
		got, err := ParseVariant(in)
		if err != nil {
			t.Fatalf("ParseVariant(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseVariant(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseVariant("yahtzee"); err == nil {
		t.Error("expected error for unknown variant")
	}
}
