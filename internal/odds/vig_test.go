package odds

import (
	"math"
	"testing"
)

func TestRemoveVigBalancedTwoWay(t *testing.T) {
	// A symmetric -110/-110 book devigs to even money on both sides.
	d := 100.0/110 + 1
	fair := RemoveVig([]float64{d, d})
	for i, f := range fair {
		if math.Abs(f-2.0) > 0.001 {
			t.Errorf("fair[%d] = %v, want 2.0", i, f)
		}
	}
}

func TestRemoveVigImpliedSum(t *testing.T) {
	tests := []struct {
		name     string
		decimals []float64
	}{
		{"two way uneven", []float64{1.5, 2.5}},
		{"two way heavy favorite", []float64{1.2, 4.3}},
		{"three way", []float64{2.4, 3.3, 3.1}},
		{"three way with draw juice", []float64{1.85, 3.6, 4.1}},
		{"heavy two way vig", []float64{1.3, 1.3}},
		{"longshot field", []float64{1.05, 15, 41, 101, 201}},
		{"futures board", []float64{3.2, 5, 6.5, 8, 11, 13, 19, 29, 41}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fair := RemoveVig(tt.decimals)
			var sum float64
			for i, f := range fair {
				if f <= MinValidDecimal {
					t.Fatalf("fair[%d] = %v, expected valid price", i, f)
				}
				sum += 1 / f
			}
			if math.Abs(sum-1.0) > 1e-3 {
				t.Errorf("implied probabilities sum to %v, want 1.0 within 1e-3", sum)
			}
		})
	}
}

func TestRemoveVigOrderingPreserved(t *testing.T) {
	// The favorite must stay the favorite after devigging.
	fair := RemoveVig([]float64{1.4, 2.9})
	if fair[0] >= fair[1] {
		t.Errorf("ordering flipped: fair = %v", fair)
	}
	// And each fair price is longer than the quoted one.
	if fair[0] <= 1.4 || fair[1] <= 2.9 {
		t.Errorf("fair prices should exceed vigged quotes, got %v", fair)
	}
}

func TestRemoveVigInsufficientOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		decimals []float64
	}{
		{"single price", []float64{1.9}},
		{"one valid one missing", []float64{2.1, 0}},
		{"all missing", []float64{0, 0}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fair := RemoveVig(tt.decimals)
			if len(fair) != len(tt.decimals) {
				t.Fatalf("len(fair) = %d, want %d", len(fair), len(tt.decimals))
			}
			for i, f := range fair {
				if f != 0 {
					t.Errorf("fair[%d] = %v, want 0", i, f)
				}
			}
		})
	}
}

func TestRemoveVigNoVigBook(t *testing.T) {
	// Implied probabilities already below one: prices pass through.
	in := []float64{2.2, 2.2}
	fair := RemoveVig(in)
	for i := range in {
		if fair[i] != in[i] {
			t.Errorf("fair[%d] = %v, want unchanged %v", i, fair[i], in[i])
		}
	}
}

func TestRemoveVigSkipsInvalidPosition(t *testing.T) {
	fair := RemoveVig([]float64{1.9, 0, 2.1})
	if fair[1] != 0 {
		t.Errorf("invalid position got fair price %v", fair[1])
	}
	if fair[0] <= MinValidDecimal || fair[2] <= MinValidDecimal {
		t.Errorf("valid positions missing fair prices: %v", fair)
	}
}
