package features

import "testing"

func TestPercentDistanceZeroAtLevel(t *testing.T) {
	level := 43250.5
	d := PercentDistance(level, &level)
	if d == nil {
		t.Fatalf("expected distance")
	}
	if *d != 0 {
		t.Fatalf("expected 0, got %v", *d)
	}
}

func TestPercentDistanceSign(t *testing.T) {
	level := 100.0
	up := PercentDistance(105, &level)
	if up == nil || *up != 5 {
		t.Fatalf("expected +5, got %v", up)
	}
	down := PercentDistance(95, &level)
	if down == nil || *down != -5 {
		t.Fatalf("expected -5, got %v", down)
	}
}

func TestPercentDistanceRounding(t *testing.T) {
	level := 3.0
	d := PercentDistance(3.1, &level)
	if d == nil || *d != 3.33 {
		t.Fatalf("expected 3.33, got %v", d)
	}
}

func TestPercentDistanceUndefined(t *testing.T) {
	if d := PercentDistance(100, nil); d != nil {
		t.Fatalf("expected nil for missing level, got %v", *d)
	}
	zero := 0.0
	if d := PercentDistance(100, &zero); d != nil {
		t.Fatalf("expected nil for zero level, got %v", *d)
	}
}
