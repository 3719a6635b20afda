package usecase

import (
	"math"
	"testing"
)

func TestNormalizeVectorUnitLength(t *testing.T) {
	got := normalizeVector([]float32{3, 4})
	if got[0] != 0.6 || got[1] != 0.8 {
		t.Fatalf("expected unit vector {0.6, 0.8}, got %v", got)
	}
	var norm float64
	for _, v := range got {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Fatalf("norm = %f", norm)
	}
}

func TestNormalizeVectorZeroVectorUnchanged(t *testing.T) {
	got := normalizeVector([]float32{0, 0, 0})
	for _, v := range got {
		if v != 0 {
			t.Fatalf("zero vector changed: %v", got)
		}
	}
}
