package tensor

import (
	"testing"
)

func seq(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}

func TestPadToExtendsTimeAxis(t *testing.T) {
	// [C=2, T=2, H=1, W=2]
	in, err := New(seq(8), 2, 2, 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := PadTo(in, 1, 4)
	if err != nil {
		t.Fatalf("PadTo: %v", err)
	}
	if out.Dim(1) != 4 {
		t.Fatalf("padded time dim = %d, want 4", out.Dim(1))
	}
	// First channel keeps its original two frames, then zeros.
	want := []float32{0, 1, 2, 3, 0, 0, 0, 0}
	for i, v := range want {
		if out.Data[i] != v {
			t.Fatalf("channel 0 index %d = %v, want %v", i, out.Data[i], v)
		}
	}
	// Second channel block starts at 4*1*2 into the padded layout.
	if out.Data[8] != 4 || out.Data[11] != 7 {
		t.Fatalf("channel 1 frames misplaced: %v", out.Data[8:16])
	}
}

func TestPadToNeverTruncates(t *testing.T) {
	in, _ := New(seq(6), 1, 3, 2)
	if _, err := PadTo(in, 1, 2); err == nil {
		t.Fatal("expected error padding below current size")
	}
}

func TestCropToTruncates(t *testing.T) {
	in, _ := New(seq(6), 1, 3, 2)
	out, err := CropTo(in, 1, 2)
	if err != nil {
		t.Fatalf("CropTo: %v", err)
	}
	if out.Dim(1) != 2 || len(out.Data) != 4 {
		t.Fatalf("unexpected crop result %v %v", out.Shape, out.Data)
	}
	for i, v := range []float32{0, 1, 2, 3} {
		if out.Data[i] != v {
			t.Fatalf("crop index %d = %v, want %v", i, out.Data[i], v)
		}
	}
	if _, err := CropTo(in, 1, 5); err == nil {
		t.Fatal("expected error cropping above current size")
	}
}

func TestStackAddsBatchAxis(t *testing.T) {
	a, _ := New(seq(4), 2, 2)
	b, _ := New(seq(4), 2, 2)
	out, err := Stack([]Tensor{a, b})
	if err != nil {
		t.Fatalf("Stack: %v", err)
	}
	if out.Dim(0) != 2 || out.Dim(1) != 2 || out.Dim(2) != 2 {
		t.Fatalf("unexpected stacked shape %v", out.Shape)
	}

	c, _ := New(seq(6), 2, 3)
	if _, err := Stack([]Tensor{a, c}); err == nil {
		t.Fatal("expected shape mismatch error")
	}
	if _, err := Stack(nil); err == nil {
		t.Fatal("expected error for empty stack")
	}
}

func TestChannelSums(t *testing.T) {
	// [B=1, C=2, T=2]: channel 0 holds {1,2}, channel 1 holds {3,4}.
	in, _ := New([]float32{1, 2, 3, 4}, 1, 2, 2)
	sums, count, err := ChannelSums(in, 1)
	if err != nil {
		t.Fatalf("ChannelSums: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if sums[0] != 3 || sums[1] != 7 {
		t.Fatalf("sums = %v", sums)
	}
}

func TestChannelSquaredDev(t *testing.T) {
	in, _ := New([]float32{1, 3, 2, 2}, 1, 2, 2)
	sse, err := ChannelSquaredDev(in, 1, []float64{2, 2})
	if err != nil {
		t.Fatalf("ChannelSquaredDev: %v", err)
	}
	if sse[0] != 2 || sse[1] != 0 {
		t.Fatalf("sse = %v", sse)
	}
}

func TestNormalize(t *testing.T) {
	in, _ := New([]float32{1, 3, 5, 5}, 1, 2, 2)
	if err := Normalize(in, 1, []float64{2, 5}, []float64{1, 0}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []float32{-1, 1, 0, 0}
	for i, v := range want {
		if in.Data[i] != v {
			t.Fatalf("normalized index %d = %v, want %v", i, in.Data[i], v)
		}
	}
}
