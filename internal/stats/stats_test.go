package stats

import (
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"clipmatch/internal/services"
	"clipmatch/internal/tensor"
)

func mustTensor(t *testing.T, data []float32, shape ...int) tensor.Tensor {
	t.Helper()
	out, err := tensor.New(data, shape...)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func twoBatchStream(t *testing.T) Stream {
	// Video [B=1,C=2,T=2,H=1,W=1], audio [B=1,C=1,S=2].
	first := Batch{
		Video: mustTensor(t, []float32{1, 3, 10, 14}, 1, 2, 2, 1, 1),
		Audio: mustTensor(t, []float32{0, 2}, 1, 1, 2),
	}
	second := Batch{
		Video: mustTensor(t, []float32{5, 7, 18, 22}, 1, 2, 2, 1, 1),
		Audio: mustTensor(t, []float32{4, 6}, 1, 1, 2),
	}
	return func(yield func(Batch) error) error {
		if err := yield(first); err != nil {
			return err
		}
		return yield(second)
	}
}

func TestComputeKnownValues(t *testing.T) {
	s, err := Compute(twoBatchStream(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	wantVideoMean := []float64{4, 16}
	wantAudioMean := []float64{3}
	if !reflect.DeepEqual(s.VideoMean, wantVideoMean) {
		t.Fatalf("video mean = %v, want %v", s.VideoMean, wantVideoMean)
	}
	if !reflect.DeepEqual(s.AudioMean, wantAudioMean) {
		t.Fatalf("audio mean = %v, want %v", s.AudioMean, wantAudioMean)
	}
	// Channel 0 values 1,3,5,7: population std sqrt(5).
	if got, want := s.VideoStd[0], math.Sqrt(5); math.Abs(got-want) > 1e-12 {
		t.Fatalf("video std[0] = %v, want %v", got, want)
	}
	if got, want := s.AudioStd[0], math.Sqrt(5); math.Abs(got-want) > 1e-12 {
		t.Fatalf("audio std[0] = %v, want %v", got, want)
	}
}

func TestComputeChannelShape(t *testing.T) {
	batch := Batch{
		Video: tensor.Zeros(2, 3, 4, 2, 2),
		Audio: tensor.Zeros(2, 1, 8),
	}
	stream := func(yield func(Batch) error) error { return yield(batch) }
	s, err := Compute(stream)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(s.VideoMean) != 3 || len(s.VideoStd) != 3 {
		t.Fatalf("expected 3 video channels, got %d/%d", len(s.VideoMean), len(s.VideoStd))
	}
	if len(s.AudioMean) != 1 || len(s.AudioStd) != 1 {
		t.Fatalf("expected 1 audio channel, got %d/%d", len(s.AudioMean), len(s.AudioStd))
	}
}

func TestComputeReproducible(t *testing.T) {
	first, err := Compute(twoBatchStream(t))
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compute(twoBatchStream(t))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated computation diverged: %+v vs %+v", first, second)
	}
}

func TestComputeEmptyStream(t *testing.T) {
	stream := func(yield func(Batch) error) error { return nil }
	if _, err := Compute(stream); err == nil {
		t.Fatal("expected an error for an empty stream")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	want := Stats{
		VideoMean: []float64{0.4, 0.5, 0.6},
		VideoStd:  []float64{0.2, 0.2, 0.3},
		AudioMean: []float64{0},
		AudioStd:  []float64{1},
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip changed stats: %+v vs %+v", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNormalizeVideoZeroStd(t *testing.T) {
	s := Stats{VideoMean: []float64{1, 1, 1}, VideoStd: []float64{0, 0, 0}}
	clip := tensor.Zeros(3, 1, 1, 1)
	for i := range clip.Data {
		clip.Data[i] = 1
	}
	if err := s.NormalizeVideo(clip); err != nil {
		t.Fatalf("NormalizeVideo: %v", err)
	}
	for i, v := range clip.Data {
		if v != 0 {
			t.Fatalf("element %d = %v, want 0 (zero std leaves scale at 1)", i, v)
		}
	}
}
