package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"clipmatch/internal/fileutil"
	"clipmatch/internal/services"
	"clipmatch/internal/tensor"
)

// channelAxis is axis 1 of batched [B,C,...] tensors.
const channelAxis = 1

// Stats holds per-channel normalization vectors for both modalities.
type Stats struct {
	VideoMean []float64 `json:"video_mean"`
	VideoStd  []float64 `json:"video_std"`
	AudioMean []float64 `json:"audio_mean"`
	AudioStd  []float64 `json:"audio_std"`
}

// Kinetics returns the fixed normalization used with backbones pretrained on
// the Kinetics-400 corpus. Audio is left unscaled.
func Kinetics() Stats {
	return Stats{
		VideoMean: []float64{0.43216, 0.394666, 0.37645},
		VideoStd:  []float64{0.22803, 0.22145, 0.216989},
		AudioMean: []float64{0},
		AudioStd:  []float64{1},
	}
}

// NormalizeVideo scales a single [C,T,H,W] clip in place.
func (s *Stats) NormalizeVideo(t tensor.Tensor) error {
	return tensor.Normalize(t, 0, s.VideoMean, s.VideoStd)
}

// NormalizeAudio scales a single [C,S] clip in place.
func (s *Stats) NormalizeAudio(t tensor.Tensor) error {
	return tensor.Normalize(t, 0, s.AudioMean, s.AudioStd)
}

// Batch is one collated batch as seen by the statistics pass.
type Batch struct {
	Video tensor.Tensor
	Audio tensor.Tensor
}

// Stream produces batches in a fixed order. Compute invokes it twice, so the
// stream must be restartable and must yield identical batches both times.
type Stream func(yield func(Batch) error) error

type accumulator struct {
	sums  []float64
	count int64
}

func (a *accumulator) add(t tensor.Tensor) error {
	sums, count, err := tensor.ChannelSums(t, channelAxis)
	if err != nil {
		return err
	}
	if a.sums == nil {
		a.sums = make([]float64, len(sums))
	}
	if len(sums) != len(a.sums) {
		return fmt.Errorf("channel count changed mid-stream: %d then %d", len(a.sums), len(sums))
	}
	for i, s := range sums {
		a.sums[i] += s
	}
	a.count += count
	return nil
}

func (a *accumulator) means() ([]float64, error) {
	if a.count == 0 {
		return nil, services.Wrap(services.ErrValidation, "stats", "compute", "empty batch stream", nil)
	}
	means := make([]float64, len(a.sums))
	for i, s := range a.sums {
		means[i] = s / float64(a.count)
	}
	return means, nil
}

// Compute derives per-channel mean and standard deviation over every batch
// the stream yields. Two passes keep the result exact: means first, then
// squared deviations against those means. Accumulation order is the stream
// order, so the result is bit-identical across runs on the same data.
func Compute(stream Stream) (Stats, error) {
	var video, audio accumulator
	err := stream(func(b Batch) error {
		if err := video.add(b.Video); err != nil {
			return err
		}
		return audio.add(b.Audio)
	})
	if err != nil {
		return Stats{}, services.Wrap(services.ErrValidation, "stats", "compute", "mean pass failed", err)
	}
	videoMean, err := video.means()
	if err != nil {
		return Stats{}, err
	}
	audioMean, err := audio.means()
	if err != nil {
		return Stats{}, err
	}

	videoDev := make([]float64, len(videoMean))
	audioDev := make([]float64, len(audioMean))
	err = stream(func(b Batch) error {
		if err := addSquaredDev(videoDev, b.Video, videoMean); err != nil {
			return err
		}
		return addSquaredDev(audioDev, b.Audio, audioMean)
	})
	if err != nil {
		return Stats{}, services.Wrap(services.ErrValidation, "stats", "compute", "deviation pass failed", err)
	}

	return Stats{
		VideoMean: videoMean,
		VideoStd:  stds(videoDev, video.count),
		AudioMean: audioMean,
		AudioStd:  stds(audioDev, audio.count),
	}, nil
}

func addSquaredDev(acc []float64, t tensor.Tensor, means []float64) error {
	devs, err := tensor.ChannelSquaredDev(t, channelAxis, means)
	if err != nil {
		return err
	}
	for i, d := range devs {
		acc[i] += d
	}
	return nil
}

func stds(devs []float64, count int64) []float64 {
	out := make([]float64, len(devs))
	for i, d := range devs {
		out[i] = math.Sqrt(d / float64(count))
	}
	return out
}

// Save writes the stats as JSON via a temp file and rename so readers never
// observe a partial file.
func Save(path string, s Stats) error {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "stats", "save", "encode stats", err)
	}
	if err := fileutil.WriteFileAtomic(path, payload, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "stats", "save", path, err)
	}
	return nil
}

// Load reads previously saved stats. A missing file maps to ErrNotFound so
// callers can fall back to computing fresh stats.
func Load(path string) (Stats, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Stats{}, services.Wrap(services.ErrNotFound, "stats", "load", path, err)
		}
		return Stats{}, services.Wrap(services.ErrTransient, "stats", "load", path, err)
	}
	var s Stats
	if err := json.Unmarshal(payload, &s); err != nil {
		return Stats{}, services.Wrap(services.ErrValidation, "stats", "load", "decode stats", err)
	}
	if len(s.VideoMean) != len(s.VideoStd) || len(s.AudioMean) != len(s.AudioStd) {
		return Stats{}, services.Wrap(services.ErrValidation, "stats", "load", "mean and std lengths disagree", nil)
	}
	return s, nil
}
