package dataset

import (
	"clipmatch/internal/media/clips"
	"clipmatch/internal/tensor"
)

// timeAxis is axis 1 for both [C,T,H,W] video and [C,S] audio tensors.
const timeAxis = 1

// ClipBatch is a batched set of clips with video [B,C,T,H,W] and audio
// [B,C,S] padded to the batch maximum along the time axis.
type ClipBatch struct {
	Video tensor.Tensor
	Audio tensor.Tensor
}

// PadVideoBatch pads every video tensor along time to the batch maximum and
// stacks them. No input is ever truncated.
func PadVideoBatch(videos []tensor.Tensor) (tensor.Tensor, error) {
	return padBatch(videos)
}

// PadAudioBatch pads every audio tensor along time to the batch maximum and
// stacks them.
func PadAudioBatch(audios []tensor.Tensor) (tensor.Tensor, error) {
	return padBatch(audios)
}

// CropVideoBatch truncates every video tensor along time to the batch
// minimum and stacks them. Opt-in for alignment-sensitive consumers.
func CropVideoBatch(videos []tensor.Tensor) (tensor.Tensor, error) {
	return cropBatch(videos)
}

// CropAudioBatch truncates every audio tensor along time to the batch
// minimum and stacks them.
func CropAudioBatch(audios []tensor.Tensor) (tensor.Tensor, error) {
	return cropBatch(audios)
}

func padBatch(items []tensor.Tensor) (tensor.Tensor, error) {
	size := 0
	for _, item := range items {
		if d := item.Dim(timeAxis); d > size {
			size = d
		}
	}
	padded := make([]tensor.Tensor, 0, len(items))
	for _, item := range items {
		p, err := tensor.PadTo(item, timeAxis, size)
		if err != nil {
			return tensor.Tensor{}, err
		}
		padded = append(padded, p)
	}
	return tensor.Stack(padded)
}

func cropBatch(items []tensor.Tensor) (tensor.Tensor, error) {
	size := -1
	for _, item := range items {
		if d := item.Dim(timeAxis); size < 0 || d < size {
			size = d
		}
	}
	cropped := make([]tensor.Tensor, 0, len(items))
	for _, item := range items {
		c, err := tensor.CropTo(item, timeAxis, size)
		if err != nil {
			return tensor.Tensor{}, err
		}
		cropped = append(cropped, c)
	}
	return tensor.Stack(cropped)
}

// Collate pads a slice of clips into a single ClipBatch.
func Collate(items []clips.Clip) (ClipBatch, error) {
	videos := make([]tensor.Tensor, 0, len(items))
	audios := make([]tensor.Tensor, 0, len(items))
	for _, item := range items {
		videos = append(videos, item.Video)
		audios = append(audios, item.Audio)
	}
	video, err := PadVideoBatch(videos)
	if err != nil {
		return ClipBatch{}, err
	}
	audio, err := PadAudioBatch(audios)
	if err != nil {
		return ClipBatch{}, err
	}
	return ClipBatch{Video: video, Audio: audio}, nil
}

// GroupedBatches chunks clips into batches of at most batchSize, grouping by
// the provided key first so batch members stay duration-homogeneous. Group
// order follows first appearance; order within a group is preserved.
func GroupedBatches(items []clips.Clip, key func(clips.Clip) float64, batchSize int) [][]clips.Clip {
	if batchSize <= 0 {
		batchSize = 1
	}
	var order []float64
	groups := make(map[float64][]clips.Clip)
	for _, item := range items {
		k := key(item)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], item)
	}
	var batches [][]clips.Clip
	for _, k := range order {
		group := groups[k]
		for start := 0; start < len(group); start += batchSize {
			end := start + batchSize
			if end > len(group) {
				end = len(group)
			}
			batches = append(batches, group[start:end])
		}
	}
	return batches
}
