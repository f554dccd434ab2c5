package clips

import (
	"clipmatch/internal/tensor"
)

// Clip is a contiguous video segment with its associated audio. Video is
// [C, T, H, W] scaled to [0,1]; audio is mono [1, S].
type Clip struct {
	Video    tensor.Tensor
	Audio    tensor.Tensor
	Duration float64
	Filename string
	Offset   float64
	Index    int
}

// Frames returns the decoded frame count along the video time axis.
func (c Clip) Frames() int {
	return c.Video.Dim(1)
}

// Samples returns the decoded audio sample count.
func (c Clip) Samples() int {
	return c.Audio.Dim(1)
}
