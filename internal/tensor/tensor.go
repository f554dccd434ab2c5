package tensor

import (
	"errors"
	"fmt"
)

// Tensor is a dense row-major float32 array with explicit shape metadata.
// Video clips use [C, T, H, W], audio clips [C, S], and batched variants add
// a leading batch axis.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Zeros allocates a zero-filled tensor with the given shape.
func Zeros(shape ...int) Tensor {
	return Tensor{Shape: append([]int{}, shape...), Data: make([]float32, elems(shape))}
}

// New wraps data in a tensor after checking it matches the shape.
func New(data []float32, shape ...int) (Tensor, error) {
	if len(data) != elems(shape) {
		return Tensor{}, fmt.Errorf("tensor: %d values do not fit shape %v", len(data), shape)
	}
	return Tensor{Shape: append([]int{}, shape...), Data: data}, nil
}

// Dim returns the size of axis i.
func (t Tensor) Dim(i int) int {
	if i < 0 || i >= len(t.Shape) {
		return 0
	}
	return t.Shape[i]
}

// Elems returns the total element count.
func (t Tensor) Elems() int {
	return elems(t.Shape)
}

// Clone returns a deep copy.
func (t Tensor) Clone() Tensor {
	out := Tensor{Shape: append([]int{}, t.Shape...), Data: make([]float32, len(t.Data))}
	copy(out.Data, t.Data)
	return out
}

func elems(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if len(shape) == 0 {
		return 0
	}
	return n
}

// splitAt views the tensor as [outer, shape[axis], inner].
func splitAt(shape []int, axis int) (outer, dim, inner int, err error) {
	if axis < 0 || axis >= len(shape) {
		return 0, 0, 0, fmt.Errorf("tensor: axis %d out of range for shape %v", axis, shape)
	}
	outer, inner = 1, 1
	for _, d := range shape[:axis] {
		outer *= d
	}
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	return outer, shape[axis], inner, nil
}

// PadTo zero-fills the tensor along axis up to size. The input is never
// truncated; size below the current dimension is an error.
func PadTo(t Tensor, axis, size int) (Tensor, error) {
	outer, dim, inner, err := splitAt(t.Shape, axis)
	if err != nil {
		return Tensor{}, err
	}
	if size < dim {
		return Tensor{}, fmt.Errorf("tensor: pad target %d below current size %d", size, dim)
	}
	if size == dim {
		return t.Clone(), nil
	}
	shape := append([]int{}, t.Shape...)
	shape[axis] = size
	out := Zeros(shape...)
	for o := 0; o < outer; o++ {
		src := t.Data[o*dim*inner : (o+1)*dim*inner]
		dst := out.Data[o*size*inner:]
		copy(dst[:dim*inner], src)
	}
	return out, nil
}

// CropTo truncates the tensor along axis down to size.
func CropTo(t Tensor, axis, size int) (Tensor, error) {
	outer, dim, inner, err := splitAt(t.Shape, axis)
	if err != nil {
		return Tensor{}, err
	}
	if size > dim {
		return Tensor{}, fmt.Errorf("tensor: crop target %d above current size %d", size, dim)
	}
	if size == dim {
		return t.Clone(), nil
	}
	shape := append([]int{}, t.Shape...)
	shape[axis] = size
	out := Zeros(shape...)
	for o := 0; o < outer; o++ {
		src := t.Data[o*dim*inner : o*dim*inner+size*inner]
		dst := out.Data[o*size*inner : (o+1)*size*inner]
		copy(dst, src)
	}
	return out, nil
}

// Stack concatenates equally-shaped tensors along a new leading batch axis.
func Stack(items []Tensor) (Tensor, error) {
	if len(items) == 0 {
		return Tensor{}, errors.New("tensor: stack of zero tensors")
	}
	base := items[0].Shape
	for i, item := range items[1:] {
		if !sameShape(base, item.Shape) {
			return Tensor{}, fmt.Errorf("tensor: stack shape mismatch at %d: %v vs %v", i+1, base, item.Shape)
		}
	}
	shape := append([]int{len(items)}, base...)
	out := Zeros(shape...)
	step := elems(base)
	for i, item := range items {
		copy(out.Data[i*step:(i+1)*step], item.Data)
	}
	return out, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ChannelSums accumulates per-channel sums and element counts over every
// axis except the given channel axis. Accumulation is in float64 to keep
// long streams stable.
func ChannelSums(t Tensor, axis int) (sums []float64, count int64, err error) {
	outer, dim, inner, err := splitAt(t.Shape, axis)
	if err != nil {
		return nil, 0, err
	}
	sums = make([]float64, dim)
	for o := 0; o < outer; o++ {
		for c := 0; c < dim; c++ {
			base := (o*dim + c) * inner
			for i := 0; i < inner; i++ {
				sums[c] += float64(t.Data[base+i])
			}
		}
	}
	return sums, int64(outer) * int64(inner), nil
}

// ChannelSquaredDev accumulates per-channel sums of squared deviations from
// the provided means over every axis except the channel axis.
func ChannelSquaredDev(t Tensor, axis int, means []float64) ([]float64, error) {
	outer, dim, inner, err := splitAt(t.Shape, axis)
	if err != nil {
		return nil, err
	}
	if len(means) != dim {
		return nil, fmt.Errorf("tensor: %d means for %d channels", len(means), dim)
	}
	sse := make([]float64, dim)
	for o := 0; o < outer; o++ {
		for c := 0; c < dim; c++ {
			base := (o*dim + c) * inner
			for i := 0; i < inner; i++ {
				d := float64(t.Data[base+i]) - means[c]
				sse[c] += d * d
			}
		}
	}
	return sse, nil
}

// Normalize applies (x - mean[c]) / std[c] per channel in place. A zero std
// leaves the channel unscaled to avoid dividing by zero on constant input.
func Normalize(t Tensor, axis int, means, stds []float64) error {
	outer, dim, inner, err := splitAt(t.Shape, axis)
	if err != nil {
		return err
	}
	if len(means) != dim || len(stds) != dim {
		return fmt.Errorf("tensor: normalize stats length mismatch for %d channels", dim)
	}
	for o := 0; o < outer; o++ {
		for c := 0; c < dim; c++ {
			scale := stds[c]
			if scale == 0 {
				scale = 1
			}
			base := (o*dim + c) * inner
			for i := 0; i < inner; i++ {
				t.Data[base+i] = float32((float64(t.Data[base+i]) - means[c]) / scale)
			}
		}
	}
	return nil
}
