package clips

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"clipmatch/internal/services"
	"clipmatch/internal/tensor"
)

// DecodeVideo reads the window's frames as raw RGB and returns a [3,T,H,W]
// tensor scaled to [0,1], plus the decoded frame count.
func DecodeVideo(ctx context.Context, ffmpeg, src string, w Window, width, height int) (tensor.Tensor, int, error) {
	if width <= 0 || height <= 0 {
		return tensor.Tensor{}, 0, services.Wrap(services.ErrValidation, "clips", "decode video", "target resolution must be positive", nil)
	}
	args := []string{
		"-v", "error", "-nostdin",
		"-ss", formatSeconds(w.Start),
		"-t", formatSeconds(w.Duration()),
		"-i", src,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"pipe:1",
	}
	raw, err := runFFmpeg(ctx, ffmpeg, args)
	if err != nil {
		return tensor.Tensor{}, 0, err
	}

	frameBytes := width * height * 3
	frames := len(raw) / frameBytes
	if frames == 0 {
		return tensor.Zeros(3, 0, height, width), 0, nil
	}
	raw = raw[:frames*frameBytes]

	// ffmpeg emits T x H x W x C; the model-facing layout is C x T x H x W.
	out := tensor.Zeros(3, frames, height, width)
	plane := frames * height * width
	for t := 0; t < frames; t++ {
		base := t * frameBytes
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				px := base + (y*width+x)*3
				dst := t*height*width + y*width + x
				out.Data[dst] = float32(raw[px]) / 255
				out.Data[plane+dst] = float32(raw[px+1]) / 255
				out.Data[2*plane+dst] = float32(raw[px+2]) / 255
			}
		}
	}
	return out, frames, nil
}

// DecodeAudio reads the window's audio as mono float32 PCM and returns a
// [1,S] tensor.
func DecodeAudio(ctx context.Context, ffmpeg, src string, w Window, sampleRate int) (tensor.Tensor, error) {
	if sampleRate <= 0 {
		return tensor.Tensor{}, services.Wrap(services.ErrValidation, "clips", "decode audio", "sample rate must be positive", nil)
	}
	args := []string{
		"-v", "error", "-nostdin",
		"-ss", formatSeconds(w.Start),
		"-t", formatSeconds(w.Duration()),
		"-i", src,
		"-f", "f32le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"pipe:1",
	}
	raw, err := runFFmpeg(ctx, ffmpeg, args)
	if err != nil {
		return tensor.Tensor{}, err
	}

	samples := len(raw) / 4
	out := tensor.Zeros(1, samples)
	for i := 0; i < samples; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		out.Data[i] = math.Float32frombits(bits)
	}
	return out, nil
}

// CutClip re-encodes the window into a standalone clip file at dest, scaled
// to the target resolution.
func CutClip(ctx context.Context, ffmpeg, src string, w Window, width, height int, dest string) error {
	args := []string{
		"-v", "error", "-nostdin", "-y",
		"-ss", formatSeconds(w.Start),
		"-t", formatSeconds(w.Duration()),
		"-i", src,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		dest,
	}
	if _, err := runFFmpeg(ctx, ffmpeg, args); err != nil {
		return err
	}
	return nil
}

func runFFmpeg(ctx context.Context, binary string, args []string) ([]byte, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		return nil, services.Wrap(services.ErrExternalTool, "clips", "ffmpeg", detail, err)
	}
	return stdout.Bytes(), nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
