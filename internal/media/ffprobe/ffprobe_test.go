package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 180, Height: 100, AvgFrameRate: "30000/1001"},
			{CodecType: "audio", SampleRate: "44100", Channels: 2},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	video, ok := result.VideoStream()
	if !ok || video.Width != 180 {
		t.Fatalf("unexpected video stream: %+v ok=%v", video, ok)
	}
	if fps := video.FrameRate(); math.Abs(fps-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate: %v", fps)
	}
	audio, ok := result.AudioStream()
	if !ok || audio.SampleRateHz() != 44100 {
		t.Fatalf("unexpected audio stream: %+v ok=%v", audio, ok)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", AvgFrameRate: "0/0"},
			{CodecType: "audio", SampleRate: "nope"},
		},
		Format: Format{Duration: "bad"},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	video, _ := result.VideoStream()
	if video.FrameRate() != 0 {
		t.Fatalf("expected frame rate 0, got %v", video.FrameRate())
	}
	audio, _ := result.AudioStream()
	if audio.SampleRateHz() != 0 {
		t.Fatalf("expected sample rate 0, got %d", audio.SampleRateHz())
	}
}

func TestMissingStreams(t *testing.T) {
	var result Result
	if _, ok := result.VideoStream(); ok {
		t.Fatal("expected no video stream")
	}
	if _, ok := result.AudioStream(); ok {
		t.Fatal("expected no audio stream")
	}
}
