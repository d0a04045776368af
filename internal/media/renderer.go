// Package media provides video rendering from a still cover image and an
// audio track. Rendering composes a fixed 1920x1080 layout, probes the audio
// duration, and drives the ffmpeg CLI to produce a single H.264/AAC MP4.
package media

import "context"

// RenderRequest describes one render call. It is ephemeral: nothing about
// the request outlives the Render invocation.
type RenderRequest struct {
	// AudioPath is the path to the source audio track.
	AudioPath string
	// ImagePath is the path to the source cover image.
	ImagePath string
	// OutputPath is where the finished MP4 is written. An existing file at
	// this path is overwritten.
	OutputPath string
	// Title is the human-readable video title, used for logging only.
	Title string
}

// RenderResult is the successful outcome of a render call.
type RenderResult struct {
	// OutputPath is the path of the written video file.
	OutputPath string
	// ByteSize is the size of the output file in bytes.
	ByteSize int64
	// DurationSeconds is the probed audio duration, which bounds the video.
	DurationSeconds float64
}

// Renderer defines the interface for producing a video from audio + image.
type Renderer interface {
	// Render produces a single video file per the request. It is idempotent
	// per call: re-rendering to the same output path overwrites the file.
	Render(ctx context.Context, req RenderRequest) (RenderResult, error)
}
