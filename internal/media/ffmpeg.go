package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// minOutputBytes is the smallest plausible size for a real encode; anything
// below this is treated as a failed encode even if ffmpeg exited cleanly.
const minOutputBytes = 1000

// Static errors for render operations.
var (
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
	// ErrDurationMissing is returned when ffprobe output carries no duration.
	ErrDurationMissing = errors.New("no duration in ffprobe output")
	// ErrOutputMissing is returned when the encoder reported success but no
	// output file exists.
	ErrOutputMissing = errors.New("output video file was not created")
	// ErrOutputTooSmall is returned when the output file is implausibly small.
	ErrOutputTooSmall = errors.New("output video file is too small")
)

// Compile-time check that FFmpegRenderer implements Renderer.
var _ Renderer = (*FFmpegRenderer)(nil)

// FFmpegRenderer implements Renderer using the ffmpeg and ffprobe CLIs.
type FFmpegRenderer struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	logger      *slog.Logger
}

// NewFFmpegRenderer creates a new FFmpegRenderer. Empty binary paths default
// to "ffmpeg" / "ffprobe" (found via PATH). tempDir holds the per-render
// scratch image; if empty, os.TempDir() is used.
func NewFFmpegRenderer(ffmpegPath, ffprobePath, tempDir string, logger *slog.Logger) *FFmpegRenderer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegRenderer{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tempDir:     tempDir,
		logger:      logger,
	}
}

// Render implements Renderer. The scratch cover image is removed regardless
// of the outcome of later steps.
func (r *FFmpegRenderer) Render(ctx context.Context, req RenderRequest) (RenderResult, error) {
	r.logger.Info("rendering video",
		slog.String("title", req.Title),
		slog.String("output", req.OutputPath),
	)

	scratch := filepath.Join(r.tempDir, "cover_"+filepath.Base(req.ImagePath)+".jpg")
	if err := normalizeCover(req.ImagePath, scratch); err != nil {
		return RenderResult{}, fmt.Errorf("process cover image: %w", err)
	}
	defer func() { _ = os.Remove(scratch) }()

	duration, err := r.ProbeDuration(ctx, req.AudioPath)
	if err != nil {
		return RenderResult{}, fmt.Errorf("probe audio duration: %w", err)
	}

	if err := r.encode(ctx, req.AudioPath, scratch, req.OutputPath); err != nil {
		return RenderResult{}, err
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return RenderResult{}, ErrOutputMissing
	}
	if info.Size() < minOutputBytes {
		return RenderResult{}, fmt.Errorf("%w: %d bytes", ErrOutputTooSmall, info.Size())
	}

	r.logger.Info("video rendered",
		slog.String("output", req.OutputPath),
		slog.Int64("bytes", info.Size()),
		slog.Float64("duration_sec", duration),
	)

	return RenderResult{
		OutputPath:      req.OutputPath,
		ByteSize:        info.Size(),
		DurationSeconds: duration,
	}, nil
}

// probeFormat mirrors the format section of ffprobe's JSON output.
type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration returns the duration in seconds of a media file using
// ffprobe's JSON output.
func (r *FFmpegRenderer) ProbeDuration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, r.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var probed probeFormat
	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if probed.Format.Duration == "" {
		return 0, ErrDurationMissing
	}

	duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probed.Format.Duration, err)
	}

	return duration, nil
}

// encode loops the still cover over the audio track and writes one
// H.264/AAC MP4. The stream is truncated to the shorter input, which is the
// audio since the looped image is unbounded.
func (r *FFmpegRenderer) encode(ctx context.Context, audioPath, coverPath, outputPath string) error {
	args := []string{
		"-y",
		"-loop", "1",
		"-i", coverPath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-movflags", "+faststart",
		outputPath,
	}
	return r.runFFmpeg(ctx, args)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (r *FFmpegRenderer) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
