package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/beatforge/typebeat-api/internal/media"
	"github.com/beatforge/typebeat-api/internal/metadata"
	"github.com/beatforge/typebeat-api/internal/storage"
	"github.com/beatforge/typebeat-api/internal/youtube"
)

// defaultMaxConcurrentJobs bounds simultaneously running pipelines; each one
// spawns external ffmpeg/ffprobe processes.
const defaultMaxConcurrentJobs = 3

// SubmitInput contains the parameters for submitting a job. The audio and
// image paths point at per-job input copies already written to upload
// storage; the service removes them when the pipeline finishes.
type SubmitInput struct {
	// Request holds the submitted metadata fields.
	Request Request
	// AudioPath is the stored copy of the uploaded audio track.
	AudioPath string
	// ImagePath is the stored copy of the uploaded cover image.
	ImagePath string
}

// Service orchestrates the job pipeline: render the video, then publish to
// YouTube when the submitting user has a credential record. One background
// unit of work runs per submitted job.
type Service struct {
	repo      Repository
	renderer  media.Renderer
	publisher youtube.Publisher
	creds     *youtube.Store
	store     storage.Storage
	logger    *slog.Logger
	sem       *semaphore.Weighted
}

// ServiceOption is a function that configures a Service.
type ServiceOption func(*Service)

// WithMaxConcurrentJobs bounds how many job pipelines run at once.
func WithMaxConcurrentJobs(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewService creates a new job Service. The publisher may be nil when the
// YouTube integration is not configured; every job then completes without a
// publish attempt.
func NewService(
	repo Repository,
	renderer media.Renderer,
	publisher youtube.Publisher,
	creds *youtube.Store,
	store storage.Storage,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		renderer:  renderer,
		publisher: publisher,
		creds:     creds,
		store:     store,
		logger:    logger,
		sem:       semaphore.NewWeighted(defaultMaxConcurrentJobs),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates a job record and schedules its pipeline in the background.
// It returns a snapshot of the created job as soon as the unit is scheduled;
// callers observe further progress by polling GetJob.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*Job, error) {
	j := New(input.Request)

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.logger.Info("job submitted",
		slog.String("job_id", j.ID),
		slog.String("beat_name", input.Request.BeatName),
		slog.String("artist_type", input.Request.ArtistType),
		slog.String("user_id", input.Request.UserID),
	)

	go s.run(context.WithoutCancel(ctx), j, input)

	return j.Clone(), nil
}

// GetJob retrieves a snapshot of a job by ID.
func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.FindByID(ctx, jobID)
}

// run executes the pipeline for one job. The uploaded input files are
// removed on every branch; cleanup failures are logged, never propagated.
func (s *Service) run(ctx context.Context, j *Job, input SubmitInput) {
	defer s.cleanupInputs(ctx, j.ID, input.AudioPath, input.ImagePath)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		_ = j.Fail(fmt.Sprintf("job admission failed: %v", err))
		s.save(ctx, j)
		return
	}
	defer s.sem.Release(1)

	s.checkpoint(ctx, j, 10, "Preparing files...")

	meta := metadata.Generate(
		input.Request.ArtistType,
		input.Request.BeatName,
		"",
		input.Request.ProducerName,
	)

	outputPath := s.store.VideoPath(outputFilename(input.Request.BeatName, time.Now()))

	s.checkpoint(ctx, j, 30, "Creating video...")

	result, err := s.renderer.Render(ctx, media.RenderRequest{
		AudioPath:  input.AudioPath,
		ImagePath:  input.ImagePath,
		OutputPath: outputPath,
		Title:      meta.Title,
	})
	if err != nil {
		s.logger.Error("render failed",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		_ = j.Fail(err.Error())
		s.save(ctx, j)
		return
	}

	j.SetVideoPath(result.OutputPath)
	s.checkpoint(ctx, j, 80, "Video created successfully!")

	s.archive(ctx, j, result.OutputPath)

	if !s.canPublish(input.Request.UserID) {
		_ = j.Complete("Video created successfully (YouTube not connected)")
		s.save(ctx, j)
		return
	}

	s.checkpoint(ctx, j, 90, "Uploading to YouTube...")

	published, err := s.publisher.Publish(ctx, result.OutputPath, meta, input.Request.UserID)
	if err != nil {
		// Publish failure is non-fatal: the render succeeded and the user
		// still has a playable artifact.
		s.logger.Warn("youtube upload failed",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		j.SetPublishError(err.Error())
		_ = j.Complete("Video created but YouTube upload failed")
	} else {
		j.SetPublished(published.VideoID, published.URL)
		_ = j.Complete("Video uploaded to YouTube successfully!")
	}
	s.save(ctx, j)
}

// canPublish reports whether a publish should be attempted for the user.
// Absence of a credential record is a skip, not an error.
func (s *Service) canPublish(userID string) bool {
	if s.publisher == nil || s.creds == nil {
		return false
	}
	_, err := s.creds.Load(userID)
	return err == nil
}

// checkpoint applies a progress update and persists the job.
func (s *Service) checkpoint(ctx context.Context, j *Job, progress int, message string) {
	j.SetProgress(progress, message)
	s.save(ctx, j)
}

// save persists the job, logging persistence failures.
func (s *Service) save(ctx context.Context, j *Job) {
	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}
}

// archive pushes the rendered video to the archive backend when one is
// configured. Failures are logged only; archiving never affects job state
// beyond recording the URL.
func (s *Service) archive(ctx context.Context, j *Job, videoPath string) {
	f, err := os.Open(videoPath) // #nosec G304 - path is produced by the renderer
	if err != nil {
		s.logger.Warn("archive skipped: cannot open video",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := s.store.Archive(ctx, "videos/"+filepath.Base(videoPath), f)
	if err != nil {
		if !errors.Is(err, storage.ErrArchiveNotConfigured) {
			s.logger.Warn("archive failed",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	j.SetArchiveURL(url)
}

// cleanupInputs removes the per-job input copies. Best effort only.
func (s *Service) cleanupInputs(ctx context.Context, jobID string, paths ...string) {
	if err := s.store.Cleanup(ctx, paths); err != nil {
		s.logger.Warn("input cleanup failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

// outputFilename builds a deterministic output name from the beat title,
// with a timestamp suffix to avoid collisions.
func outputFilename(beatName string, now time.Time) string {
	safe := strings.ReplaceAll(beatName, " ", "_")
	safe = strings.ReplaceAll(safe, "/", "_")
	return fmt.Sprintf("%s_%d.mp4", safe, now.Unix())
}
