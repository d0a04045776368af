// Package job provides the Job aggregate for tracking render/publish
// requests, the repository port for job state, and the service that drives
// the pipeline (render, then optional YouTube publish) as a background unit
// of work per job.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/beatforge/typebeat-api/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusProcessing indicates the job's pipeline is running.
	StatusProcessing Status = "processing"
	// StatusCompleted indicates the render finished; publish may have
	// succeeded, failed, or been skipped.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the render stage failed.
	StatusFailed Status = "failed"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
// Both completed and failed are terminal.
var validTransitions = map[Status][]Status{
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Request holds the submitted fields that describe what to build.
type Request struct {
	// BeatName is the beat title.
	BeatName string
	// ArtistType is the style label, e.g. "Drake".
	ArtistType string
	// ProducerName is the producer credit; "Producer" when omitted.
	ProducerName string
	// UserID identifies the submitting user; "anonymous" when omitted.
	UserID string
}

// Job represents one submitted render(+publish) request and its tracked
// lifecycle. The background unit that owns the job is its only mutator;
// other callers read snapshots via Clone.
type Job struct {
	mu sync.RWMutex

	// ID is the opaque unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Progress is the percentage of completion (0-100). It never decreases
	// while the job is not terminal.
	Progress int
	// Message is the human-readable progress message.
	Message string
	// Request holds the submitted fields.
	Request Request
	// VideoPath is the local path of the rendered video, set on render success.
	VideoPath string
	// YouTubeURL is the public watch URL, set on publish success.
	YouTubeURL string
	// YouTubeVideoID is the platform's video identifier, set on publish success.
	YouTubeVideoID string
	// YouTubeError records a publish failure. Publish failures do not fail
	// the job; the render output is still usable.
	YouTubeError string
	// ArchiveURL is the S3 archive location of the video, when archiving is
	// configured.
	ArchiveURL string
	// Error contains the render error if the job failed.
	Error string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time
}

// New creates a new Job in processing state with progress 0.
func New(req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        id.Generate(),
		Status:    StatusProcessing,
		Progress:  0,
		Message:   "Starting video creation...",
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// transitionTo changes the job status. Callers must hold the lock.
func (j *Job) transitionTo(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}
	j.Status = status
	j.UpdatedAt = time.Now()
	if status == StatusCompleted || status == StatusFailed {
		j.CompletedAt = j.UpdatedAt
	}
	return nil
}

// SetProgress updates the progress checkpoint and message. Updates are
// ignored once the job is terminal, and progress never moves backwards.
func (j *Job) SetProgress(progress int, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isTerminalLocked() {
		return
	}
	if progress > 100 {
		progress = 100
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	j.Message = message
	j.UpdatedAt = time.Now()
}

// SetVideoPath records the rendered output location.
func (j *Job) SetVideoPath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.VideoPath = path
	j.UpdatedAt = time.Now()
}

// SetPublished records a successful publish.
func (j *Job) SetPublished(videoID, url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.YouTubeVideoID = videoID
	j.YouTubeURL = url
	j.UpdatedAt = time.Now()
}

// SetPublishError records a publish failure. The job itself still completes.
func (j *Job) SetPublishError(errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.YouTubeError = errMsg
	j.UpdatedAt = time.Now()
}

// SetArchiveURL records the archive location of the rendered video.
func (j *Job) SetArchiveURL(url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ArchiveURL = url
	j.UpdatedAt = time.Now()
}

// Complete transitions the job to completed with full progress and a final
// message. Returns ErrInvalidTransition if the job is already terminal.
func (j *Job) Complete(message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionTo(StatusCompleted); err != nil {
		return err
	}
	j.Progress = 100
	j.Message = message
	return nil
}

// Fail transitions the job to failed with the render error text. Progress
// stays at the point reached. Returns ErrInvalidTransition if the job is
// already terminal.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionTo(StatusFailed); err != nil {
		return err
	}
	j.Error = errMsg
	j.Message = "Video creation failed"
	return nil
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is completed or failed.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.isTerminalLocked()
}

func (j *Job) isTerminalLocked() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:             j.ID,
		Status:         j.Status,
		Progress:       j.Progress,
		Message:        j.Message,
		Request:        j.Request,
		VideoPath:      j.VideoPath,
		YouTubeURL:     j.YouTubeURL,
		YouTubeVideoID: j.YouTubeVideoID,
		YouTubeError:   j.YouTubeError,
		ArchiveURL:     j.ArchiveURL,
		Error:          j.Error,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		CompletedAt:    j.CompletedAt,
	}
}
