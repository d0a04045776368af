package job

import (
	"errors"
	"testing"
)

func newTestJob() *Job {
	return New(Request{
		BeatName:     "Midnight",
		ArtistType:   "Drake",
		ProducerName: "Producer",
		UserID:       "anonymous",
	})
}

func TestNew_InitialState(t *testing.T) {
	j := newTestJob()

	if j.ID == "" {
		t.Error("expected generated ID")
	}
	if j.Status != StatusProcessing {
		t.Errorf("expected status %s, got %s", StatusProcessing, j.Status)
	}
	if j.Progress != 0 {
		t.Errorf("expected progress 0, got %d", j.Progress)
	}
	if j.CreatedAt.IsZero() {
		t.Error("expected creation timestamp")
	}
}

func TestComplete(t *testing.T) {
	j := newTestJob()

	if err := j.Complete("done"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", j.Status)
	}
	if j.Progress != 100 {
		t.Errorf("expected progress 100, got %d", j.Progress)
	}
	if j.CompletedAt.IsZero() {
		t.Error("expected completion timestamp")
	}
}

func TestFail(t *testing.T) {
	j := newTestJob()
	j.SetProgress(30, "Creating video...")

	if err := j.Fail("ffmpeg exploded"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Status != StatusFailed {
		t.Errorf("expected failed, got %s", j.Status)
	}
	if j.Error != "ffmpeg exploded" {
		t.Errorf("expected recorded error, got %q", j.Error)
	}
	// Progress stays at the point reached.
	if j.Progress != 30 {
		t.Errorf("expected progress 30, got %d", j.Progress)
	}
	if j.VideoPath != "" {
		t.Error("failed job must not carry a video path")
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	completed := newTestJob()
	_ = completed.Complete("done")
	if err := completed.Fail("late failure"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	failed := newTestJob()
	_ = failed.Fail("broken")
	if err := failed.Complete("late completion"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSetProgress_Monotonic(t *testing.T) {
	j := newTestJob()

	j.SetProgress(30, "Creating video...")
	j.SetProgress(10, "Preparing files...")

	if j.Progress != 30 {
		t.Errorf("progress must not decrease, got %d", j.Progress)
	}
	// The message still updates.
	if j.Message != "Preparing files..." {
		t.Errorf("expected updated message, got %q", j.Message)
	}
}

func TestSetProgress_ClampsAboveHundred(t *testing.T) {
	j := newTestJob()
	j.SetProgress(150, "overrun")
	if j.Progress != 100 {
		t.Errorf("expected clamped progress 100, got %d", j.Progress)
	}
}

func TestSetProgress_IgnoredOnceTerminal(t *testing.T) {
	j := newTestJob()
	_ = j.Complete("done")

	j.SetProgress(50, "should be ignored")

	if j.Progress != 100 {
		t.Errorf("terminal job progress changed to %d", j.Progress)
	}
	if j.Message != "done" {
		t.Errorf("terminal job message changed to %q", j.Message)
	}
}

func TestSetPublished(t *testing.T) {
	j := newTestJob()
	j.SetPublished("vid-1", "https://www.youtube.com/watch?v=vid-1")

	if j.YouTubeVideoID != "vid-1" {
		t.Errorf("expected video ID, got %q", j.YouTubeVideoID)
	}
	if j.YouTubeURL != "https://www.youtube.com/watch?v=vid-1" {
		t.Errorf("expected watch URL, got %q", j.YouTubeURL)
	}
}

func TestClone_Independent(t *testing.T) {
	j := newTestJob()
	j.SetVideoPath("/videos/a.mp4")

	c := j.Clone()
	c.VideoPath = "/videos/other.mp4"
	c.Progress = 99

	if j.VideoPath != "/videos/a.mp4" {
		t.Error("modifying clone must not affect original")
	}
	if j.Progress != 0 {
		t.Error("modifying clone progress must not affect original")
	}
}
