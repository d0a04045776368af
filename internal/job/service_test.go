package job

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beatforge/typebeat-api/internal/media"
	"github.com/beatforge/typebeat-api/internal/metadata"
	"github.com/beatforge/typebeat-api/internal/storage"
	"github.com/beatforge/typebeat-api/internal/youtube"
)

// fakeRenderer returns a canned result or error. On success it writes a
// plausible output file so later stages can read it.
type fakeRenderer struct {
	err error

	mu    sync.Mutex
	calls int
}

func (f *fakeRenderer) Render(_ context.Context, req media.RenderRequest) (media.RenderResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return media.RenderResult{}, f.err
	}

	payload := bytes.Repeat([]byte("v"), 2048)
	if err := os.WriteFile(req.OutputPath, payload, 0o600); err != nil {
		return media.RenderResult{}, err
	}
	return media.RenderResult{
		OutputPath:      req.OutputPath,
		ByteSize:        int64(len(payload)),
		DurationSeconds: 3.0,
	}, nil
}

// fakePublisher returns a canned result or error.
type fakePublisher struct {
	result youtube.PublishResult
	err    error

	mu    sync.Mutex
	calls int
}

func (f *fakePublisher) Publish(_ context.Context, _ string, _ metadata.VideoMetadata, _ string) (youtube.PublishResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return youtube.PublishResult{}, f.err
	}
	return f.result, nil
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type serviceFixture struct {
	service   *Service
	repo      *MemoryRepository
	store     *storage.LocalStorage
	creds     *youtube.Store
	renderer  *fakeRenderer
	publisher *fakePublisher
}

func newServiceFixture(t *testing.T, renderer *fakeRenderer, publisher *fakePublisher) *serviceFixture {
	t.Helper()

	root := t.TempDir()
	store, err := storage.NewLocalStorage(storage.Dirs{
		Uploads: filepath.Join(root, "uploads"),
		Videos:  filepath.Join(root, "videos"),
		Temp:    filepath.Join(root, "temp"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	creds, err := youtube.NewStore(filepath.Join(root, "credentials"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo := NewMemoryRepository()

	var pub youtube.Publisher
	if publisher != nil {
		pub = publisher
	}

	return &serviceFixture{
		service:   NewService(repo, renderer, pub, creds, store, nil),
		repo:      repo,
		store:     store,
		creds:     creds,
		renderer:  renderer,
		publisher: publisher,
	}
}

// submitTestJob writes fake input files and submits a job for them.
func (fx *serviceFixture) submitTestJob(t *testing.T, userID string) (*Job, string, string) {
	t.Helper()
	ctx := context.Background()

	audioPath, err := fx.store.SaveUpload(ctx, "audio", strings.NewReader("audio"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	imagePath, err := fx.store.SaveUpload(ctx, "cover", strings.NewReader("image"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	j, err := fx.service.Submit(ctx, SubmitInput{
		Request: Request{
			BeatName:     "Midnight Run",
			ArtistType:   "Drake",
			ProducerName: "Producer",
			UserID:       userID,
		},
		AudioPath: audioPath,
		ImagePath: imagePath,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return j, audioPath, imagePath
}

// waitForTerminal polls the repository until the job reaches a terminal state.
func waitForTerminal(t *testing.T, repo Repository, jobID string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := repo.FindByID(context.Background(), jobID)
		if err == nil && (j.Status == StatusCompleted || j.Status == StatusFailed) {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state in time")
	return nil
}

func TestSubmit_ReturnsProcessingSnapshot(t *testing.T) {
	fx := newServiceFixture(t, &fakeRenderer{}, nil)

	j, _, _ := fx.submitTestJob(t, "anonymous")

	if j.Status != StatusProcessing {
		t.Errorf("expected processing snapshot, got %s", j.Status)
	}
	if j.Progress != 0 {
		t.Errorf("expected progress 0, got %d", j.Progress)
	}

	waitForTerminal(t, fx.repo, j.ID)
}

func TestPipeline_CompletesWithoutCredentials(t *testing.T) {
	publisher := &fakePublisher{}
	fx := newServiceFixture(t, &fakeRenderer{}, publisher)

	j, audioPath, imagePath := fx.submitTestJob(t, "anonymous")
	final := waitForTerminal(t, fx.repo, j.ID)

	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (error: %s)", final.Status, final.Error)
	}
	if final.Progress != 100 {
		t.Errorf("expected progress 100, got %d", final.Progress)
	}
	if final.VideoPath == "" {
		t.Error("expected video path on completed job")
	}
	if final.YouTubeURL != "" {
		t.Error("expected no youtube URL when not connected")
	}
	if !strings.Contains(final.Message, "not connected") {
		t.Errorf("expected skip message, got %q", final.Message)
	}
	if publisher.callCount() != 0 {
		t.Error("publisher must not be called without a credential record")
	}

	// Input copies are removed on completion.
	for _, p := range []string{audioPath, imagePath} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected input %s removed", p)
		}
	}
}

func TestPipeline_RenderFailure(t *testing.T) {
	fx := newServiceFixture(t, &fakeRenderer{err: errors.New("encode exited with status 1")}, nil)

	j, audioPath, imagePath := fx.submitTestJob(t, "anonymous")
	final := waitForTerminal(t, fx.repo, j.ID)

	if final.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if !strings.Contains(final.Error, "encode exited") {
		t.Errorf("expected captured error text, got %q", final.Error)
	}
	if final.VideoPath != "" {
		t.Error("failed job must not carry a video path")
	}
	if final.Progress >= 80 {
		t.Errorf("failed render must not advance past the render checkpoint, got %d", final.Progress)
	}

	// Cleanup still runs on failure.
	for _, p := range []string{audioPath, imagePath} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected input %s removed", p)
		}
	}
}

func TestPipeline_PublishSuccess(t *testing.T) {
	publisher := &fakePublisher{
		result: youtube.PublishResult{
			VideoID: "vid-1",
			URL:     "https://www.youtube.com/watch?v=vid-1",
		},
	}
	fx := newServiceFixture(t, &fakeRenderer{}, publisher)

	if err := fx.creds.Save("user-42", youtube.CredentialRecord{
		AccessToken: "tok",
		ExpiresIn:   3600,
		CreatedAt:   time.Now().Unix(),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	j, _, _ := fx.submitTestJob(t, "user-42")
	final := waitForTerminal(t, fx.repo, j.ID)

	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.YouTubeVideoID != "vid-1" {
		t.Errorf("expected published video ID, got %q", final.YouTubeVideoID)
	}
	if final.YouTubeURL != "https://www.youtube.com/watch?v=vid-1" {
		t.Errorf("expected watch URL, got %q", final.YouTubeURL)
	}
	if publisher.callCount() != 1 {
		t.Errorf("expected exactly one publish call, got %d", publisher.callCount())
	}
}

func TestPipeline_PublishFailureIsNonFatal(t *testing.T) {
	publisher := &fakePublisher{err: youtube.ErrNoRefreshToken}
	fx := newServiceFixture(t, &fakeRenderer{}, publisher)

	if err := fx.creds.Save("user-42", youtube.CredentialRecord{
		AccessToken: "stale",
		ExpiresIn:   3600,
		CreatedAt:   time.Now().Add(-2 * time.Hour).Unix(),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	j, _, _ := fx.submitTestJob(t, "user-42")
	final := waitForTerminal(t, fx.repo, j.ID)

	// The render succeeded, so a publish failure never fails the job.
	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.YouTubeError == "" {
		t.Error("expected recorded publish error")
	}
	if final.YouTubeURL != "" {
		t.Error("expected no watch URL on publish failure")
	}
	if final.VideoPath == "" {
		t.Error("expected video path preserved on publish failure")
	}
	if final.Progress != 100 {
		t.Errorf("expected progress 100, got %d", final.Progress)
	}
}

func TestPipeline_NilPublisherSkipsUpload(t *testing.T) {
	fx := newServiceFixture(t, &fakeRenderer{}, nil)

	if err := fx.creds.Save("user-42", youtube.CredentialRecord{AccessToken: "tok"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	j, _, _ := fx.submitTestJob(t, "user-42")
	final := waitForTerminal(t, fx.repo, j.ID)

	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.YouTubeURL != "" || final.YouTubeError != "" {
		t.Error("expected no publish attempt without a configured publisher")
	}
}

func TestGetJob_NotFound(t *testing.T) {
	fx := newServiceFixture(t, &fakeRenderer{}, nil)

	_, err := fx.service.GetJob(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestOutputFilename(t *testing.T) {
	now := time.Unix(1700000000, 0)

	got := outputFilename("Midnight Run/2", now)
	want := "Midnight_Run_2_1700000000.mp4"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
