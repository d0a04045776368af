package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/beatforge/typebeat-api/internal/job"
	"github.com/beatforge/typebeat-api/internal/storage"
	"github.com/beatforge/typebeat-api/internal/youtube"
)

// maxUploadBytes bounds the in-memory portion of multipart parsing.
const maxUploadBytes = 200 << 20 // 200 MB

// Default form values when the optional fields are omitted.
const (
	defaultProducerName = "Producer"
	defaultUserID       = "anonymous"
)

// JobService is the job operations the HTTP layer depends on.
type JobService interface {
	// Submit creates a job and schedules its pipeline.
	Submit(ctx context.Context, input job.SubmitInput) (*job.Job, error)
	// GetJob retrieves a snapshot of a job by ID.
	GetJob(ctx context.Context, jobID string) (*job.Job, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   JobService
	yt        *youtube.Client
	store     storage.Storage
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance. The youtube client may be nil
// when OAuth credentials are not configured; the YouTube endpoints then
// report the integration as unavailable.
func NewHandlers(service JobService, yt *youtube.Client, store storage.Storage, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		yt:        yt,
		store:     store,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Root handles GET / requests with a service descriptor.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: "Type Beat Video Creator API",
		Status:  "running",
		Endpoints: map[string]string{
			"create_video":    "POST /video/create",
			"job_status":      "GET /video/status/{job_id}",
			"youtube_connect": "GET /youtube/connect/{user_id}",
			"youtube_callback": "GET /youtube/callback",
			"youtube_status":  "GET /youtube/status/{user_id}",
		},
	})
}

// CreateVideo handles POST /video/create multipart submissions.
// Input validation failures are rejected before any job record is created.
func (h *Handlers) CreateVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}

	req := CreateVideoRequest{
		BeatName:     r.FormValue("beatName"),
		ArtistType:   r.FormValue("artistType"),
		ProducerName: r.FormValue("producerName"),
		UserID:       r.FormValue("userId"),
	}
	if req.ProducerName == "" {
		req.ProducerName = defaultProducerName
	}
	if req.UserID == "" {
		req.UserID = defaultUserID
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	audioFile, audioHeader, err := r.FormFile("audioFile")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required", "MISSING_AUDIO")
		return
	}
	defer func() { _ = audioFile.Close() }()

	if !validAudioType(audioHeader) {
		writeError(w, http.StatusBadRequest, "invalid audio file type", "INVALID_AUDIO_TYPE")
		return
	}

	imageFile, imageHeader, err := r.FormFile("coverImage")
	if err != nil {
		writeError(w, http.StatusBadRequest, "cover image is required", "MISSING_IMAGE")
		return
	}
	defer func() { _ = imageFile.Close() }()

	if !validImageType(imageHeader) {
		writeError(w, http.StatusBadRequest, "invalid image file type", "INVALID_IMAGE_TYPE")
		return
	}

	ctx := r.Context()
	audioPath, err := h.store.SaveUpload(ctx, "audio_"+audioHeader.Filename, audioFile)
	if err != nil {
		h.logger.Error("failed to save audio upload", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to store audio file", "UPLOAD_FAILED")
		return
	}
	imagePath, err := h.store.SaveUpload(ctx, "cover_"+imageHeader.Filename, imageFile)
	if err != nil {
		h.logger.Error("failed to save image upload", slog.String("error", err.Error()))
		_ = h.store.Cleanup(ctx, []string{audioPath})
		writeError(w, http.StatusInternalServerError, "failed to store cover image", "UPLOAD_FAILED")
		return
	}

	created, err := h.service.Submit(ctx, job.SubmitInput{
		Request: job.Request{
			BeatName:     req.BeatName,
			ArtistType:   req.ArtistType,
			ProducerName: req.ProducerName,
			UserID:       req.UserID,
		},
		AudioPath: audioPath,
		ImagePath: imagePath,
	})
	if err != nil {
		h.logger.Error("failed to submit job", slog.String("error", err.Error()))
		_ = h.store.Cleanup(ctx, []string{audioPath, imagePath})
		writeError(w, http.StatusInternalServerError, "failed to start video creation", "JOB_CREATION_FAILED")
		return
	}

	h.logger.Info("video creation started",
		slog.String("job_id", created.ID),
		slog.String("beat_name", req.BeatName),
		slog.String("artist_type", req.ArtistType),
	)

	writeJSON(w, http.StatusAccepted, CreateVideoResponse{
		JobID:          created.ID,
		Status:         string(created.Status),
		Message:        "Video creation started",
		CheckStatusURL: "/video/status/" + created.ID,
	})
}

// GetStatus handles GET /video/status/{id} requests.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	found, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, JobStatusResponse{
		JobID:          found.ID,
		Status:         string(found.Status),
		Progress:       found.Progress,
		Message:        found.Message,
		VideoPath:      found.VideoPath,
		YouTubeURL:     found.YouTubeURL,
		YouTubeVideoID: found.YouTubeVideoID,
		YouTubeError:   found.YouTubeError,
		ArchiveURL:     found.ArchiveURL,
		Error:          found.Error,
	})
}

// Connect handles GET /youtube/connect/{user_id} requests.
func (h *Handlers) Connect(w http.ResponseWriter, r *http.Request) {
	if h.yt == nil {
		writeError(w, http.StatusServiceUnavailable, "YouTube integration is not configured", "YOUTUBE_NOT_CONFIGURED")
		return
	}

	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required", "MISSING_USER_ID")
		return
	}

	writeJSON(w, http.StatusOK, ConnectResponse{
		AuthURL: h.yt.AuthURL(userID),
		Message: "Visit this URL to authorize YouTube access",
		UserID:  userID,
	})
}

// Callback handles GET /youtube/callback requests from Google's OAuth flow.
// The state parameter carries the user identifier the grant belongs to.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	if h.yt == nil {
		writeHTML(w, http.StatusServiceUnavailable, callbackPage("Connection Failed", "YouTube integration is not configured"))
		return
	}

	q := r.URL.Query()
	if oauthErr := q.Get("error"); oauthErr != "" {
		writeHTML(w, http.StatusOK, callbackPage("Authorization Failed", "Error: "+oauthErr))
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		writeHTML(w, http.StatusBadRequest, callbackPage("Error", "No authorization code received"))
		return
	}

	if err := h.yt.ExchangeCode(r.Context(), code, state); err != nil {
		h.logger.Error("token exchange failed",
			slog.String("user_id", state),
			slog.String("error", err.Error()),
		)
		writeHTML(w, http.StatusOK, callbackPage("Connection Failed", "Failed to save YouTube credentials"))
		return
	}

	writeHTML(w, http.StatusOK, callbackPage("YouTube Connected!",
		fmt.Sprintf("User %s connected successfully. Videos will now auto-upload to YouTube. You can close this window.", state)))
}

// ConnectionStatus handles GET /youtube/status/{user_id} requests.
func (h *Handlers) ConnectionStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required", "MISSING_USER_ID")
		return
	}

	connected := h.yt != nil && h.yt.Store().Connected(userID)
	message := "YouTube not connected"
	if connected {
		message = "YouTube is connected and ready"
	}

	writeJSON(w, http.StatusOK, ConnectionStatusResponse{
		YouTubeConnected: connected,
		UserID:           userID,
		Message:          message,
	})
}

// validAudioType accepts audio/* plus application/* (browsers commonly send
// application/octet-stream for audio blobs).
func validAudioType(header *multipart.FileHeader) bool {
	ct := header.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "audio/") || strings.HasPrefix(ct, "application/")
}

// validImageType accepts image/* only.
func validImageType(header *multipart.FileHeader) bool {
	return strings.HasPrefix(header.Header.Get("Content-Type"), "image/")
}

// callbackPage renders the minimal HTML page shown at the end of the OAuth flow.
func callbackPage(title, body string) string {
	return fmt.Sprintf(`<html>
<head><title>%s</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h2>%s</h2>
<p>%s</p>
</body>
</html>`, title, title, body)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeHTML writes an HTML response.
func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Error("failed to write HTML response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
