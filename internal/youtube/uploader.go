package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/beatforge/typebeat-api/internal/metadata"
)

// Upload protocol constants.
const (
	// musicCategoryID is YouTube's category for music videos.
	musicCategoryID = "10"
	// videoMIMEType declares the payload content type to the platform.
	videoMIMEType = "video/mp4"
	// watchURLTemplate builds the public URL from a video ID.
	watchURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Static errors for upload operations.
var (
	// ErrUploadInit is returned when the resumable-upload initiation fails.
	ErrUploadInit = errors.New("youtube: upload initiation failed")
	// ErrNoUploadURL is returned when the initiation response carries no
	// session location, despite a success status.
	ErrNoUploadURL = errors.New("youtube: no upload URL received")
	// ErrUploadTransfer is returned when the video byte transfer fails.
	ErrUploadTransfer = errors.New("youtube: video upload failed")
	// ErrNoVideoID is returned when the transfer response carries no video
	// ID, despite an accepted status.
	ErrNoVideoID = errors.New("youtube: no video ID received")
)

// PublishResult is the successful outcome of a publish call.
type PublishResult struct {
	// VideoID is the opaque identifier YouTube assigned to the video.
	VideoID string
	// URL is the public watch URL for the video.
	URL string
}

// Publisher defines the interface for publishing a rendered video.
type Publisher interface {
	// Publish uploads the video at videoPath with the given metadata on
	// behalf of userID. It makes at most one initiation call and at most one
	// transfer call; callers retry by invoking Publish again, which starts a
	// fresh upload session.
	Publish(ctx context.Context, videoPath string, meta metadata.VideoMetadata, userID string) (PublishResult, error)
}

// Compile-time check that Client implements Publisher.
var _ Publisher = (*Client)(nil)

// uploadSnippet is the metadata portion of the initiation payload.
type uploadSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"categoryId"`
}

// uploadStatus is the privacy portion of the initiation payload.
type uploadStatus struct {
	PrivacyStatus string `json:"privacyStatus"`
}

// uploadRequest is the full initiation payload.
type uploadRequest struct {
	Snippet uploadSnippet `json:"snippet"`
	Status  uploadStatus  `json:"status"`
}

// uploadResponse carries the created video's ID after the byte transfer.
type uploadResponse struct {
	ID string `json:"id"`
}

// Publish implements Publisher. The access token is refreshed first if the
// stored record has expired; a missing record or failed refresh aborts the
// publish with a typed error.
func (c *Client) Publish(ctx context.Context, videoPath string, meta metadata.VideoMetadata, userID string) (PublishResult, error) {
	rec, err := c.store.Load(userID)
	if err != nil {
		return PublishResult{}, err
	}

	if rec.Expired(time.Now()) {
		rec, err = c.Refresh(ctx, userID, rec)
		if err != nil {
			return PublishResult{}, err
		}
	}

	c.logger.Info("starting youtube upload",
		slog.String("user_id", userID),
		slog.String("video", videoPath),
		slog.String("title", meta.Title),
	)

	sessionURL, err := c.initiateUpload(ctx, rec.AccessToken, meta)
	if err != nil {
		return PublishResult{}, err
	}

	videoID, err := c.transferVideo(ctx, sessionURL, videoPath)
	if err != nil {
		return PublishResult{}, err
	}

	result := PublishResult{
		VideoID: videoID,
		URL:     fmt.Sprintf(watchURLTemplate, videoID),
	}

	c.logger.Info("youtube upload complete",
		slog.String("user_id", userID),
		slog.String("video_id", result.VideoID),
		slog.String("url", result.URL),
	)
	return result, nil
}

// initiateUpload performs phase 1 of the resumable protocol: a metadata-only
// request that yields the session URL for the byte transfer.
func (c *Client) initiateUpload(ctx context.Context, accessToken string, meta metadata.VideoMetadata) (string, error) {
	payload := uploadRequest{
		Snippet: uploadSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryID:  musicCategoryID,
		},
		Status: uploadStatus{PrivacyStatus: "private"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %w", ErrUploadInit, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.uploadURL+"?uploadType=resumable&part=snippet,status", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrUploadInit, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Upload-Content-Type", videoMIMEType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadInit, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadInit, resp.StatusCode, string(respBody))
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", ErrNoUploadURL
	}
	return location, nil
}

// transferVideo performs phase 2: a single PUT of the full video payload to
// the session URL. There is no chunked retry; a partial failure surfaces to
// the caller, who may re-publish with a fresh session.
func (c *Client) transferVideo(ctx context.Context, sessionURL, videoPath string) (string, error) {
	videoData, err := os.ReadFile(videoPath) // #nosec G304 - path is produced by the renderer
	if err != nil {
		return "", fmt.Errorf("%w: read video: %w", ErrUploadTransfer, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, bytes.NewReader(videoData))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrUploadTransfer, err)
	}
	req.Header.Set("Content-Type", videoMIMEType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadTransfer, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrUploadTransfer, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadTransfer, resp.StatusCode, string(respBody))
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return "", fmt.Errorf("%w: parse response: %w", ErrUploadTransfer, err)
	}
	if uploaded.ID == "" {
		return "", ErrNoVideoID
	}
	return uploaded.ID, nil
}
