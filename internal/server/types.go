// Package server provides the HTTP boundary for the type beat video API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// CreateVideoRequest holds the multipart form fields for a video submission.
// The audio and image blobs arrive as multipart files alongside these fields.
type CreateVideoRequest struct {
	// BeatName is the beat title.
	BeatName string `validate:"required,min=1,max=200"`
	// ArtistType is the style label the beat is inspired by.
	ArtistType string `validate:"required,min=1,max=100"`
	// ProducerName is the producer credit; defaults to "Producer".
	ProducerName string `validate:"max=100"`
	// UserID identifies the submitting user; defaults to "anonymous".
	UserID string `validate:"max=128"`
}

// CreateVideoResponse is the HTTP response after submitting a video job.
type CreateVideoResponse struct {
	JobID string `json:"jobId"`
	// Status is the initial job status.
	Status string `json:"status"`
	// Message describes what happens next.
	Message string `json:"message"`
	// CheckStatusURL is where the job can be polled.
	CheckStatusURL string `json:"checkStatusUrl"`
}

// JobStatusResponse is the HTTP response for polling a job.
type JobStatusResponse struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	// VideoPath is the local path of the rendered video, once available.
	VideoPath string `json:"videoPath,omitempty"`
	// YouTubeURL is the public watch URL on publish success.
	YouTubeURL string `json:"youtubeUrl,omitempty"`
	// YouTubeVideoID is the platform video identifier on publish success.
	YouTubeVideoID string `json:"videoId,omitempty"`
	// YouTubeError records a publish failure on an otherwise completed job.
	YouTubeError string `json:"youtubeError,omitempty"`
	// ArchiveURL is the S3 archive location, when archiving is configured.
	ArchiveURL string `json:"archiveUrl,omitempty"`
	// Error is the render error when the job failed.
	Error string `json:"error,omitempty"`
}

// ConnectResponse is the HTTP response for starting the YouTube OAuth flow.
type ConnectResponse struct {
	AuthURL string `json:"authUrl"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// ConnectionStatusResponse reports whether a user has YouTube credentials.
type ConnectionStatusResponse struct {
	YouTubeConnected bool   `json:"youtubeConnected"`
	UserID           string `json:"userId"`
	Message          string `json:"message"`
}

// RootResponse describes the service and its endpoints.
type RootResponse struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
