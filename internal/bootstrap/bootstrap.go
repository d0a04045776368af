// Package bootstrap provides dependency initialization for the type beat API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/beatforge/typebeat-api/internal/config"
	"github.com/beatforge/typebeat-api/internal/job"
	"github.com/beatforge/typebeat-api/internal/media"
	"github.com/beatforge/typebeat-api/internal/storage"
	"github.com/beatforge/typebeat-api/internal/youtube"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	JobService *job.Service
	YouTube    *youtube.Client // nil when OAuth credentials are not configured
	Storage    storage.Storage
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize the YouTube credential store and OAuth client
	credStore, err := youtube.NewStore(cfg.CredentialsDir)
	if err != nil {
		return nil, fmt.Errorf("create credential store: %w", err)
	}

	var ytClient *youtube.Client
	if cfg.YouTubeEnabled() {
		ytClient, err = youtube.NewClient(youtube.OAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectURI,
		}, credStore, logger)
		if err != nil {
			return nil, fmt.Errorf("create YouTube client: %w", err)
		}
	} else {
		logger.Warn("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, YouTube upload disabled")
	}

	// Initialize the renderer
	renderer := media.NewFFmpegRenderer(cfg.FFmpegPath, cfg.FFprobePath, store.TempDir(), logger)

	// Initialize job repository and service
	repo := job.NewMemoryRepository()

	var publisher youtube.Publisher
	if ytClient != nil {
		publisher = ytClient
	}

	svc := job.NewService(
		repo,
		renderer,
		publisher,
		credStore,
		store,
		logger,
		job.WithMaxConcurrentJobs(cfg.MaxConcurrentJobs),
	)

	return &Dependencies{
		JobService: svc,
		YouTube:    ytClient,
		Storage:    store,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	dirs := storage.Dirs{
		Uploads: cfg.UploadsDir,
		Videos:  cfg.VideosDir,
		Temp:    cfg.TempDir,
	}

	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(dirs, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 archive configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(dirs)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("uploads_dir", localStore.UploadsDir()),
		slog.String("temp_dir", localStore.TempDir()),
	)
	return localStore, nil
}
