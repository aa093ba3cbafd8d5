package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jo-hoe/hotdog/internal/backend/database"
	"github.com/jo-hoe/hotdog/internal/metrics"
)

// ErrInvalidURL is returned for image urls that do not use the http or https scheme.
var ErrInvalidURL = errors.New("invalid image URL format")

// ImageSource yields the URL of a random dog image.
type ImageSource interface {
	FetchRandom(ctx context.Context) (string, error)
}

type CoreService struct {
	databaseService database.DatabaseService
	imageSource     ImageSource
	metrics         *metrics.Metrics
}

func NewCoreService(databaseService database.DatabaseService, imageSource ImageSource, recorder *metrics.Metrics) *CoreService {
	return &CoreService{
		databaseService: databaseService,
		imageSource:     imageSource,
		metrics:         recorder,
	}
}

// NewDatabaseService opens the configured storage backend and ensures its schema exists.
func NewDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

// IsValidImageURL only checks the scheme prefix; reachability and content are not verified.
func IsValidImageURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// SaveImage stores url as a favorite. It returns ErrInvalidURL, database.ErrDuplicateURL
// or a *database.StorageError.
func (service *CoreService) SaveImage(ctx context.Context, url string) (*database.SavedImage, error) {
	if !IsValidImageURL(url) {
		slog.Warn("rejected invalid image url", "url", url)
		service.metrics.ObserveSave(metrics.ResultInvalid)
		return nil, ErrInvalidURL
	}

	slog.Info("saving dog image", "url", url)
	image, err := service.databaseService.CreateSavedImage(ctx, url)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrDuplicateURL):
		slog.Info("dog image has already been saved", "url", url)
		service.metrics.ObserveSave(metrics.ResultDuplicate)
		return nil, err
	default:
		slog.Error("failed to save dog image", "url", url, "error", err)
		service.metrics.ObserveSave(metrics.ResultError)
		return nil, err
	}

	service.metrics.ObserveSave(metrics.ResultSuccess)
	slog.Info("dog image saved", "id", image.ID, "url", url)
	return image, nil
}

// GetSavedImages lists saved favorites, most recent first.
func (service *CoreService) GetSavedImages(ctx context.Context) ([]*database.SavedImage, error) {
	images, err := service.databaseService.GetSavedImages(ctx)
	if err != nil {
		slog.Error("failed to retrieve saved dog images", "error", err)
		return nil, err
	}
	slog.Debug("retrieved saved dog images", "count", len(images))
	return images, nil
}

// FetchRandomImage asks the image source for a new dog and checks the returned url.
func (service *CoreService) FetchRandomImage(ctx context.Context) (string, error) {
	url, err := service.imageSource.FetchRandom(ctx)
	if err != nil {
		slog.Error("failed to fetch random dog image", "error", err)
		service.metrics.ObserveFetch(metrics.ResultError)
		return "", err
	}
	if !IsValidImageURL(url) {
		slog.Error("image source returned invalid url", "url", url)
		service.metrics.ObserveFetch(metrics.ResultInvalid)
		return "", fmt.Errorf("image source returned %q: %w", url, ErrInvalidURL)
	}
	service.metrics.ObserveFetch(metrics.ResultSuccess)
	return url, nil
}

func (service *CoreService) Close() error {
	if service.databaseService == nil {
		return nil
	}
	return service.databaseService.Close()
}
