package backend

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jo-hoe/hotdog/internal/backend/database"
	"github.com/jo-hoe/hotdog/internal/common"
	"github.com/jo-hoe/hotdog/internal/core"
	"github.com/jo-hoe/hotdog/internal/metrics"

	"github.com/labstack/echo/v4"
)

const (
	// CreatedAtLayout matches SQLite's CURRENT_TIMESTAMP text format.
	CreatedAtLayout = "2006-01-02 15:04:05"

	MessageInvalidURL   = "Invalid image URL format"
	MessageDuplicateURL = "This dog image has already been saved"
	MessageSaveFailed   = "Failed to save dog image"
	MessageListFailed   = "Failed to load saved dog images"
	MessageFetchFailed  = "Failed to fetch random dog image"
)

type APIService struct {
	coreService *core.CoreService
	metrics     *metrics.Metrics
}

type saveDogRequest struct {
	Image string `json:"image" form:"image" validate:"required"`
}

type SavedDog struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

type RandomDog struct {
	URL string `json:"url"`
}

func NewAPIService(coreService *core.CoreService, recorder *metrics.Metrics) *APIService {
	return &APIService{
		coreService: coreService,
		metrics:     recorder,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Set probe route
	e.GET(common.ProbePath, func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	e.POST("/api/save_dog", s.saveDogHandler)
	e.GET("/api/get_saved_dogs", s.getSavedDogsHandler)
	e.GET("/api/random_dog", s.randomDogHandler)
}

func (s *APIService) saveDogHandler(ctx echo.Context) error {
	var request saveDogRequest
	if err := ctx.Bind(&request); err != nil {
		slog.Warn("saveDogHandler: failed to bind request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, MessageInvalidURL)
	}
	if err := ctx.Validate(&request); err != nil {
		slog.Warn("saveDogHandler: invalid request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, MessageInvalidURL)
	}

	if _, err := s.coreService.SaveImage(ctx.Request().Context(), request.Image); err != nil {
		status, message := SaveErrorResponse(err)
		return echo.NewHTTPError(status, message)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *APIService) getSavedDogsHandler(ctx echo.Context) error {
	images, err := s.coreService.GetSavedImages(ctx.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, MessageListFailed)
	}

	dogs := make([]SavedDog, 0, len(images))
	for _, image := range images {
		dogs = append(dogs, ToSavedDog(image))
	}
	return ctx.JSON(http.StatusOK, dogs)
}

func (s *APIService) randomDogHandler(ctx echo.Context) error {
	url, err := s.coreService.FetchRandomImage(ctx.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, MessageFetchFailed)
	}
	return ctx.JSON(http.StatusOK, RandomDog{URL: url})
}

// SaveErrorResponse maps an error from CoreService.SaveImage to a status code and a
// user-readable message.
func SaveErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidURL):
		return http.StatusBadRequest, MessageInvalidURL
	case errors.Is(err, database.ErrDuplicateURL):
		return http.StatusConflict, MessageDuplicateURL
	default:
		return http.StatusInternalServerError, MessageSaveFailed
	}
}

// ToSavedDog converts a stored record into its API representation.
func ToSavedDog(image *database.SavedImage) SavedDog {
	return SavedDog{
		ID:        image.ID,
		URL:       image.URL,
		CreatedAt: FormatCreatedAt(image.CreatedAt),
	}
}

// FormatCreatedAt renders t in UTC, or "" for backends without timestamps.
func FormatCreatedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(CreatedAtLayout)
}
