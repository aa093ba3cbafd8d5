package frontend

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/jo-hoe/hotdog/internal/backend"
	"github.com/jo-hoe/hotdog/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName      = "index.html"
	FavoritesPageName = "favorites.html"
	dogViewTemplate   = "dog-view"
	appTitle          = "HotDog"
	iconPNGSize       = 180
	mimePNG           = "image/png"

	messageSaved          = "Saved! Here is the next one."
	messageSavedNoNextDog = "Saved! Could not fetch the next dog."
	messageFetchFailed    = "Could not fetch a new dog, showing a default one."
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig

	iconOnce sync.Once
	iconPNG  []byte
	iconErr  error
}

type dogViewData struct {
	Title    string
	ImageURL string
	Message  string
	IsError  bool
}

type favoritesData struct {
	Title string
	Dogs  []backend.SavedDog
	Error string
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = NewTemplate()

	e.GET("/", service.rootRedirectHandler) // Redirect root to index.html
	e.GET("/"+MainPageName, service.indexHandler)
	e.GET("/"+FavoritesPageName, service.favoritesHandler)

	e.GET("/htmx/dog", service.htmxRandomDogHandler)
	e.POST("/htmx/save", service.htmxSaveDogHandler)

	e.GET("/icon.svg", service.iconHandler)
	e.GET("/icon.png", service.iconPNGHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, service.nextDogView(ctx))
}

// htmxRandomDogHandler swaps in a new random dog (the "skip" button)
func (service *FrontendService) htmxRandomDogHandler(ctx echo.Context) error {
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, dogViewTemplate, service.nextDogView(ctx))
}

// htmxSaveDogHandler saves the shown dog and swaps in the next one. On failure the
// current dog stays with the error message below it.
func (service *FrontendService) htmxSaveDogHandler(ctx echo.Context) error {
	image := ctx.FormValue("image")
	service.setNoCache(ctx)

	if _, err := service.coreService.SaveImage(ctx.Request().Context(), image); err != nil {
		status, message := backend.SaveErrorResponse(err)
		slog.Warn("htmxSaveDogHandler: failed to save image", "status", status, "url", image, "error", err)
		shown := image
		if !core.IsValidImageURL(shown) {
			shown = service.config.ImageSource.FallbackImageURL
		}
		// 200 so htmx performs the swap and shows the message
		return ctx.Render(http.StatusOK, dogViewTemplate, dogViewData{
			Title:    appTitle,
			ImageURL: shown,
			Message:  message,
			IsError:  true,
		})
	}

	url, err := service.coreService.FetchRandomImage(ctx.Request().Context())
	if err != nil {
		return ctx.Render(http.StatusOK, dogViewTemplate, dogViewData{
			Title:    appTitle,
			ImageURL: image,
			Message:  messageSavedNoNextDog,
		})
	}
	return ctx.Render(http.StatusOK, dogViewTemplate, dogViewData{
		Title:    appTitle,
		ImageURL: url,
		Message:  messageSaved,
	})
}

func (service *FrontendService) favoritesHandler(ctx echo.Context) error {
	service.setNoCache(ctx)

	images, err := service.coreService.GetSavedImages(ctx.Request().Context())
	if err != nil {
		slog.Error("favoritesHandler: failed to list saved images",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.Render(http.StatusInternalServerError, FavoritesPageName, favoritesData{
			Title: appTitle,
			Error: backend.MessageListFailed,
		})
	}

	dogs := make([]backend.SavedDog, 0, len(images))
	for _, image := range images {
		dogs = append(dogs, backend.ToSavedDog(image))
	}
	return ctx.Render(http.StatusOK, FavoritesPageName, favoritesData{
		Title: appTitle,
		Dogs:  dogs,
	})
}

// nextDogView fetches a random dog and falls back to the configured image when the
// image source is unavailable.
func (service *FrontendService) nextDogView(ctx echo.Context) dogViewData {
	data := dogViewData{Title: appTitle}

	url, err := service.coreService.FetchRandomImage(ctx.Request().Context())
	if err != nil {
		slog.Warn("falling back to default dog image", "error", err)
		data.ImageURL = service.config.ImageSource.FallbackImageURL
		data.Message = messageFetchFailed
		data.IsError = true
		return data
	}
	data.ImageURL = url
	return data
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

func (service *FrontendService) iconPNGHandler(ctx echo.Context) error {
	service.iconOnce.Do(func() {
		data, err := assetsFS.ReadFile("views/icon.svg")
		if err != nil {
			service.iconErr = err
			return
		}
		service.iconPNG, service.iconErr = renderSVGToPNG(data, iconPNGSize)
	})
	if service.iconErr != nil {
		slog.Error("iconPNGHandler: failed to render icon", "status", http.StatusInternalServerError, "error", service.iconErr)
		return ctx.String(http.StatusInternalServerError, "Failed to render icon")
	}
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, mimePNG, service.iconPNG)
}
