package frontend

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jo-hoe/hotdog/internal/backend"
	"github.com/jo-hoe/hotdog/internal/backend/database"
	"github.com/jo-hoe/hotdog/internal/common"
	"github.com/jo-hoe/hotdog/internal/core"
	"github.com/labstack/echo/v4"
)

const fallbackURL = "https://images.dog.ceo/breeds/pitbull/dog-3981540_1280.jpg"

type stubImageSource struct {
	url string
	err error
}

func (s *stubImageSource) FetchRandom(ctx context.Context) (string, error) {
	return s.url, s.err
}

func newTestFrontend(t *testing.T, source core.ImageSource) (*echo.Echo, *core.CoreService) {
	t.Helper()
	databaseService, err := database.NewDatabase(database.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("NewDatabase error: %v", err)
	}
	coreService := core.NewCoreService(databaseService, source, nil)
	t.Cleanup(func() { _ = coreService.Close() })

	config := &core.ServiceConfig{ImageSource: core.ImageSource{FallbackImageURL: fallbackURL}}
	e := common.NewEchoServer()
	NewFrontendService(config, coreService).SetRoutes(e)
	return e, coreService
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func saveRequest(image string) *http.Request {
	form := url.Values{"image": {image}}
	req := httptest.NewRequest(http.MethodPost, "/htmx/save", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestRootRedirectsToIndex(t *testing.T) {
	e, _ := newTestFrontend(t, &stubImageSource{url: "https://images.dog.ceo/r.jpg"})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/"+MainPageName {
		t.Errorf("expected redirect to /%s, got %s", MainPageName, loc)
	}
}

func TestIndexShowsRandomDog(t *testing.T) {
	e, _ := newTestFrontend(t, &stubImageSource{url: "https://images.dog.ceo/r.jpg"})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/"+MainPageName, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `src="https://images.dog.ceo/r.jpg"`) {
		t.Errorf("expected random dog in page, got %s", body)
	}
	if !strings.Contains(body, "HotDog! 🌭") {
		t.Errorf("expected title in page")
	}
}

func TestIndexFallsBackWhenSourceFails(t *testing.T) {
	e, _ := newTestFrontend(t, &stubImageSource{err: errors.New("offline")})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/"+MainPageName, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, fallbackURL) {
		t.Errorf("expected fallback image, got %s", body)
	}
	if !strings.Contains(body, messageFetchFailed) {
		t.Errorf("expected fetch failure message")
	}
}

func TestSkipReturnsFragment(t *testing.T) {
	e, _ := newTestFrontend(t, &stubImageSource{url: "https://images.dog.ceo/next.jpg"})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/htmx/dog", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<html") {
		t.Errorf("expected fragment without document, got %s", body)
	}
	if !strings.Contains(body, `id="dog-view"`) || !strings.Contains(body, "https://images.dog.ceo/next.jpg") {
		t.Errorf("expected dog view with next dog, got %s", body)
	}
}

func TestSaveStoresImageAndShowsNextDog(t *testing.T) {
	e, coreService := newTestFrontend(t, &stubImageSource{url: "https://images.dog.ceo/next.jpg"})

	rec := serve(e, saveRequest("https://images.dog.ceo/a.jpg"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "https://images.dog.ceo/next.jpg") || !strings.Contains(body, messageSaved) {
		t.Errorf("expected next dog and saved message, got %s", body)
	}

	images, err := coreService.GetSavedImages(context.Background())
	if err != nil {
		t.Fatalf("GetSavedImages error: %v", err)
	}
	if len(images) != 1 || images[0].URL != "https://images.dog.ceo/a.jpg" {
		t.Fatalf("expected saved image, got %+v", images)
	}
}

func TestSaveDuplicateShowsMessage(t *testing.T) {
	e, _ := newTestFrontend(t, &stubImageSource{url: "https://images.dog.ceo/next.jpg"})

	serve(e, saveRequest("https://images.dog.ceo/a.jpg"))
	rec := serve(e, saveRequest("https://images.dog.ceo/a.jpg"))

	body := rec.Body.String()
	if !strings.Contains(body, backend.MessageDuplicateURL) {
		t.Errorf("expected duplicate message, got %s", body)
	}
	if !strings.Contains(body, `class="error"`) {
		t.Errorf("expected error styling")
	}
	if !strings.Contains(body, "https://images.dog.ceo/a.jpg") {
		t.Errorf("expected current dog to stay shown")
	}
}

func TestSaveInvalidURLShowsFallback(t *testing.T) {
	e, coreService := newTestFrontend(t, &stubImageSource{url: "https://images.dog.ceo/next.jpg"})

	rec := serve(e, saveRequest("ftp://example.com/dog.jpg"))
	body := rec.Body.String()
	if !strings.Contains(body, backend.MessageInvalidURL) {
		t.Errorf("expected invalid url message, got %s", body)
	}
	if strings.Contains(body, "ftp://example.com/dog.jpg") {
		t.Errorf("invalid url must not be rendered as image")
	}

	images, err := coreService.GetSavedImages(context.Background())
	if err != nil {
		t.Fatalf("GetSavedImages error: %v", err)
	}
	if len(images) != 0 {
		t.Fatalf("expected no saved images, got %d", len(images))
	}
}

func TestFavoritesPage(t *testing.T) {
	e, coreService := newTestFrontend(t, &stubImageSource{url: "https://images.dog.ceo/next.jpg"})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/"+FavoritesPageName, nil))
	if !strings.Contains(rec.Body.String(), "No favorite dogs saved yet! Go save some from the home page.") {
		t.Errorf("expected empty state, got %s", rec.Body.String())
	}

	for _, u := range []string{"https://images.dog.ceo/u1.jpg", "https://images.dog.ceo/u2.jpg"} {
		if _, err := coreService.SaveImage(context.Background(), u); err != nil {
			t.Fatalf("SaveImage(%s) error: %v", u, err)
		}
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/"+FavoritesPageName, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	first := strings.Index(body, "u2.jpg")
	second := strings.Index(body, "u1.jpg")
	if first < 0 || second < 0 || first > second {
		t.Errorf("expected u2 before u1 in favorites, got %s", body)
	}
}

func TestIconPNG(t *testing.T) {
	e, _ := newTestFrontend(t, &stubImageSource{})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/icon.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != mimePNG {
		t.Errorf("expected %s, got %s", mimePNG, ct)
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to decode icon: %v", err)
	}
	if b := img.Bounds(); b.Dx() != iconPNGSize || b.Dy() != iconPNGSize {
		t.Errorf("expected %dx%d icon, got %dx%d", iconPNGSize, iconPNGSize, b.Dx(), b.Dy())
	}
}

func TestIconSVG(t *testing.T) {
	e, _ := newTestFrontend(t, &stubImageSource{})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/icon.svg", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Errorf("expected svg content")
	}
}

func TestRenderSVGToPNG_InvalidSize(t *testing.T) {
	if _, err := renderSVGToPNG([]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}
