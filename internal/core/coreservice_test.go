package core

import (
	"context"
	"errors"
	"testing"

	"github.com/jo-hoe/hotdog/internal/backend/database"
	"github.com/jo-hoe/hotdog/internal/metrics"
)

type stubImageSource struct {
	url string
	err error
}

func (s *stubImageSource) FetchRandom(ctx context.Context) (string, error) {
	return s.url, s.err
}

func newTestCoreService(t *testing.T, databaseType, connectionString string, source ImageSource) *CoreService {
	t.Helper()
	cfg := &ServiceConfig{
		Database: Database{
			Type:             databaseType,
			ConnectionString: connectionString,
		},
	}
	databaseService, err := NewDatabaseService(cfg)
	if err != nil {
		t.Fatalf("NewDatabaseService error: %v", err)
	}
	svc := NewCoreService(databaseService, source, metrics.New())
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func countImages(t *testing.T, svc *CoreService) int {
	t.Helper()
	images, err := svc.GetSavedImages(context.Background())
	if err != nil {
		t.Fatalf("GetSavedImages error: %v", err)
	}
	return len(images)
}

func TestIsValidImageURL(t *testing.T) {
	valid := []string{
		"http://images.dog.ceo/a.jpg",
		"https://images.dog.ceo/a.jpg",
		"https://",
	}
	invalid := []string{
		"",
		"ftp://example.com/dog.jpg",
		"HTTPS://images.dog.ceo/a.jpg",
		" https://images.dog.ceo/a.jpg",
		"images.dog.ceo/a.jpg",
		"javascript:alert(1)",
		"http:/images.dog.ceo/a.jpg",
	}
	for _, url := range valid {
		if !IsValidImageURL(url) {
			t.Errorf("expected %q to be valid", url)
		}
	}
	for _, url := range invalid {
		if IsValidImageURL(url) {
			t.Errorf("expected %q to be invalid", url)
		}
	}
}

func TestSaveImage_InvalidURLLeavesStoreUnchanged(t *testing.T) {
	svc := newTestCoreService(t, "sqlite", ":memory:", &stubImageSource{})
	ctx := context.Background()

	if _, err := svc.SaveImage(ctx, "https://images.dog.ceo/a.jpg"); err != nil {
		t.Fatalf("SaveImage error: %v", err)
	}
	for _, url := range []string{"", "ftp://example.com/dog.jpg", "dog.jpg"} {
		_, err := svc.SaveImage(ctx, url)
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("SaveImage(%q): expected ErrInvalidURL, got %v", url, err)
		}
	}
	if got := countImages(t, svc); got != 1 {
		t.Fatalf("expected 1 stored image, got %d", got)
	}
}

// Scenario: ftp rejected, first https save succeeds, the repeat is a duplicate.
func TestSaveImage_Scenario_TableBackend(t *testing.T) {
	svc := newTestCoreService(t, "sqlite", ":memory:", &stubImageSource{})
	ctx := context.Background()
	url := "https://images.dog.ceo/a.jpg"

	if _, err := svc.SaveImage(ctx, "ftp://example.com/dog.jpg"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if _, err := svc.SaveImage(ctx, url); err != nil {
		t.Fatalf("first save error: %v", err)
	}
	if _, err := svc.SaveImage(ctx, url); !errors.Is(err, database.ErrDuplicateURL) {
		t.Fatalf("expected ErrDuplicateURL, got %v", err)
	}

	images, err := svc.GetSavedImages(ctx)
	if err != nil {
		t.Fatalf("GetSavedImages error: %v", err)
	}
	if len(images) != 1 || images[0].URL != url {
		t.Fatalf("expected exactly one record for %s, got %+v", url, images)
	}
}

func TestSaveImage_Scenario_FileBackend(t *testing.T) {
	svc := newTestCoreService(t, "file", t.TempDir()+"/dogs.txt", &stubImageSource{})
	ctx := context.Background()
	url := "https://images.dog.ceo/a.jpg"

	if _, err := svc.SaveImage(ctx, "ftp://example.com/dog.jpg"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if _, err := svc.SaveImage(ctx, url); err != nil {
		t.Fatalf("first save error: %v", err)
	}
	// append-only: the repeat is stored as a second line
	if _, err := svc.SaveImage(ctx, url); err != nil {
		t.Fatalf("second save error: %v", err)
	}

	images, err := svc.GetSavedImages(ctx)
	if err != nil {
		t.Fatalf("GetSavedImages error: %v", err)
	}
	if len(images) != 2 || images[0].URL != url || images[1].URL != url {
		t.Fatalf("expected two records for %s, got %+v", url, images)
	}
}

func TestGetSavedImages_NewestFirst(t *testing.T) {
	svc := newTestCoreService(t, "sqlite", ":memory:", &stubImageSource{})
	ctx := context.Background()

	if got := countImages(t, svc); got != 0 {
		t.Fatalf("expected empty store, got %d", got)
	}
	if _, err := svc.SaveImage(ctx, "https://images.dog.ceo/u1.jpg"); err != nil {
		t.Fatalf("SaveImage u1 error: %v", err)
	}
	if _, err := svc.SaveImage(ctx, "https://images.dog.ceo/u2.jpg"); err != nil {
		t.Fatalf("SaveImage u2 error: %v", err)
	}

	images, err := svc.GetSavedImages(ctx)
	if err != nil {
		t.Fatalf("GetSavedImages error: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	if images[0].URL != "https://images.dog.ceo/u2.jpg" || images[1].URL != "https://images.dog.ceo/u1.jpg" {
		t.Fatalf("expected [u2, u1], got [%s, %s]", images[0].URL, images[1].URL)
	}
}

func TestFetchRandomImage(t *testing.T) {
	svc := newTestCoreService(t, "sqlite", ":memory:", &stubImageSource{url: "https://images.dog.ceo/r.jpg"})

	url, err := svc.FetchRandomImage(context.Background())
	if err != nil {
		t.Fatalf("FetchRandomImage error: %v", err)
	}
	if url != "https://images.dog.ceo/r.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestFetchRandomImage_PropagatesSourceError(t *testing.T) {
	sourceErr := errors.New("network down")
	svc := newTestCoreService(t, "sqlite", ":memory:", &stubImageSource{err: sourceErr})

	if _, err := svc.FetchRandomImage(context.Background()); !errors.Is(err, sourceErr) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestFetchRandomImage_RejectsInvalidURL(t *testing.T) {
	svc := newTestCoreService(t, "sqlite", ":memory:", &stubImageSource{url: "data:image/png;base64,AAAA"})

	if _, err := svc.FetchRandomImage(context.Background()); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}
