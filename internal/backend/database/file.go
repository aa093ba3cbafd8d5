package database

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const maxLineLength = 1024 * 1024

// FileDatabase stores one URL per line in an append-only text file.
// It performs no uniqueness check and records no timestamps; the position of a line
// in the file is its identity and its recency.
type FileDatabase struct {
	mu   sync.Mutex
	path string

	// lineCount caches the number of stored lines once counted; guarded by mu.
	lineCount int
	counted   bool
}

func NewFileDatabase(path string) (DatabaseService, error) {
	if strings.TrimSpace(path) == "" {
		return nil, newStorageError("open", errors.New("file path must not be empty"))
	}
	return &FileDatabase{path: path}, nil
}

func (f *FileDatabase) CreateDatabase() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return newStorageError("create directory", err)
		}
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return newStorageError("create file", err)
	}
	return file.Close()
}

func (f *FileDatabase) DoesDatabaseExist() bool {
	info, err := os.Stat(f.path)
	return err == nil && info.Mode().IsRegular()
}

func (f *FileDatabase) Close() error {
	return nil
}

func (f *FileDatabase) CreateSavedImage(_ context.Context, url string) (*SavedImage, error) {
	if strings.ContainsAny(url, "\r\n") {
		return nil, newStorageError("append", errors.New("url contains a line break and cannot be stored"))
	}
	if len(url) >= maxLineLength {
		return nil, newStorageError("append", fmt.Errorf("url exceeds the maximum line length of %d bytes", maxLineLength-1))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.counted {
		count, err := f.countLines()
		if err != nil {
			return nil, newStorageError("read", err)
		}
		f.lineCount, f.counted = count, true
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, newStorageError("open", err)
	}
	if _, err := file.WriteString(url + "\n"); err != nil {
		_ = file.Close()
		f.counted = false
		return nil, newStorageError("append", err)
	}
	if err := file.Close(); err != nil {
		f.counted = false
		return nil, newStorageError("append", err)
	}

	f.lineCount++
	return &SavedImage{ID: int64(f.lineCount), URL: url}, nil
}

func (f *FileDatabase) GetSavedImages(_ context.Context) ([]*SavedImage, error) {
	f.mu.Lock()
	lines, err := f.readLines()
	f.mu.Unlock()
	if err != nil {
		return nil, newStorageError("read", err)
	}

	// newest line last in the file, first in the result
	images := make([]*SavedImage, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		images = append(images, &SavedImage{ID: int64(i + 1), URL: lines[i]})
	}
	return images, nil
}

// readLines returns the non-empty lines of the file. A missing file has no lines.
// Callers must hold f.mu.
func (f *FileDatabase) readLines() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	var lines []string
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// countLines counts the non-empty lines of the file without any limit on line length.
// Callers must hold f.mu.
func (f *FileDatabase) countLines() (int, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = file.Close()
	}()

	reader := bufio.NewReader(file)
	count := 0
	lineHasContent := false
	for {
		b, err := reader.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if b == '\n' {
			if lineHasContent {
				count++
			}
			lineHasContent = false
			continue
		}
		lineHasContent = true
	}
	if lineHasContent {
		count++
	}
	return count, nil
}
