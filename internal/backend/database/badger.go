package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	badgerURLPrefix   = "dog:url:"
	badgerSequenceKey = "dog:seq"
	badgerInMemory    = ":memory:"
)

// BadgerDatabase stores one JSON record per url under a url-derived key, so a
// transactional read of that key is the uniqueness check.
type BadgerDatabase struct {
	db       *badger.DB
	sequence *badger.Sequence
}

type badgerRecord struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBadgerDatabase(path string) (DatabaseService, error) {
	opts := badger.DefaultOptions(path)
	if path == badgerInMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(&badgerLogger{logger: slog.Default().With("component", "badgerdb")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, newStorageError("open", fmt.Errorf("failed to open badger db at %s: %w", path, err))
	}
	return &BadgerDatabase{db: db}, nil
}

func badgerURLKey(url string) []byte {
	return []byte(badgerURLPrefix + url)
}

func (b *BadgerDatabase) CreateDatabase() error {
	if b.sequence != nil {
		return nil
	}
	sequence, err := b.db.GetSequence([]byte(badgerSequenceKey), 100)
	if err != nil {
		return newStorageError("create sequence", err)
	}
	b.sequence = sequence
	return nil
}

func (b *BadgerDatabase) DoesDatabaseExist() bool {
	return b.db != nil && !b.db.IsClosed()
}

func (b *BadgerDatabase) Close() error {
	if b.sequence != nil {
		if err := b.sequence.Release(); err != nil {
			slog.Warn("failed to release badger sequence", "error", err)
		}
		b.sequence = nil
	}
	return b.db.Close()
}

func (b *BadgerDatabase) CreateSavedImage(_ context.Context, url string) (*SavedImage, error) {
	if b.sequence == nil {
		return nil, newStorageError("allocate id", errors.New("database schema not created"))
	}
	next, err := b.sequence.Next()
	if err != nil {
		return nil, newStorageError("allocate id", err)
	}

	record := badgerRecord{ID: int64(next) + 1, URL: url, CreatedAt: time.Now().UTC()}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, newStorageError("encode", err)
	}

	key := badgerURLKey(url)
	err = b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrDuplicateURL
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, payload)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrDuplicateURL), errors.Is(err, badger.ErrConflict):
		// only the url key is read, so a conflict means a concurrent save of the same url
		return nil, ErrDuplicateURL
	default:
		return nil, newStorageError("insert", err)
	}

	return &SavedImage{ID: record.ID, URL: record.URL, CreatedAt: record.CreatedAt}, nil
}

func (b *BadgerDatabase) GetSavedImages(_ context.Context) ([]*SavedImage, error) {
	images := make([]*SavedImage, 0)

	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerURLPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var record badgerRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return fmt.Errorf("failed to decode record %s: %w", string(item.Key()), err)
				}
				images = append(images, &SavedImage{ID: record.ID, URL: record.URL, CreatedAt: record.CreatedAt})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, newStorageError("query", err)
	}

	sort.Slice(images, func(i, j int) bool {
		if !images[i].CreatedAt.Equal(images[j].CreatedAt) {
			return images[i].CreatedAt.After(images[j].CreatedAt)
		}
		return images[i].ID > images[j].ID
	})
	return images, nil
}

// badgerLogger routes badger's internal logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(f, v...))
}

// Infof is demoted to debug, badger reports every compaction at info level.
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}
