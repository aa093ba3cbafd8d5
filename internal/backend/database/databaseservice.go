package database

import "context"

type DatabaseService interface {
	// CreateDatabase creates the schema (table, file or keyspace) if it does not exist yet.
	// It is safe to call on every startup.
	CreateDatabase() error
	DoesDatabaseExist() bool
	Close() error

	// CreateSavedImage persists url and returns the stored record. Backends that enforce
	// uniqueness return ErrDuplicateURL for a url that is already present.
	CreateSavedImage(ctx context.Context, url string) (*SavedImage, error)
	// GetSavedImages returns all records, most recently saved first.
	GetSavedImages(ctx context.Context) ([]*SavedImage, error)
}
