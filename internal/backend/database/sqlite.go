package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, newStorageError("open", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases on one handle.
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS dogs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	)`)
	if err != nil {
		return newStorageError("create table", err)
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) CreateSavedImage(ctx context.Context, url string) (*SavedImage, error) {
	var (
		id        int64
		createdAt string
	)
	row := s.db.QueryRowContext(ctx, "INSERT INTO dogs (url) VALUES (?) RETURNING id, created_at", url)
	if err := row.Scan(&id, &createdAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, newStorageError("insert", err)
	}

	created, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, newStorageError("insert", err)
	}
	return &SavedImage{ID: id, URL: url, CreatedAt: created}, nil
}

func (s *SQLiteDatabase) GetSavedImages(ctx context.Context) ([]*SavedImage, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, url, created_at FROM dogs ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, newStorageError("query", err)
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	images := make([]*SavedImage, 0)
	for rows.Next() {
		var (
			img       SavedImage
			createdAt string
		)
		if err := rows.Scan(&img.ID, &img.URL, &createdAt); err != nil {
			return nil, newStorageError("scan", err)
		}
		if img.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, newStorageError("scan", err)
		}
		images = append(images, &img)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("query", err)
	}
	return images, nil
}

// isUniqueViolation reports whether err stems from the UNIQUE constraint on dogs.url.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// primary result code only when extended codes are not reported
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	default:
		return false
	}
}
