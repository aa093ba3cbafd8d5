package database

import (
	"fmt"
	"time"
)

// SavedImage is a favorite dog image persisted by one of the backends.
type SavedImage struct {
	ID        int64     `db:"id"`
	URL       string    `db:"url"`
	CreatedAt time.Time `db:"created_at"` // zero when the backend stores no timestamp
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// parseTimestamp accepts the formats SQLite produces for CURRENT_TIMESTAMP/strftime and the
// RFC3339 form used by the key-value backends.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}
