package entities

import (
	"database/sql/driver"
	"fmt"
	"log"
)

// BookStatus is the reading state of a book. The empty value means the book
// has no status yet and is stored as NULL.
type BookStatus string

const (
	BookStatusToRead    BookStatus = "TO_READ"
	BookStatusReading   BookStatus = "READING"
	BookStatusCompleted BookStatus = "COMPLETED"
)

// DefaultBookStatus replaces stored status values this build does not know.
const DefaultBookStatus = BookStatusToRead

// BookSource is the external catalog a book was imported from.
type BookSource string

const (
	BookSourceGoogleBooks BookSource = "google-books"
)

// DefaultBookSource is used for missing and unknown stored sources.
const DefaultBookSource = BookSourceGoogleBooks

var bookStatuses = []BookStatus{BookStatusToRead, BookStatusReading, BookStatusCompleted}

var bookSources = []BookSource{BookSourceGoogleBooks}

// BookStatuses lists every known status in display order.
func BookStatuses() []BookStatus {
	out := make([]BookStatus, len(bookStatuses))
	copy(out, bookStatuses)
	return out
}

// ParseBookStatus returns the status for a raw tag and whether it is known.
func ParseBookStatus(raw string) (BookStatus, bool) {
	for _, s := range bookStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// ParseBookSource returns the source for a raw tag and whether it is known.
func ParseBookSource(raw string) (BookSource, bool) {
	for _, s := range bookSources {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

func (s BookStatus) IsValid() bool {
	_, ok := ParseBookStatus(string(s))
	return ok
}

func (s BookSource) IsValid() bool {
	_, ok := ParseBookSource(string(s))
	return ok
}

func (s BookStatus) String() string {
	return string(s)
}

func (s BookSource) String() string {
	return string(s)
}

// Value stores the status as its tag, or NULL when unset.
func (s BookStatus) Value() (driver.Value, error) {
	if s == "" {
		return nil, nil
	}
	return string(s), nil
}

// Scan reads a stored tag. Unknown tags written by newer builds decode to
// DefaultBookStatus instead of failing the read.
func (s *BookStatus) Scan(src any) error {
	raw, present, err := scanTag(src)
	if err != nil {
		return fmt.Errorf("scan book status: %w", err)
	}
	if !present {
		*s = ""
		return nil
	}
	*s = decodeBookStatus(raw)
	return nil
}

func (s BookSource) Value() (driver.Value, error) {
	if s == "" {
		return string(DefaultBookSource), nil
	}
	return string(s), nil
}

// Scan reads a stored tag, defaulting missing and unknown values to
// DefaultBookSource.
func (s *BookSource) Scan(src any) error {
	raw, present, err := scanTag(src)
	if err != nil {
		return fmt.Errorf("scan book source: %w", err)
	}
	if !present {
		*s = DefaultBookSource
		return nil
	}
	*s = decodeBookSource(raw)
	return nil
}

func decodeBookStatus(raw string) BookStatus {
	if status, ok := ParseBookStatus(raw); ok {
		return status
	}
	log.Printf("[STORE] unknown book status %q, using %s", raw, DefaultBookStatus)
	return DefaultBookStatus
}

func decodeBookSource(raw string) BookSource {
	if source, ok := ParseBookSource(raw); ok {
		return source
	}
	log.Printf("[STORE] unknown book source %q, using %s", raw, DefaultBookSource)
	return DefaultBookSource
}

func scanTag(src any) (string, bool, error) {
	switch v := src.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case []byte:
		return string(v), true, nil
	default:
		return "", false, fmt.Errorf("unsupported type %T", src)
	}
}
