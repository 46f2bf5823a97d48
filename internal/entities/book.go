package entities

import (
	"time"
)

// Book is a title in the user's library. Identity across catalog re-imports
// is the OriginalBookID, not the row ID.
type Book struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	OriginalBookID string       `gorm:"index;size:64" json:"original_book_id,omitempty"`
	Title          string       `gorm:"index;size:512;not null" json:"title"`
	Author         string       `gorm:"size:256" json:"author,omitempty"`
	ISBN           string       `gorm:"size:20" json:"isbn,omitempty"`
	ISBN13         string       `gorm:"column:isbn13;size:20" json:"isbn13,omitempty"`
	PageCount      int64        `gorm:"default:0" json:"page_count"`
	PublishedDate  *time.Time   `json:"published_date,omitempty"`
	Publisher      string       `gorm:"size:256" json:"publisher,omitempty"`
	Rating         float64      `gorm:"default:0" json:"rating"`
	Source         BookSource   `gorm:"type:text" json:"source"`
	Status         BookStatus   `gorm:"type:text;index" json:"status,omitempty"`
	CoverImageURL  string       `gorm:"size:2048" json:"cover_image_url,omitempty"`
	Logs           []ReadingLog `gorm:"foreignKey:BookID" json:"logs,omitempty"`
	Quotes         []Quote      `gorm:"foreignKey:BookID" json:"quotes,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ReadingLog is one reading session against a book.
type ReadingLog struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	BookID         uint       `gorm:"index;not null" json:"book_id"`
	Date           *time.Time `json:"date,omitempty"`
	StartPage      int64      `json:"start_page"`
	EndPage        int64      `json:"end_page"`
	ReadingSeconds float64    `json:"reading_seconds"`
	Note           *string    `gorm:"type:text" json:"note,omitempty"`
	Book           *Book      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PagesRead returns the number of pages covered by the session, never negative.
func (l ReadingLog) PagesRead() int64 {
	if l.EndPage < l.StartPage {
		return 0
	}
	return l.EndPage - l.StartPage
}

type Quote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"index;not null" json:"book_id"`
	Content   string    `gorm:"type:text" json:"content"`
	Page      int64     `json:"page"`
	Book      *Book     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

func (ReadingLog) TableName() string {
	return "reading_logs"
}

func (Quote) TableName() string {
	return "quotes"
}
