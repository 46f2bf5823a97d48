package googlebooks

import (
	"strings"
	"time"
)

// SearchResponse is one page of the volumes listing.
type SearchResponse struct {
	Kind       string   `json:"kind"`
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
	SaleInfo   *SaleInfo  `json:"saleInfo,omitempty"`
}

type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle,omitempty"`
	Authors             []string             `json:"authors,omitempty"`
	Publisher           string               `json:"publisher,omitempty"`
	PublishedDate       string               `json:"publishedDate,omitempty"`
	Description         string               `json:"description,omitempty"`
	PageCount           int                  `json:"pageCount,omitempty"`
	Categories          []string             `json:"categories,omitempty"`
	Language            string               `json:"language,omitempty"`
	ImageLinks          *ImageLinks          `json:"imageLinks,omitempty"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers,omitempty"`
}

type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	ExtraLarge     string `json:"extraLarge,omitempty"`
}

type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type SaleInfo struct {
	ListPrice   *Price `json:"listPrice,omitempty"`
	RetailPrice *Price `json:"retailPrice,omitempty"`
	BuyLink     string `json:"buyLink,omitempty"`
}

type Price struct {
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
}

// ISBN10 returns the ISBN_10 identifier, if any.
func (v Volume) ISBN10() string {
	return v.identifier("ISBN_10")
}

// ISBN13 returns the ISBN_13 identifier, if any.
func (v Volume) ISBN13() string {
	return v.identifier("ISBN_13")
}

func (v Volume) identifier(kind string) string {
	for _, id := range v.VolumeInfo.IndustryIdentifiers {
		if id.Type == kind {
			return id.Identifier
		}
	}
	return ""
}

// FirstAuthor returns the first listed author or an empty string.
func (v Volume) FirstAuthor() string {
	if len(v.VolumeInfo.Authors) == 0 {
		return ""
	}
	return v.VolumeInfo.Authors[0]
}

// ThumbnailURL returns the best small cover link, upgraded to https.
func (v Volume) ThumbnailURL() string {
	links := v.VolumeInfo.ImageLinks
	if links == nil {
		return ""
	}
	link := links.Thumbnail
	if link == "" {
		link = links.SmallThumbnail
	}
	if strings.HasPrefix(link, "http://") {
		link = "https://" + strings.TrimPrefix(link, "http://")
	}
	return link
}

var publishedDateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// PublishedAt parses the catalog's year, year-month or full date. It returns
// nil when the value is absent or in any other shape.
func (v Volume) PublishedAt() *time.Time {
	raw := strings.TrimSpace(v.VolumeInfo.PublishedDate)
	if raw == "" {
		return nil
	}
	for _, layout := range publishedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
