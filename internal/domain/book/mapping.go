package book

import (
	"github.com/onmir/booktracker/internal/entities"
	"github.com/onmir/booktracker/internal/googlebooks"
)

// RequestFromVolume maps a catalog search result to a create request.
func RequestFromVolume(v googlebooks.Volume) CreateRequest {
	return CreateRequest{
		OriginalBookID: v.ID,
		Title:          v.VolumeInfo.Title,
		Author:         v.FirstAuthor(),
		ISBN:           v.ISBN10(),
		ISBN13:         v.ISBN13(),
		PageCount:      int64(v.VolumeInfo.PageCount),
		PublishedDate:  v.PublishedAt(),
		Publisher:      v.VolumeInfo.Publisher,
		Source:         entities.BookSourceGoogleBooks,
		CoverImageURL:  v.ThumbnailURL(),
	}
}
