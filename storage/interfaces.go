package storage

import "unegui-scraper/models"

// ListingWriter is the interface any storage backend for cleaned listings
// must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	FetchAll() ([]*models.Listing, error)
	Close() error
}
