package model

import "time"

// AppItem is one fully loaded app record produced from a detail page.
// Items are emitted in the order detail pages complete, which is not
// necessarily the order they appeared in the listing.
type AppItem struct {
	// AppID is the store package identifier taken from the "id" query parameter.
	AppID string `json:"app_id"`

	// URL is the detail page URL the item was loaded from.
	URL string `json:"url"`

	// Name is the app title. Required.
	Name string `json:"name"`

	// Developer is the publisher name.
	Developer string `json:"developer,omitempty"`

	// Genre is the store category.
	Genre string `json:"genre,omitempty"`

	// Price is the listed price ("0" for free apps).
	Price string `json:"price,omitempty"`

	// Rating is the average user rating.
	Rating string `json:"rating,omitempty"`

	// RatingCount is the number of ratings.
	RatingCount string `json:"rating_count,omitempty"`

	// Description is the app description text.
	Description string `json:"description,omitempty"`

	// Updated is the last update date as displayed by the store.
	Updated string `json:"updated,omitempty"`

	// Installs is the install range (e.g. "1,000,000 - 5,000,000").
	Installs string `json:"installs,omitempty"`

	// Version is the current software version.
	Version string `json:"version,omitempty"`

	// OperatingSystem is the minimum supported OS version.
	OperatingSystem string `json:"operating_system,omitempty"`

	// ContentRating is the content rating label.
	ContentRating string `json:"content_rating,omitempty"`

	// FileSize is the download size as displayed by the store.
	FileSize string `json:"file_size,omitempty"`

	// Keyword is the search keyword whose listing led to this item.
	Keyword string `json:"keyword"`

	// Fingerprint identifies the item content; set by the item pipeline.
	Fingerprint string `json:"fingerprint,omitempty"`

	// ScrapedAt is when the item was accepted by the item pipeline.
	ScrapedAt time.Time `json:"scraped_at"`
}

// ItemFields lists the exported column names in output order.
// CSV output and the database use this order.
var ItemFields = []string{
	"app_id",
	"url",
	"name",
	"developer",
	"genre",
	"price",
	"rating",
	"rating_count",
	"description",
	"updated",
	"installs",
	"version",
	"operating_system",
	"content_rating",
	"file_size",
	"keyword",
	"fingerprint",
	"scraped_at",
}

// Values returns the item's field values in ItemFields order.
func (i *AppItem) Values() []string {
	scrapedAt := ""
	if !i.ScrapedAt.IsZero() {
		scrapedAt = i.ScrapedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		i.AppID,
		i.URL,
		i.Name,
		i.Developer,
		i.Genre,
		i.Price,
		i.Rating,
		i.RatingCount,
		i.Description,
		i.Updated,
		i.Installs,
		i.Version,
		i.OperatingSystem,
		i.ContentRating,
		i.FileSize,
		i.Keyword,
		i.Fingerprint,
		scrapedAt,
	}
}
