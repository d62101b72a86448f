package models

import "time"

// RawListing holds one listing card exactly as the collector saw it.
// It is written to the raw JSON file before any cleaning happens.
type RawListing struct {
	Title       string    `json:"title"`
	PriceText   string    `json:"price_text"`
	Location    string    `json:"location"`
	District    string    `json:"district"`
	AreaSqm     *float64  `json:"area_sqm"`
	Rooms       *int      `json:"rooms"`
	RawBodyText string    `json:"raw_body_text"`
	Link        string    `json:"link"`
	Page        int       `json:"page"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// Listing is a cleaned record. PriceValue is always set and lies inside
// the outlier bounds of the run that produced it.
type Listing struct {
	ID          int64    `json:"id,omitempty"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Location    string   `json:"location"`
	District    string   `json:"district"`
	PriceValue  int64    `json:"price_value"`
	AreaSqm     *float64 `json:"area_sqm"`
	Rooms       *int     `json:"rooms"`
	PricePerSqm *float64 `json:"price_per_sqm"`
}

// Bounds are the price limits derived from one dataset.
type Bounds struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether price lies inside [Lower, Upper].
func (b Bounds) Contains(price int64) bool {
	p := float64(price)
	return p >= b.Lower && p <= b.Upper
}

// DropStats counts rows removed by each cleaning rule.
type DropStats struct {
	DuplicateLink int `json:"duplicate_link"`
	MissingPrice  int `json:"missing_price"`
	PriceOutlier  int `json:"price_outlier"`
	AreaRange     int `json:"area_range"`
	RoomsRange    int `json:"rooms_range"`
}

// Total returns the number of dropped rows.
func (d DropStats) Total() int {
	return d.DuplicateLink + d.MissingPrice + d.PriceOutlier + d.AreaRange + d.RoomsRange
}

// DistrictAggregate summarises listings sharing a canonical district.
type DistrictAggregate struct {
	District           string  `json:"district"`
	Count              int     `json:"count"`
	MeanPrice          float64 `json:"mean_price"`
	MedianPrice        float64 `json:"median_price"`
	MeanArea           float64 `json:"mean_area"`
	AreaSamples        int     `json:"area_samples"`
	MeanPricePerSqm    float64 `json:"mean_price_per_sqm"`
	PricePerSqmSamples int     `json:"price_per_sqm_samples"`
}

// RoomAggregate summarises listings sharing a room count.
type RoomAggregate struct {
	Rooms              int     `json:"rooms"`
	Count              int     `json:"count"`
	MeanPrice          float64 `json:"mean_price"`
	MedianPrice        float64 `json:"median_price"`
	MeanArea           float64 `json:"mean_area"`
	AreaSamples        int     `json:"area_samples"`
	MeanPricePerSqm    float64 `json:"mean_price_per_sqm"`
	PricePerSqmSamples int     `json:"price_per_sqm_samples"`
}

// InsightReport holds the computed analytics over the cleaned dataset.
type InsightReport struct {
	InputRows     int                 `json:"input_rows"`
	TotalListings int                 `json:"total_listings"`
	Bounds        Bounds              `json:"bounds"`
	Dropped       DropStats           `json:"dropped"`
	MeanPrice     float64             `json:"mean_price"`
	MedianPrice   float64             `json:"median_price"`
	MinPrice      int64               `json:"min_price"`
	MaxPrice      int64               `json:"max_price"`
	MostExpensive *Listing            `json:"most_expensive,omitempty"`
	ByDistrict    []DistrictAggregate `json:"by_district"`
	ByRooms       []RoomAggregate     `json:"by_rooms"`
}
