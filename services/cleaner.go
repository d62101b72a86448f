package services

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"unegui-scraper/models"
	"unegui-scraper/utils"
)

// ErrEmptyDataset is returned when no listing survives cleaning.
var ErrEmptyDataset = errors.New("no listings left after cleaning")

// Plausibility ranges for optional fields. A present value outside the
// range drops the row.
const (
	MinAreaSqm = 10.0
	MaxAreaSqm = 1000.0
	MinRooms   = 1
	MaxRooms   = 10
)

// Scale words: "сая" is million, "мянга" is thousand.
const (
	scaleMillion  = "сая"
	scaleThousand = "мянга"
)

var (
	// priceRegexp captures the leading integer run, thousands separators included.
	priceRegexp = regexp.MustCompile(`\d[\d,]*`)

	// priceColumns are read in order: display text first, numeric value last.
	priceColumns = []string{"price_text", "price", "price_value"}
)

// Cleaner turns the loaded table into validated Listings.
type Cleaner struct {
	logger  *utils.Logger
	floor   float64
	ceiling float64
}

// NewCleaner creates a Cleaner using the given fixed price floor and
// ceiling.
func NewCleaner(floor, ceiling float64, logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, floor: floor, ceiling: ceiling}
}

// CleanResult is the outcome of one cleaning pass.
type CleanResult struct {
	InputRows int
	Listings  []*models.Listing
	Bounds    models.Bounds
	Dropped   models.DropStats
}

// ParsePrice reads the leading integer run of text (commas allowed as
// thousands separators) and applies a million or thousand multiplier when
// the matching scale word appears. Decimal fractions are not read:
// "2.5 сая" gives 2,000,000.
func ParsePrice(text string) (int64, bool) {
	match := priceRegexp.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}

	lower := strings.ToLower(text)
	var scale int64 = 1
	switch {
	case strings.Contains(lower, scaleMillion):
		scale = 1_000_000
	case strings.Contains(lower, scaleThousand):
		scale = 1_000
	}
	if n > math.MaxInt64/scale {
		return 0, false
	}
	return n * scale, true
}

// Clean applies the cleaning rules in order: duplicate links, missing
// price, price outliers, area range, room range. The bounds are computed
// from the rows still present after the missing-price step. When nothing
// survives, the result (with its drop counts) is returned together with
// ErrEmptyDataset.
func (c *Cleaner) Clean(table *models.Table) (*CleanResult, error) {
	res := &CleanResult{InputRows: len(table.Rows)}

	if !hasAny(table, priceColumns...) {
		c.logger.Warn("[cleaner] Input has none of the price columns %v, every row will be dropped", priceColumns)
	}

	seen := make(map[string]struct{})
	priced := make([]*models.Listing, 0, len(table.Rows))

	for _, row := range table.Rows {
		link, _ := row.Get("link", "url")
		if link != "" {
			if _, dup := seen[link]; dup {
				c.logger.Debug("[cleaner] Duplicate link skipped: %s", link)
				res.Dropped.DuplicateLink++
				continue
			}
			seen[link] = struct{}{}
		}

		price, ok := rowPrice(row)
		if !ok {
			res.Dropped.MissingPrice++
			continue
		}

		priced = append(priced, c.buildListing(row, link, price))
	}

	if len(priced) == 0 {
		return res, c.empty(res)
	}

	prices := make([]int64, len(priced))
	for i, l := range priced {
		prices[i] = l.PriceValue
	}
	res.Bounds = ComputeBounds(prices, c.floor, c.ceiling)
	c.logger.Info("[cleaner] Price bounds: Q1=%.0f Q3=%.0f IQR=%.0f → [%.0f, %.0f]",
		res.Bounds.Q1, res.Bounds.Q3, res.Bounds.IQR, res.Bounds.Lower, res.Bounds.Upper)

	for _, l := range priced {
		switch {
		case !res.Bounds.Contains(l.PriceValue):
			res.Dropped.PriceOutlier++
		case l.AreaSqm != nil && (*l.AreaSqm < MinAreaSqm || *l.AreaSqm > MaxAreaSqm):
			res.Dropped.AreaRange++
		case l.Rooms != nil && (*l.Rooms < MinRooms || *l.Rooms > MaxRooms):
			res.Dropped.RoomsRange++
		default:
			if l.AreaSqm != nil && *l.AreaSqm != 0 {
				ppsqm := float64(l.PriceValue) / *l.AreaSqm
				l.PricePerSqm = &ppsqm
			}
			res.Listings = append(res.Listings, l)
		}
	}

	if len(res.Listings) == 0 {
		return res, c.empty(res)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d: duplicate=%d no-price=%d outlier=%d area=%d rooms=%d)",
		res.InputRows, len(res.Listings), res.Dropped.Total(),
		res.Dropped.DuplicateLink, res.Dropped.MissingPrice, res.Dropped.PriceOutlier,
		res.Dropped.AreaRange, res.Dropped.RoomsRange)
	return res, nil
}

func (c *Cleaner) empty(res *CleanResult) error {
	return fmt.Errorf("%w: %d input rows, %d dropped", ErrEmptyDataset, res.InputRows, res.Dropped.Total())
}

func (c *Cleaner) buildListing(row models.Row, link string, price int64) *models.Listing {
	title, _ := row.Get("title")
	location, _ := row.Get("location")

	// A district column holding only the city falls back to the location.
	raw, _ := row.Get("district")
	district := CanonicalDistrict(raw)
	if district == "" {
		district = CanonicalDistrict(location)
	}

	l := &models.Listing{
		Title:      utils.NormaliseText(title),
		Link:       link,
		Location:   utils.NormaliseText(location),
		District:   district,
		PriceValue: price,
	}

	body, _ := row.Get("raw_body_text")
	if area, ok := rowArea(row, body); ok {
		l.AreaSqm = &area
	}
	if rooms, ok := rowRooms(row, body); ok {
		l.Rooms = &rooms
	}
	return l
}

func hasAny(table *models.Table, columns ...string) bool {
	for _, c := range columns {
		if table.Has(c) {
			return true
		}
	}
	return false
}

// rowPrice prefers the display text and falls back to a numeric
// price_value column.
func rowPrice(row models.Row) (int64, bool) {
	if text, ok := row.Get(priceColumns[0], priceColumns[1]); ok {
		if p, ok := ParsePrice(text); ok {
			return p, true
		}
	}
	if v, ok := row.Get(priceColumns[2]); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0 && f < math.MaxInt64 {
			return int64(math.Round(f)), true
		}
	}
	return 0, false
}

func rowArea(row models.Row, body string) (float64, bool) {
	if v, ok := row.Get("area_sqm", "size_sqm", "size"); ok {
		return utils.FirstNumber(v)
	}
	if body != "" {
		return utils.ExtractArea(body)
	}
	return 0, false
}

// rowRooms accepts whole numbers only; "2.5" counts as absent.
func rowRooms(row models.Row, body string) (int, bool) {
	if v, ok := row.Get("rooms"); ok {
		f, ok := utils.FirstNumber(v)
		if !ok || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	if body != "" {
		return utils.ExtractRooms(body)
	}
	return 0, false
}
