package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"unegui-scraper/models"
	"unegui-scraper/utils"
)

// UnknownDistrict groups listings whose district could not be read.
const UnknownDistrict = "unknown"

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// group collects the samples of one aggregation bucket.
type group struct {
	prices []float64
	areas  []float64
	ppsqm  []float64
}

func (g *group) add(l *models.Listing) {
	g.prices = append(g.prices, float64(l.PriceValue))
	if l.AreaSqm != nil {
		g.areas = append(g.areas, *l.AreaSqm)
	}
	if l.PricePerSqm != nil {
		g.ppsqm = append(g.ppsqm, *l.PricePerSqm)
	}
}

// Generate computes the report over a cleaning result. An empty listing set
// is refused with ErrEmptyDataset.
func (s *InsightService) Generate(res *CleanResult) (*models.InsightReport, error) {
	if res == nil || len(res.Listings) == 0 {
		return nil, ErrEmptyDataset
	}

	report := &models.InsightReport{
		InputRows:     res.InputRows,
		TotalListings: len(res.Listings),
		Bounds:        res.Bounds,
		Dropped:       res.Dropped,
		MinPrice:      res.Listings[0].PriceValue,
		MaxPrice:      res.Listings[0].PriceValue,
		MostExpensive: res.Listings[0],
	}

	all := &group{}
	districts := make(map[string]*group)
	rooms := make(map[int]*group)

	for _, l := range res.Listings {
		all.add(l)

		if l.PriceValue < report.MinPrice {
			report.MinPrice = l.PriceValue
		}
		if l.PriceValue > report.MaxPrice {
			report.MaxPrice = l.PriceValue
			report.MostExpensive = l
		}

		key := l.District
		if key == "" {
			key = UnknownDistrict
		}
		if districts[key] == nil {
			districts[key] = &group{}
		}
		districts[key].add(l)

		if l.Rooms != nil {
			if rooms[*l.Rooms] == nil {
				rooms[*l.Rooms] = &group{}
			}
			rooms[*l.Rooms].add(l)
		}
	}

	report.MeanPrice = round2(mean(all.prices))
	report.MedianPrice = round2(median(all.prices))

	for name, g := range districts {
		report.ByDistrict = append(report.ByDistrict, models.DistrictAggregate{
			District:           name,
			Count:              len(g.prices),
			MeanPrice:          round2(mean(g.prices)),
			MedianPrice:        round2(median(g.prices)),
			MeanArea:           round2(mean(g.areas)),
			AreaSamples:        len(g.areas),
			MeanPricePerSqm:    round2(mean(g.ppsqm)),
			PricePerSqmSamples: len(g.ppsqm),
		})
	}
	sort.Slice(report.ByDistrict, func(i, j int) bool {
		a, b := report.ByDistrict[i], report.ByDistrict[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.District < b.District
	})

	for n, g := range rooms {
		report.ByRooms = append(report.ByRooms, models.RoomAggregate{
			Rooms:              n,
			Count:              len(g.prices),
			MeanPrice:          round2(mean(g.prices)),
			MedianPrice:        round2(median(g.prices)),
			MeanArea:           round2(mean(g.areas)),
			AreaSamples:        len(g.areas),
			MeanPricePerSqm:    round2(mean(g.ppsqm)),
			PricePerSqmSamples: len(g.ppsqm),
		})
	}
	sort.Slice(report.ByRooms, func(i, j int) bool {
		return report.ByRooms[i].Rooms < report.ByRooms[j].Rooms
	})

	s.logger.Info("[insights] %d listings across %d districts and %d room groups",
		report.TotalListings, len(report.ByDistrict), len(report.ByRooms))
	return report, nil
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 UNEGUI RENTAL MARKET SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Input rows          : \033[1m%d\033[0m\n", r.InputRows)
	fmt.Fprintf(w, "  Cleaned listings    : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Dropped             : %d (duplicate %d, no price %d, outlier %d, area %d, rooms %d)\n",
		r.Dropped.Total(), r.Dropped.DuplicateLink, r.Dropped.MissingPrice,
		r.Dropped.PriceOutlier, r.Dropped.AreaRange, r.Dropped.RoomsRange)
	fmt.Fprintf(w, "  Accepted price range: %s – %s\n", formatMNT(r.Bounds.Lower), formatMNT(r.Bounds.Upper))
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics (per month)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Mean price   : \033[1;32m%s\033[0m\n", formatMNT(r.MeanPrice))
	fmt.Fprintf(w, "  Median price : \033[1;32m%s\033[0m\n", formatMNT(r.MedianPrice))
	fmt.Fprintf(w, "  Minimum price: \033[1;32m%s\033[0m\n", formatMNT(float64(r.MinPrice)))
	fmt.Fprintf(w, "  Maximum price: \033[1;32m%s\033[0m\n", formatMNT(float64(r.MaxPrice)))
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", runewidth.Truncate(r.MostExpensive.Title, 60, "..."))
		fmt.Fprintf(w, "  District : %s\n", r.MostExpensive.District)
		fmt.Fprintf(w, "  Price    : \033[1;31m%s\033[0m\n", formatMNT(float64(r.MostExpensive.PriceValue)))
		if r.MostExpensive.Link != "" {
			fmt.Fprintf(w, "  Link     : %s\n", r.MostExpensive.Link)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  By District\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  %s %5s %14s %14s %8s\n", pad("District", 18), "Count", "Mean", "Median", "m²")
	for _, d := range r.ByDistrict {
		fmt.Fprintf(w, "  %s %5d %14s %14s %8s\n",
			pad(d.District, 18), d.Count, formatMNT(d.MeanPrice), formatMNT(d.MedianPrice),
			formatArea(d.MeanArea, d.AreaSamples))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  By Room Count\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ByRooms) == 0 {
		fmt.Fprintf(w, "  No room data\n")
	}
	for _, g := range r.ByRooms {
		fmt.Fprintf(w, "  %s %5d %14s %14s %8s\n",
			pad(strconv.Itoa(g.Rooms)+" өрөө", 18), g.Count, formatMNT(g.MeanPrice), formatMNT(g.MedianPrice),
			formatArea(g.MeanArea, g.AreaSamples))
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// pad truncates or right-pads s to width terminal cells.
func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func formatArea(v float64, samples int) string {
	if samples == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// formatMNT renders a tögrög amount with thousands separators, e.g. "1,250,000₮".
func formatMNT(v float64) string {
	n := int64(v + 0.5)
	if v < 0 {
		n = int64(v - 0.5)
	}
	neg := n < 0
	if neg {
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString("₮")
	return b.String()
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
