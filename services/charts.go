package services

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"unegui-scraper/models"
	"unegui-scraper/utils"
)

const (
	chartWidth  = 14 * vg.Inch
	chartHeight = 10 * vg.Inch
	histBins    = 20
	// Prices are plotted in millions of tögrög.
	priceUnit = 1_000_000.0
)

// ChartRenderer draws the aggregate figures into one PNG sheet.
type ChartRenderer struct {
	logger *utils.Logger
}

func NewChartRenderer(logger *utils.Logger) *ChartRenderer {
	return &ChartRenderer{logger: logger}
}

// Render writes a 2x2 PNG: price histogram, mean price by district, mean
// price by room count and area against price.
func (c *ChartRenderer) Render(w io.Writer, report *models.InsightReport, listings []*models.Listing) error {
	hist, err := priceHistogram(listings)
	if err != nil {
		return fmt.Errorf("price histogram: %w", err)
	}
	byDistrict, err := districtBars(report.ByDistrict)
	if err != nil {
		return fmt.Errorf("district chart: %w", err)
	}
	byRooms, err := roomBars(report.ByRooms)
	if err != nil {
		return fmt.Errorf("room chart: %w", err)
	}
	scatter, err := areaScatter(listings)
	if err != nil {
		return fmt.Errorf("area scatter: %w", err)
	}

	plots := [][]*plot.Plot{
		{hist, byDistrict},
		{byRooms, scatter},
	}

	img := vgimg.New(chartWidth, chartHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      2,
		PadX:      vg.Millimeter * 8,
		PadY:      vg.Millimeter * 8,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 4,
		PadLeft:   vg.Millimeter * 4,
		PadRight:  vg.Millimeter * 4,
	}

	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	c.logger.Debug("[charts] Rendered %d listings, %d districts, %d room groups",
		len(listings), len(report.ByDistrict), len(report.ByRooms))
	return nil
}

func priceHistogram(listings []*models.Listing) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Price distribution"
	p.X.Label.Text = "Price (million ₮)"
	p.Y.Label.Text = "Listings"

	values := make(plotter.Values, len(listings))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, l := range listings {
		v := float64(l.PriceValue) / priceUnit
		values[i] = v
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	// A histogram needs a non-empty value range.
	if len(values) == 0 || lo == hi {
		return p, nil
	}

	h, err := plotter.NewHist(values, histBins)
	if err != nil {
		return nil, err
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	return p, nil
}

func districtBars(groups []models.DistrictAggregate) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Mean price by district"
	p.Y.Label.Text = "Price (million ₮)"
	if len(groups) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(groups))
	names := make([]string, len(groups))
	for i, g := range groups {
		values[i] = g.MeanPrice / priceUnit
		names[i] = g.District
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(1)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return p, nil
}

func roomBars(groups []models.RoomAggregate) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Mean price by room count"
	p.X.Label.Text = "Rooms"
	p.Y.Label.Text = "Price (million ₮)"
	if len(groups) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(groups))
	names := make([]string, len(groups))
	for i, g := range groups {
		values[i] = g.MeanPrice / priceUnit
		names[i] = strconv.Itoa(g.Rooms)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(2)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

func areaScatter(listings []*models.Listing) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Area vs price"
	p.X.Label.Text = "Area (m²)"
	p.Y.Label.Text = "Price (million ₮)"
	p.Add(plotter.NewGrid())

	var pts plotter.XYs
	for _, l := range listings {
		if l.AreaSqm == nil {
			continue
		}
		pts = append(pts, plotter.XY{X: *l.AreaSqm, Y: float64(l.PriceValue) / priceUnit})
	}
	if len(pts) == 0 {
		return p, nil
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = plotutil.Color(3)
	s.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(s)
	return p, nil
}
