package services

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"unegui-scraper/models"
)

// outlierK scales the IQR when widening the quartiles into bounds.
const outlierK = 1.5

// quantile returns the q-th quantile of sorted using linear interpolation
// between closest ranks, the same convention as numpy and pandas.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantile(sorted, 0.5)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// ComputeBounds derives the accepted price range from the prices actually
// present: the Tukey fences Q1-1.5*IQR and Q3+1.5*IQR, clamped to the
// fixed floor and ceiling. prices must not be empty.
func ComputeBounds(prices []int64, floor, ceiling float64) models.Bounds {
	sorted := make([]float64, len(prices))
	for i, p := range prices {
		sorted[i] = float64(p)
	}
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1

	return models.Bounds{
		Q1:    q1,
		Q3:    q3,
		IQR:   iqr,
		Lower: math.Max(floor, q1-outlierK*iqr),
		Upper: math.Min(ceiling, q3+outlierK*iqr),
	}
}
