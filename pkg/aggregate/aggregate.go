// Package aggregate turns normalized measurements into binned frequency
// distributions.
//
// Binning is nearest-bin: a value v goes to RoundToEven(v/width)*width. Ties
// (v exactly halfway between two bins) go to the bin with an even index, so
// 35 with width 10 lands in 40 and 25 lands in 20.
package aggregate

import (
	"math"
	"sort"
)

// minWidth guards against zero or negative widths.
const minWidth = 1e-6

// Bin is one bucket of a distribution.
type Bin struct {
	Value float64
	Count int
}

// Distribution is a list of bins. Its order depends on the producer:
// ascending by Value for Distribution, descending by Count for Top.
type Distribution []Bin

// Total is the sum of all counts.
func (d Distribution) Total() int {
	total := 0
	for _, b := range d {
		total += b.Count
	}
	return total
}

// Quantize returns the bin value nearest to v for the given width.
func Quantize(v, width float64) float64 {
	width = clampWidth(width)
	return math.RoundToEven(v/width) * width
}

// NewDistribution counts quantized values, sorted by ascending bin value.
// NaN and infinite values are not counted.
func NewDistribution(values []float64, width float64) Distribution {
	d := count(values, width)
	sort.Slice(d, func(i, j int) bool { return d[i].Value < d[j].Value })
	return d
}

// Top returns the k most populated bins, most populated first. Bins with
// equal counts keep the order in which they were first encountered in values.
// k <= 0 returns all bins.
func Top(values []float64, width float64, k int) Distribution {
	d := count(values, width)
	sort.SliceStable(d, func(i, j int) bool { return d[i].Count > d[j].Count })
	if k > 0 && len(d) > k {
		d = d[:k]
	}
	return d
}

// Percent returns 100*count/total rounded to one decimal, or 0 when total is 0.
func Percent(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(1000*float64(count)/float64(total)) / 10
}

// count returns bins in first-encountered order.
func count(values []float64, width float64) Distribution {
	index := make(map[float64]int)
	var d Distribution
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		b := Quantize(v, width)
		if b == 0 {
			// fold -0 into 0
			b = 0
		}
		i, ok := index[b]
		if !ok {
			i = len(d)
			index[b] = i
			d = append(d, Bin{Value: b})
		}
		d[i].Count++
	}
	return d
}

func clampWidth(width float64) float64 {
	if !(width >= minWidth) || math.IsInf(width, 0) {
		return minWidth
	}
	return width
}
