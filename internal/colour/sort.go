package colour

import (
	"cmp"
	"slices"
)

// Bucket is the channel-dominance group a colour is sorted into.
type Bucket int

const (
	// BucketRed holds colours whose red channel equals the maximum channel.
	BucketRed Bucket = iota
	// BucketGreen holds colours whose green channel is the strict maximum over red.
	BucketGreen
	// BucketBlue holds colours whose blue channel is the strict maximum.
	BucketBlue
	// BucketRest is the fallback group. It cannot be reached with three
	// channels but keeps the partition total.
	BucketRest
)

var bucketNames = [...]string{"red", "green", "blue", "rest"}

// String returns the lower-case bucket name.
func (b Bucket) String() string {
	if b < BucketRed || b > BucketRest {
		return "unknown"
	}
	return bucketNames[b]
}

// Classify returns the bucket of c. Channels are checked in R, G, B order
// against the maximum channel, so ties favour red, then green.
func Classify(c RGB) Bucket {
	top := max(c.R, c.G, c.B)
	switch top {
	case c.R:
		return BucketRed
	case c.G:
		return BucketGreen
	case c.B:
		return BucketBlue
	default:
		return BucketRest
	}
}

// Luma returns the ITU-R BT.601 luma of c on a 0-255 scale.
func Luma(c RGB) float64 {
	// The explicit conversions round each product, which keeps the compiler
	// from fusing them and makes ties identical on every architecture.
	r := float64(0.299 * float64(c.R))
	g := float64(0.587 * float64(c.G))
	b := float64(0.114 * float64(c.B))
	return r + g + b
}

// SortColours returns a new slice with colours grouped into red, green, blue
// and rest buckets, each ordered by ascending luma. Equal-luma colours keep
// their input order.
func SortColours(colours []RGB) []RGB {
	order := sortOrder(colours)
	sorted := make([]RGB, len(order))
	for i, idx := range order {
		sorted[i] = colours[idx]
	}
	return sorted
}

// Sort reorders the palette in place like SortColours, moving each weight
// together with its colour.
func (p *Palette) Sort() {
	order := sortOrder(p.Colours)

	colours := make([]RGB, len(order))
	for i, idx := range order {
		colours[i] = p.Colours[idx]
	}

	if len(p.Weights) == len(p.Colours) {
		weights := make([]float64, len(order))
		for i, idx := range order {
			weights[i] = p.Weights[idx]
		}
		p.Weights = weights
	}
	p.Colours = colours
}

// sortOrder returns the permutation of indices that orders colours.
func sortOrder(colours []RGB) []int {
	var buckets [BucketRest + 1][]int
	for i, c := range colours {
		b := Classify(c)
		buckets[b] = append(buckets[b], i)
	}

	order := make([]int, 0, len(colours))
	for _, bucket := range buckets {
		slices.SortStableFunc(bucket, func(a, b int) int {
			return cmp.Compare(Luma(colours[a]), Luma(colours[b]))
		})
		order = append(order, bucket...)
	}
	return order
}
