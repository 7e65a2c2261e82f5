package components

import (
	"hash/fnv"
	"unicode/utf8"
)

// Energy tracks an organism's metabolic state.
// An organism is live only while Value > 0.
type Energy struct {
	Value float64
	Age   uint64 // ticks alive
}

// Organism bundles identity, text payload, lineage and breeding state.
type Organism struct {
	ID         ID
	Text       string
	Generation int // 0 for seeds
	ParentA    ID  // 0 for seeds
	ParentB    ID
	Mutating   bool // true while a breeding request involving this organism is in flight
}

// Appearance holds display attributes derived from the text.
type Appearance struct {
	Hue  float64 // 0..360
	Size float64
}

// Display size bounds.
const (
	minSize = 14.0
	maxSize = 40.0
)

// AppearanceFor derives a stable hue and size for text.
// Identical texts always look the same.
func AppearanceFor(text string) Appearance {
	h := fnv.New32a()
	h.Write([]byte(text))

	size := minSize + 2*float64(utf8.RuneCountInString(text))
	if size > maxSize {
		size = maxSize
	}

	return Appearance{
		Hue:  float64(h.Sum32() % 360),
		Size: size,
	}
}
