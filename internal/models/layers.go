package models

// Interval is the [baseline, top] extent of one category in one chunk
type Interval struct {
	Baseline float64 `json:"baseline"`
	Top      float64 `json:"top"`
}

// Height returns top - baseline
func (iv Interval) Height() float64 {
	return iv.Top - iv.Baseline
}

// Contains reports whether v lies in the interval, both ends inclusive
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Baseline && v <= iv.Top
}

// Layer is the stacked series of one category, one interval per chunk
type Layer struct {
	Key    int        `json:"key"`
	Label  Emotion    `json:"label"`
	Points []Interval `json:"points"`
}

// Domain is a closed numeric interval used for scale domains
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DominantRecord is the record shown for a chunk in tooltips and the
// paragraph panel. Present is false for an empty chunk.
type DominantRecord struct {
	Chunk   int           `json:"chunk"`
	Present bool          `json:"present"`
	Record  EmotionRecord `json:"record"`
}

// Selection is the result of a streamgraph hit-test
type Selection struct {
	Hit         bool           `json:"hit"`
	Chunk       int            `json:"chunk"`
	Emotion     Emotion        `json:"emotion,omitempty"`
	Accumulated float64        `json:"accumulated"`
	Dominant    *EmotionRecord `json:"dominant,omitempty"`
}
