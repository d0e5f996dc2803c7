package models

import (
	"strings"
	"time"
)

// Emotion is one of the fixed classifier labels
type Emotion string

const (
	Anger    Emotion = "anger"
	Fear     Emotion = "fear"
	Sadness  Emotion = "sadness"
	Surprise Emotion = "surprise"
	Joy      Emotion = "joy"
	Love     Emotion = "love"
)

// Emotions lists every category in stack order. The position of an emotion in
// this slice is its category index.
var Emotions = []Emotion{Anger, Fear, Sadness, Surprise, Joy, Love}

// CategoryCount is the number of stacked categories
var CategoryCount = len(Emotions)

// emotionIndex maps a label to its category index
var emotionIndex = map[Emotion]int{
	Anger:    0,
	Fear:     1,
	Sadness:  2,
	Surprise: 3,
	Joy:      4,
	Love:     5,
}

// ParseEmotion normalizes a raw label. The second return value is false for
// labels outside the enumeration.
func ParseEmotion(raw string) (Emotion, bool) {
	e := Emotion(strings.ToLower(strings.TrimSpace(raw)))
	// "sadeness" shows up in older exports of the corpus
	if e == "sadeness" {
		e = Sadness
	}
	_, ok := emotionIndex[e]
	return e, ok
}

// Index returns the category index of the emotion, or -1 if unknown
func (e Emotion) Index() int {
	if i, ok := emotionIndex[e]; ok {
		return i
	}
	return -1
}

// Valid reports whether the emotion belongs to the enumeration
func (e Emotion) Valid() bool {
	return e.Index() >= 0
}

// String returns the label text
func (e Emotion) String() string {
	return string(e)
}

// EmotionFromIndex returns the emotion for a category index
func EmotionFromIndex(i int) (Emotion, bool) {
	if i < 0 || i >= len(Emotions) {
		return "", false
	}
	return Emotions[i], true
}

// EmotionRecord is one classified paragraph of the corpus
type EmotionRecord struct {
	Index     int     `json:"index"`     // position in the source sequence
	Label     Emotion `json:"label"`     // classifier label
	Accuracy  float64 `json:"accuracy"`  // confidence in [0,1]
	Paragraph string  `json:"paragraph"` // source text snippet
}

// Dataset is the full ordered corpus as loaded from its source
type Dataset struct {
	Source   string          `json:"source"`
	LoadedAt time.Time       `json:"loaded_at"`
	Records  []EmotionRecord `json:"records"`
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// LabelCounts counts records per label, unknown labels included
func (d *Dataset) LabelCounts() map[Emotion]int {
	counts := make(map[Emotion]int)
	if d == nil {
		return counts
	}
	for _, r := range d.Records {
		counts[r.Label]++
	}
	return counts
}

// MeanAccuracy returns the average accuracy per label
func (d *Dataset) MeanAccuracy() map[Emotion]float64 {
	sums := make(map[Emotion]float64)
	means := make(map[Emotion]float64)
	if d == nil {
		return means
	}
	counts := d.LabelCounts()
	for _, r := range d.Records {
		sums[r.Label] += r.Accuracy
	}
	for label, sum := range sums {
		means[label] = sum / float64(counts[label])
	}
	return means
}
