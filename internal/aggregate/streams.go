package aggregate

import (
	"emotionchart/internal/models"
)

// DefaultDomain is used when there is nothing to stack
var DefaultDomain = models.Domain{Min: 0, Max: 1}

// StreamLayers is everything a streamgraph build derives from the records
type StreamLayers struct {
	ChunkSize  int                     `json:"chunk_size"`
	ChunkCount int                     `json:"chunk_count"`
	Offset     Offset                  `json:"offset"`
	Sums       [][]float64             `json:"sums"`
	Layers     []models.Layer          `json:"layers"`
	Dominant   []models.DominantRecord `json:"dominant"`
	Domain     models.Domain           `json:"domain"`
}

// BuildStreamLayers chunks the records, sums accuracy per category in each
// chunk, stacks the sums and picks a dominant record per chunk. The result is
// rebuilt from scratch on every call.
func BuildStreamLayers(records []models.EmotionRecord, chunkSize int, offset Offset) (*StreamLayers, error) {
	chunks, err := ChunkRecords(records, chunkSize)
	if err != nil {
		return nil, err
	}

	sums := make([][]float64, len(chunks))
	dominant := make([]models.DominantRecord, len(chunks))
	for i, c := range chunks {
		sums[i] = SumByCategory(c)
		rec, ok := Dominant(c)
		dominant[i] = models.DominantRecord{Chunk: i, Present: ok, Record: rec}
	}

	return StackSums(sums, dominant, chunkSize, offset)
}

// StackSums stacks a precomputed chunk-by-category matrix. It is shared by the
// corpus streamgraph and the synthetic transitions view.
func StackSums(sums [][]float64, dominant []models.DominantRecord, chunkSize int, offset Offset) (*StreamLayers, error) {
	if offset == "" {
		offset = OffsetNone
	}

	series, err := Stack(sums, offset)
	if err != nil {
		return nil, err
	}

	layers := make([]models.Layer, len(series))
	for i, points := range series {
		label, _ := models.EmotionFromIndex(i)
		layers[i] = models.Layer{Key: i, Label: label, Points: points}
	}

	domain, ok := Extent(series)
	if !ok {
		domain = DefaultDomain
	}

	return &StreamLayers{
		ChunkSize:  chunkSize,
		ChunkCount: len(sums),
		Offset:     offset,
		Sums:       sums,
		Layers:     layers,
		Dominant:   dominant,
		Domain:     domain,
	}, nil
}

// Column returns the intervals of every category at one chunk, in stack order.
// ok is false when the chunk index is out of range.
func (s *StreamLayers) Column(chunk int) ([]models.Interval, bool) {
	if s == nil || chunk < 0 || chunk >= s.ChunkCount {
		return nil, false
	}
	col := make([]models.Interval, len(s.Layers))
	for i, l := range s.Layers {
		col[i] = l.Points[chunk]
	}
	return col, true
}

// DominantAt returns the dominant record of a chunk, if there is one
func (s *StreamLayers) DominantAt(chunk int) (*models.EmotionRecord, bool) {
	if s == nil || chunk < 0 || chunk >= len(s.Dominant) {
		return nil, false
	}
	d := s.Dominant[chunk]
	if !d.Present {
		return nil, false
	}
	rec := d.Record
	return &rec, true
}

// Select finds the category whose interval at the given chunk contains value.
// Both interval ends are inclusive and the first matching category wins. A
// miss or an out-of-range chunk returns a Selection with Hit=false.
func (s *StreamLayers) Select(chunk int, value float64) models.Selection {
	sel := models.Selection{Chunk: chunk}
	col, ok := s.Column(chunk)
	if !ok {
		return sel
	}
	if rec, ok := s.DominantAt(chunk); ok {
		sel.Dominant = rec
	}
	for i, iv := range col {
		if iv.Contains(value) {
			sel.Hit = true
			sel.Emotion = s.Layers[i].Label
			sel.Accumulated = iv.Height()
			break
		}
	}
	return sel
}
