package aggregate

import (
	"errors"
	"fmt"

	"emotionchart/internal/models"
)

// ErrInvalidChunkSize is returned for chunk sizes below 1
var ErrInvalidChunkSize = errors.New("chunk size must be at least 1")

// Group holds the records of one label in their original relative order
type Group struct {
	Label   models.Emotion
	Records []models.EmotionRecord
}

// GroupByLabel partitions records by label. Groups appear in the order their
// label is first seen.
func GroupByLabel(records []models.EmotionRecord) []Group {
	var groups []Group
	position := make(map[models.Emotion]int)

	for _, r := range records {
		i, ok := position[r.Label]
		if !ok {
			i = len(groups)
			position[r.Label] = i
			groups = append(groups, Group{Label: r.Label})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	return groups
}

// Chunk splits items into contiguous slices of the given size. The last slice
// may be shorter. The returned slices share the input's backing array.
func Chunk[T any](items []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, size)
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks, nil
}

// ChunkRecords is Chunk specialised for emotion records
func ChunkRecords(records []models.EmotionRecord, size int) ([][]models.EmotionRecord, error) {
	return Chunk(records, size)
}

// SumByCategory adds up accuracies per category. Records with unknown labels
// are skipped. An empty chunk yields a zero vector.
func SumByCategory(chunk []models.EmotionRecord) []float64 {
	sums := make([]float64, models.CategoryCount)
	for _, r := range chunk {
		if i := r.Label.Index(); i >= 0 {
			sums[i] += r.Accuracy
		}
	}
	return sums
}

// Dominant picks the record to show for a chunk: among the labels with the
// highest count, the first one seen in the chunk wins, and among its records
// the highest accuracy wins (first seen on equal accuracy). The boolean is
// false for an empty chunk.
func Dominant(chunk []models.EmotionRecord) (models.EmotionRecord, bool) {
	if len(chunk) == 0 {
		return models.EmotionRecord{}, false
	}

	counts := make(map[models.Emotion]int)
	var order []models.Emotion
	for _, r := range chunk {
		if _, seen := counts[r.Label]; !seen {
			order = append(order, r.Label)
		}
		counts[r.Label]++
	}

	best := order[0]
	for _, label := range order[1:] {
		if counts[label] > counts[best] {
			best = label
		}
	}

	var pick models.EmotionRecord
	found := false
	for _, r := range chunk {
		if r.Label != best {
			continue
		}
		if !found || r.Accuracy > pick.Accuracy {
			pick = r
			found = true
		}
	}
	return pick, found
}
