package mocks

import (
	"fmt"
	"math/rand"
	"time"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/models"
)

// MockSource is the Source recorded on generated datasets
const MockSource = "mock://bumps"

var openings = []string{
	"The sea rolled on",
	"Ahab paced the quarter-deck",
	"Queequeg sat by the fire",
	"A squall came down from the north",
	"The crew hauled in silence",
	"Starbuck watched the horizon",
	"Ishmael climbed to the masthead",
	"The lamps burned low in the forecastle",
}

var endings = []string{
	"and nobody spoke.",
	"as the whale sounded far below.",
	"while the old ship groaned.",
	"until the bell struck eight.",
	"and the wind answered.",
	"under a white and empty sky.",
}

// MockService generates synthetic corpora for mockup runs. Per-category
// intensities follow Lee Byron's bump generator, so labels drift in and out
// of dominance the way they do across chapters of a real text.
type MockService struct {
	seed int64
	now  func() time.Time
}

// NewMockService creates a generator. The same seed always yields the same
// corpus.
func NewMockService(seed int64) *MockService {
	return &MockService{seed: seed, now: time.Now}
}

// Records generates n records
func (m *MockService) Records(n int) []models.EmotionRecord {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(m.seed))
	weights := aggregate.RandomMatrix(rng, models.CategoryCount, n, 5)

	records := make([]models.EmotionRecord, n)
	for i, row := range weights {
		best, total := 0, 0.0
		for c, w := range row {
			total += w
			if w > row[best] {
				best = c
			}
		}
		accuracy := 1.0 / float64(models.CategoryCount)
		if total > 0 {
			accuracy = row[best] / total
		}
		records[i] = models.EmotionRecord{
			Index:     i,
			Label:     models.Emotions[best],
			Accuracy:  accuracy,
			Paragraph: fmt.Sprintf("%s %s", openings[rng.Intn(len(openings))], endings[rng.Intn(len(endings))]),
		}
	}
	return records
}

// LoadMockData returns a generated dataset of n records
func (m *MockService) LoadMockData(n int) (*models.Dataset, error) {
	if n <= 0 {
		return nil, fmt.Errorf("mock record count must be positive, got %d", n)
	}
	return &models.Dataset{
		Source:   MockSource,
		LoadedAt: m.now(),
		Records:  m.Records(n),
	}, nil
}
