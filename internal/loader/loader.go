package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"emotionchart/internal/logger"
	"emotionchart/internal/models"
)

var (
	// ErrEmptySource is returned when a source has no content at all
	ErrEmptySource = errors.New("source is empty")
	// ErrInvalidAccuracy is returned for an accuracy that is not a finite
	// number in [0, 1]
	ErrInvalidAccuracy = errors.New("accuracy must be a finite number between 0 and 1")
)

// Loader reads emotion records from a local file or an http(s) URL. Requests
// are made once, failures are returned to the caller without retry.
type Loader struct {
	client *resty.Client
	log    *logger.Logger
	now    func() time.Time
}

// New creates a loader with its own HTTP client
func New() *Loader {
	client := resty.New()
	client.SetRetryCount(0)
	client.SetHeader("Accept", "application/json")
	return NewWithClient(client)
}

// NewWithClient creates a loader around an existing client
func NewWithClient(client *resty.Client) *Loader {
	return &Loader{
		client: client,
		log:    logger.For(logger.ComponentLoader),
		now:    time.Now,
	}
}

// rawRecord is one element of the input array
type rawRecord struct {
	Label     string    `json:"label"`
	Accuracy  flexFloat `json:"accuracy"`
	Paragraph string    `json:"paragraph"`
}

// flexFloat accepts a JSON number or a numeric string
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("accuracy %q is not a number", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// IsRemote reports whether source is fetched over HTTP
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads and decodes the source
func (l *Loader) Load(ctx context.Context, source string) (*models.Dataset, error) {
	var (
		body []byte
		err  error
	)
	if IsRemote(source) {
		body, err = l.fetch(ctx, source)
	} else {
		body, err = l.readFile(ctx, source)
	}
	if err != nil {
		l.log.Error("failed to load records", err, map[string]interface{}{"source": source})
		return nil, err
	}

	ds, err := Decode(body, source)
	if err != nil {
		l.log.Error("failed to decode records", err, map[string]interface{}{"source": source})
		return nil, err
	}
	ds.LoadedAt = l.now()

	l.log.Info("records loaded", map[string]interface{}{
		"source":  source,
		"records": ds.Len(),
	})
	return ds, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

func (l *Loader) readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return body, nil
}

// Decode parses a JSON array of {label, accuracy, paragraph} objects. Records
// keep file order and get their position as Index. Labels are normalized;
// labels outside the known set are kept as written, lowercased. A missing or
// null accuracy reads as 0; any accuracy outside [0, 1] aborts the load.
func Decode(body []byte, source string) (*models.Dataset, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptySource)
	}

	var raw []rawRecord
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	records := make([]models.EmotionRecord, len(raw))
	for i, r := range raw {
		acc := float64(r.Accuracy)
		if math.IsNaN(acc) || acc < 0 || acc > 1 {
			return nil, fmt.Errorf("failed to parse %s: record %d has accuracy %v: %w", source, i, acc, ErrInvalidAccuracy)
		}
		label, _ := models.ParseEmotion(r.Label)
		records[i] = models.EmotionRecord{
			Index:     i,
			Label:     label,
			Accuracy:  acc,
			Paragraph: r.Paragraph,
		}
	}
	return &models.Dataset{Source: source, Records: records}, nil
}
