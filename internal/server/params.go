package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/config"
)

// chartParams are the query parameters shared by the chunked endpoints
type chartParams struct {
	ChunkSize int
	Offset    aggregate.Offset
	Width     float64
	Height    float64
}

// parseChartParams reads chunk, offset, width and height, falling back to the
// configured defaults for missing values
func (s *Server) parseChartParams(q url.Values) (chartParams, error) {
	p := chartParams{
		ChunkSize: s.Config.ChunkSize,
		Offset:    s.Config.Offset(),
		Width:     float64(s.Config.ChartWidth),
		Height:    float64(s.Config.ChartHeight),
	}

	if v := q.Get("chunk"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("chunk must be an integer, got %q", v)
		}
		if n < config.MinChunkSize || n > config.MaxChunkSize {
			return p, fmt.Errorf("chunk must be between %d and %d, got %d: %w", config.MinChunkSize, config.MaxChunkSize, n, aggregate.ErrInvalidChunkSize)
		}
		p.ChunkSize = n
	}
	if v := q.Get("offset"); v != "" {
		o, err := aggregate.ParseOffset(v)
		if err != nil {
			return p, err
		}
		p.Offset = o
	}

	var err error
	if p.Width, err = positiveFloat(q, "width", p.Width); err != nil {
		return p, err
	}
	if p.Height, err = positiveFloat(q, "height", p.Height); err != nil {
		return p, err
	}
	return p, nil
}

func positiveFloat(q url.Values, key string, def float64) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", key, v)
	}
	return f, nil
}

func requiredFloat(q url.Values, key string) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

// writeJSON encodes v before writing the status, so an unencodable value
// answers 500 instead of a truncated body
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.Error("failed to encode response", err, map[string]interface{}{"status": status})
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)+1))
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// allowMethod rejects requests with any other method
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
