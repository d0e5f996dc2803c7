package server

import (
	"bytes"
	"net/http"
	"strconv"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/models"
	"emotionchart/internal/reports"
	"emotionchart/internal/view"
)

func buildLayers(ds *models.Dataset, p chartParams) (*aggregate.StreamLayers, error) {
	return aggregate.BuildStreamLayers(ds.Records, p.ChunkSize, p.Offset)
}

func reportsOptions(p chartParams) reports.ExportOptions {
	return reports.ExportOptions{
		ChunkSize: p.ChunkSize,
		Offset:    p.Offset,
		Width:     p.Width,
		Height:    p.Height,
	}
}

// streamView builds a throwaway server-side view for one request
func streamView(ds *models.Dataset, p chartParams) (*view.StreamView, error) {
	return view.NewStreamView(ds.Records, view.StreamOptions{
		Width:     p.Width,
		Height:    p.Height,
		ChunkSize: p.ChunkSize,
		Offset:    p.Offset,
	})
}

// writeImage buffers a rendering so that a failure can still become an error
// response
func (s *Server) writeImage(w http.ResponseWriter, contentType string, render func(buf *bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.log.Error("failed to render image", err, map[string]interface{}{"content_type": contentType})
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// HandleLineSVG renders the line/dot scene as SVG
func (s *Server) HandleLineSVG(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	ds := s.dataset(w, r, s.Config.LineDataSource)
	if ds == nil {
		return
	}
	s.writeImage(w, "image/svg+xml", func(buf *bytes.Buffer) error {
		v := view.NewLineView(ds.Records)
		defer v.Destroy()
		return v.Scene().WriteSVG(buf)
	})
}

// HandleStreamSVG renders the streamgraph scene as SVG
func (s *Server) HandleStreamSVG(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p, err := s.parseChartParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := s.dataset(w, r, s.Config.DataSource)
	if ds == nil {
		return
	}
	s.writeImage(w, "image/svg+xml", func(buf *bytes.Buffer) error {
		v, err := streamView(ds, p)
		if err != nil {
			return err
		}
		defer v.Destroy()
		return v.Scene().WriteSVG(buf)
	})
}

// HandleLinePNG renders the line/dot chart as PNG
func (s *Server) HandleLinePNG(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	ds := s.dataset(w, r, s.Config.LineDataSource)
	if ds == nil {
		return
	}
	s.writeImage(w, "image/png", func(buf *bytes.Buffer) error {
		return s.Charts.RenderLinePNG(buf, ds.Records)
	})
}

// HandleStreamPNG renders the streamgraph as PNG
func (s *Server) HandleStreamPNG(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p, err := s.parseChartParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := s.dataset(w, r, s.Config.DataSource)
	if ds == nil {
		return
	}
	layers, err := buildLayers(ds, p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeImage(w, "image/png", func(buf *bytes.Buffer) error {
		return s.Charts.RenderStreamPNG(buf, layers)
	})
}

// HandleRecords returns the loaded records. ?source=line selects the line
// chart corpus.
func (s *Server) HandleRecords(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	source := s.Config.DataSource
	if r.URL.Query().Get("source") == "line" {
		source = s.Config.LineDataSource
	}
	ds := s.dataset(w, r, source)
	if ds == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, ds)
}

// HandleLayers returns the stacked layers for a chunk size and offset
func (s *Server) HandleLayers(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p, err := s.parseChartParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := s.dataset(w, r, s.Config.DataSource)
	if ds == nil {
		return
	}
	layers, err := buildLayers(ds, p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, layers)
}

// HandleSelect hit-tests a chunk index and a value in data space. Misses and
// out-of-range indices answer 200 with hit=false.
func (s *Server) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	p, err := s.parseChartParams(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	index, err := strconv.Atoi(q.Get("index"))
	if err != nil {
		http.Error(w, "index must be an integer", http.StatusBadRequest)
		return
	}
	value, err := requiredFloat(q, "value")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ds := s.dataset(w, r, s.Config.DataSource)
	if ds == nil {
		return
	}
	layers, err := buildLayers(ds, p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, layers.Select(index, value))
}

// HandleLegend returns the streamgraph legend layout for a container width
func (s *Server) HandleLegend(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p, err := s.parseChartParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := s.dataset(w, r, s.Config.DataSource)
	if ds == nil {
		return
	}
	v, err := streamView(ds, p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer v.Destroy()

	scene := v.Scene()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"width":  p.Width,
		"height": scene.Height,
		"legend": scene.Legend,
	})
}
