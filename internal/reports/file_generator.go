package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/charts"
	"emotionchart/internal/models"
	"emotionchart/internal/storage"
	"emotionchart/internal/view"
)

// Export artifact names
const (
	RecordsFile    = "records.json"
	LayersFile     = "layers.json"
	SummaryFile    = "summary.md"
	DashboardFile  = "dashboard.html"
	StreamSVGFile  = "emotion_streamgraph.svg"
	LineSceneFile  = "emotion_line_scene.svg"
	StylesheetFile = "styles.css"
)

// ExportOptions selects what an export renders
type ExportOptions struct {
	ChunkSize int
	Offset    aggregate.Offset
	Width     float64
	Height    float64
}

// GeneratedFiles contains all files generated for one export
type GeneratedFiles struct {
	FolderPath string
	Files      map[string][]byte
}

// Names returns the generated file names in sorted order
func (g *GeneratedFiles) Names() []string {
	names := make([]string, 0, len(g.Files))
	for name := range g.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileGenerator renders every export artifact
type FileGenerator struct {
	chartGen *charts.ChartGenerator
	service  *ReportService
	now      func() time.Time
}

// NewFileGenerator creates a new file generator
func NewFileGenerator(chartGen *charts.ChartGenerator, service *ReportService) *FileGenerator {
	return &FileGenerator{chartGen: chartGen, service: service, now: time.Now}
}

// GenerateAllFiles renders the artifacts concurrently. Any failure cancels the
// rest and is returned. The index page is rendered last so it can link every
// other artifact.
func (fg *FileGenerator) GenerateAllFiles(ctx context.Context, ds *models.Dataset, opts ExportOptions) (*GeneratedFiles, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, charts.ErrNoRecords
	}
	layers, err := aggregate.BuildStreamLayers(ds.Records, opts.ChunkSize, opts.Offset)
	if err != nil {
		return nil, err
	}

	files := &GeneratedFiles{
		FolderPath: storage.GenerateExportFolderPath(fg.now().UTC(), uuid.New()),
		Files:      make(map[string][]byte),
	}
	var mu sync.Mutex
	put := func(name string, data []byte) {
		mu.Lock()
		files.Files[name] = data
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	render := func(name string, fn func(buf *bytes.Buffer) error) func() error {
		return func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := fn(&buf); err != nil {
				return fmt.Errorf("failed to render %s: %w", name, err)
			}
			put(name, buf.Bytes())
			return nil
		}
	}

	g.Go(render(charts.LinePNGFile, func(buf *bytes.Buffer) error {
		return fg.chartGen.RenderLinePNG(buf, ds.Records)
	}))
	g.Go(render(charts.LineSVGFile, func(buf *bytes.Buffer) error {
		return fg.chartGen.RenderLineSVG(buf, ds.Records)
	}))
	g.Go(render(charts.StreamPNGFile, func(buf *bytes.Buffer) error {
		return fg.chartGen.RenderStreamPNG(buf, layers)
	}))
	g.Go(render(StreamSVGFile, func(buf *bytes.Buffer) error {
		v, err := view.NewStreamView(ds.Records, view.StreamOptions{
			Width:     opts.Width,
			Height:    opts.Height,
			ChunkSize: opts.ChunkSize,
			Offset:    opts.Offset,
		})
		if err != nil {
			return err
		}
		defer v.Destroy()
		return v.Scene().WriteSVG(buf)
	}))
	g.Go(render(LineSceneFile, func(buf *bytes.Buffer) error {
		v := view.NewLineView(ds.Records)
		defer v.Destroy()
		return v.Scene().WriteSVG(buf)
	}))
	g.Go(render(DashboardFile, func(buf *bytes.Buffer) error {
		return fg.chartGen.RenderDashboard(buf, ds.Records, layers)
	}))
	g.Go(render(RecordsFile, func(buf *bytes.Buffer) error {
		return writeJSON(buf, ds)
	}))
	g.Go(render(LayersFile, func(buf *bytes.Buffer) error {
		return writeJSON(buf, layers)
	}))
	g.Go(render(SummaryFile, func(buf *bytes.Buffer) error {
		_, err := buf.WriteString(SummaryMarkdown(ds, layers))
		return err
	}))
	g.Go(render(StylesheetFile, func(buf *bytes.Buffer) error {
		css, err := fg.service.Builder().LoadStaticCSS()
		if err != nil {
			return err
		}
		_, err = buf.WriteString(css)
		return err
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}

	index, err := fg.service.ExportIndexPage(ds, layers, files.Names())
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", storage.IndexFile, err)
	}
	files.Files[storage.IndexFile] = []byte(index)
	return files, nil
}

func writeJSON(buf *bytes.Buffer, v interface{}) error {
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
