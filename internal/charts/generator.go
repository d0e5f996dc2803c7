package charts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/logger"
	"emotionchart/internal/models"
	"emotionchart/internal/scale"
	"emotionchart/internal/view"
)

// ErrNoRecords is returned by renderers that need at least one record
var ErrNoRecords = errors.New("no records to chart")

// Static chart file names written by GenerateCharts
const (
	LinePNGFile   = "emotion_line.png"
	LineSVGFile   = "emotion_line.svg"
	StreamPNGFile = "emotion_streamgraph.png"
)

// ChartGenerator renders the emotion charts as ECharts snippets, go-echarts
// pages and static images.
type ChartGenerator struct {
	outputDir string
	width     int
	height    int
	log       *logger.Logger
}

// NewChartGenerator creates a new chart generator writing static images to
// outputDir. width and height size the streamgraph.
func NewChartGenerator(outputDir string, width, height int) *ChartGenerator {
	if width <= 0 {
		width = view.DefaultStreamWidth
	}
	if height <= 0 {
		height = view.DefaultStreamHeight
	}
	return &ChartGenerator{
		outputDir: outputDir,
		width:     width,
		height:    height,
		log:       logger.For(logger.ComponentCharts),
	}
}

// OutputDir returns the directory static images are written to
func (cg *ChartGenerator) OutputDir() string {
	return cg.outputDir
}

// GenerateCharts writes every static image for the dataset and returns the
// paths written. A chart that fails is logged and skipped.
func (cg *ChartGenerator) GenerateCharts(ds *models.Dataset, chunkSize int, offset aggregate.Offset) ([]string, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, ErrNoRecords
	}
	if err := os.MkdirAll(cg.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	layers, err := aggregate.BuildStreamLayers(ds.Records, chunkSize, offset)
	if err != nil {
		return nil, err
	}

	jobs := []struct {
		name   string
		render func(f *os.File) error
	}{
		{LinePNGFile, func(f *os.File) error { return cg.RenderLinePNG(f, ds.Records) }},
		{LineSVGFile, func(f *os.File) error { return cg.RenderLineSVG(f, ds.Records) }},
		{StreamPNGFile, func(f *os.File) error { return cg.RenderStreamPNG(f, layers) }},
	}

	var files []string
	for _, job := range jobs {
		path := filepath.Join(cg.outputDir, job.name)
		if err := cg.writeFile(path, job.render); err != nil {
			cg.log.Warn("chart skipped", map[string]interface{}{"file": job.name, "error": err.Error()})
			continue
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no charts could be generated")
	}

	cg.log.Info("static charts generated", map[string]interface{}{"count": len(files), "dir": cg.outputDir})
	return files, nil
}

func (cg *ChartGenerator) writeFile(path string, render func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// lineColors maps an emotion to its line chart color
func lineColors() *scale.Ordinal {
	return scale.NewOrdinal(view.LineColorDomain, scale.Set2)
}

// streamColor returns the fill of a stream layer
func streamColor(key int) colorful.Color {
	return scale.NewSequential(0, float64(models.CategoryCount-1), scale.Cool).Color(float64(key))
}

// toDrawing converts a colorful color for go-chart
func toDrawing(c colorful.Color, alpha uint8) drawing.Color {
	r, g, b := c.Clamped().RGB255()
	return drawing.Color{R: r, G: g, B: b, A: alpha}
}

// percent formats a fraction as a whole percentage
func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
