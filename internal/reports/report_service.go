package reports

import (
	"fmt"
	"html/template"
	"path"
	"time"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/charts"
	"emotionchart/internal/logger"
	"emotionchart/internal/models"
	"emotionchart/internal/view"
)

// ReportService builds the HTML pages served and exported by the application
type ReportService struct {
	chartGen    *charts.ChartGenerator
	htmlBuilder *HTMLBuilder
	log         *logger.Logger
	now         func() time.Time
}

// NewReportService creates a new report service
func NewReportService(chartGen *charts.ChartGenerator) *ReportService {
	return &ReportService{
		chartGen:    chartGen,
		htmlBuilder: NewHTMLBuilder(),
		log:         logger.For(logger.ComponentReports),
		now:         time.Now,
	}
}

// Builder exposes the HTML builder for callers that need markdown rendering
func (rs *ReportService) Builder() *HTMLBuilder {
	return rs.htmlBuilder
}

func (rs *ReportService) generatedAt() string {
	return rs.now().UTC().Format("2006-01-02 15:04:05 UTC")
}

func snippetHTML(s charts.ChartSnippet) (template.HTML, template.HTML) {
	return template.HTML(s.Div), template.HTML(s.Script)
}

// LinePage builds the interactive line/dot chart page
func (rs *ReportService) LinePage(ds *models.Dataset) (string, error) {
	snippet, err := rs.chartGen.LineSnippet(ds.Records)
	if err != nil {
		return "", fmt.Errorf("failed to build line chart: %w", err)
	}
	summary, err := rs.htmlBuilder.SummaryHTML(ds, nil)
	if err != nil {
		return "", err
	}

	chart, script := snippetHTML(snippet)
	return rs.htmlBuilder.BuildPage(PageData{
		Title:     "Emotion accuracy",
		Subtitle:  fmt.Sprintf("%d paragraphs from %s", ds.Len(), ds.Source),
		ECharts:   true,
		Chart:     chart,
		Script:    script,
		Summary:   summary,
		Paragraph: "Click a point to read its paragraph.",
	}, rs.generatedAt())
}

// StreamPage builds the interactive streamgraph page with the chunk slider
func (rs *ReportService) StreamPage(ds *models.Dataset, chunkSize int, offset aggregate.Offset) (string, error) {
	layers, err := aggregate.BuildStreamLayers(ds.Records, chunkSize, offset)
	if err != nil {
		return "", err
	}
	snippet, err := rs.chartGen.StreamSnippet(layers)
	if err != nil {
		return "", fmt.Errorf("failed to build streamgraph: %w", err)
	}
	summary, err := rs.htmlBuilder.SummaryHTML(ds, layers)
	if err != nil {
		return "", err
	}

	rs.log.Debug("streamgraph page built", map[string]interface{}{
		"chunk_size": layers.ChunkSize,
		"chunks":     layers.ChunkCount,
		"offset":     string(layers.Offset),
	})

	chart, script := snippetHTML(snippet)
	return rs.htmlBuilder.BuildPage(PageData{
		Title:      "Emotion streamgraph",
		Subtitle:   fmt.Sprintf("%d paragraphs from %s", ds.Len(), ds.Source),
		ECharts:    true,
		ShowSlider: true,
		ChunkSize:  chunkSize,
		Chart:      chart,
		Script:     script + template.HTML(sliderReloadScript),
		Summary:    summary,
	}, rs.generatedAt())
}

// LivePage builds the page whose streamgraph is owned by a server-side view
// and driven over a websocket
func (rs *ReportService) LivePage(chunkSize int) (string, error) {
	return rs.htmlBuilder.BuildPage(PageData{
		Title:      "Live emotion streamgraph",
		Subtitle:   "Rendered on the server, one view per connection",
		ShowSlider: true,
		ChunkSize:  chunkSize,
		Script:     liveScript(false),
	}, rs.generatedAt())
}

// TransitionsPage builds the exploratory page that animates random streams
func (rs *ReportService) TransitionsPage() (string, error) {
	return rs.htmlBuilder.BuildPage(PageData{
		Title:    "Streamgraph transitions",
		Subtitle: fmt.Sprintf("%d random layers, a new frame every %s", view.TransitionLayers, view.TransitionDelay+view.TransitionDuration),
		Chart:    template.HTML(`<button id="pause" type="button">Pause</button>`),
		Script:   liveScript(true),
	}, rs.generatedAt())
}

// ExportIndexPage builds the entry page of an export bundle. Both charts are
// embedded and every artifact is linked relative to the bundle folder.
func (rs *ReportService) ExportIndexPage(ds *models.Dataset, layers *aggregate.StreamLayers, files []string) (string, error) {
	line, err := rs.chartGen.LineSnippet(ds.Records)
	if err != nil {
		return "", err
	}
	stream, err := rs.chartGen.StreamSnippet(layers)
	if err != nil {
		return "", err
	}
	summary, err := rs.htmlBuilder.SummaryHTML(ds, layers)
	if err != nil {
		return "", err
	}

	links := make([]Link, 0, len(files))
	for _, f := range files {
		links = append(links, Link{Href: f, Text: f})
	}

	return rs.htmlBuilder.BuildPage(PageData{
		Title:     "Emotion chart export",
		Subtitle:  fmt.Sprintf("%d paragraphs from %s", ds.Len(), ds.Source),
		ECharts:   true,
		ChunkSize: layers.ChunkSize,
		Chart:     template.HTML(line.Div + stream.Div),
		Script:    template.HTML(line.Script + stream.Script),
		Summary:   summary,
		Links:     links,
	}, rs.generatedAt())
}

// ExportsPage lists stored exports. base prefixes every link.
func (rs *ReportService) ExportsPage(paths []string, base string) (string, error) {
	links := make([]Link, 0, len(paths))
	for _, p := range paths {
		links = append(links, Link{Href: base + p, Text: path.Dir(p)})
	}
	paragraph := "No exports yet. POST /export to create one."
	if len(paths) > 0 {
		paragraph = fmt.Sprintf("%d exports, newest first.", len(paths))
	}
	return rs.htmlBuilder.BuildPage(PageData{
		Title:     "Exports",
		Paragraph: paragraph,
		Links:     links,
	}, rs.generatedAt())
}
