package reports

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/charts"
	"emotionchart/internal/config"
	"emotionchart/internal/models"
)

// Link is an entry of a page's link list
type Link struct {
	Href string
	Text string
}

// PageData is what a caller supplies for one page
type PageData struct {
	Title      string
	Subtitle   string
	ECharts    bool
	ShowSlider bool
	ChunkSize  int
	Chart      template.HTML
	Script     template.HTML
	Summary    template.HTML
	Paragraph  string
	Links      []Link
}

// templateData is PageData plus what the builder fills in
type templateData struct {
	PageData
	CSS         template.CSS
	EChartsCDN  string
	MinChunk    int
	MaxChunk    int
	Version     string
	GeneratedAt string
}

// HTMLBuilder handles HTML generation with goldmark and html/template
type HTMLBuilder struct {
	templateLoader *TemplateLoader
	goldmark       goldmark.Markdown

	once sync.Once
	tmpl *template.Template
	css  string
	err  error
}

// NewHTMLBuilder creates an HTML builder
func NewHTMLBuilder() *HTMLBuilder {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)

	return &HTMLBuilder{
		templateLoader: NewTemplateLoader(),
		goldmark:       md,
	}
}

// ConvertMarkdownToHTML converts markdown to HTML using goldmark. Raw HTML in
// the input is dropped.
func (h *HTMLBuilder) ConvertMarkdownToHTML(markdownContent string) (string, error) {
	var buf bytes.Buffer
	if err := h.goldmark.Convert([]byte(markdownContent), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return buf.String(), nil
}

// LoadStaticCSS returns the page stylesheet
func (h *HTMLBuilder) LoadStaticCSS() (string, error) {
	if err := h.load(); err != nil {
		return "", err
	}
	return h.css, nil
}

func (h *HTMLBuilder) load() error {
	h.once.Do(func() {
		raw, err := h.templateLoader.LoadHTMLTemplate()
		if err != nil {
			h.err = err
			return
		}
		h.tmpl, err = template.New("page").Parse(raw)
		if err != nil {
			h.err = fmt.Errorf("failed to parse template: %w", err)
			return
		}
		h.css, h.err = h.templateLoader.LoadCSSStyles()
	})
	return h.err
}

// BuildPage renders a complete HTML document
func (h *HTMLBuilder) BuildPage(data PageData, generatedAt string) (string, error) {
	if err := h.load(); err != nil {
		return "", err
	}
	if data.ChunkSize < config.MinChunkSize {
		data.ChunkSize = config.MinChunkSize
	}

	td := templateData{
		PageData:    data,
		CSS:         template.CSS(h.css),
		EChartsCDN:  charts.EChartsCDN,
		MinChunk:    config.MinChunkSize,
		MaxChunk:    config.MaxChunkSize,
		Version:     config.GetVersion(),
		GeneratedAt: generatedAt,
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, td); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// SummaryMarkdown describes a dataset and its stream layers as markdown
func SummaryMarkdown(ds *models.Dataset, layers *aggregate.StreamLayers) string {
	var b strings.Builder
	counts := ds.LabelCounts()
	means := ds.MeanAccuracy()

	fmt.Fprintf(&b, "## Corpus summary\n\n")
	fmt.Fprintf(&b, "**Source:** `%s`  \n", strings.ReplaceAll(ds.Source, "`", "'"))
	fmt.Fprintf(&b, "**Records:** %d", ds.Len())
	if layers != nil {
		fmt.Fprintf(&b, " · **Chunk size:** %d · **Chunks:** %d · **Offset:** %s", layers.ChunkSize, layers.ChunkCount, layers.Offset)
	}
	b.WriteString("\n\n")

	b.WriteString("| Emotion | Records | Mean accuracy |\n|---|---:|---:|\n")
	known := 0
	for _, e := range models.Emotions {
		n := counts[e]
		known += n
		mean := "-"
		if n > 0 {
			mean = fmt.Sprintf("%.1f%%", means[e]*100)
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n", titleCase(e.String()), n, mean)
	}
	if other := ds.Len() - known; other > 0 {
		fmt.Fprintf(&b, "\n_%d records carry a label outside the six emotions and are left out of the streamgraph._\n", other)
	}
	return b.String()
}

// SummaryHTML renders SummaryMarkdown with goldmark
func (h *HTMLBuilder) SummaryHTML(ds *models.Dataset, layers *aggregate.StreamLayers) (template.HTML, error) {
	if ds == nil {
		return "", nil
	}
	out, err := h.ConvertMarkdownToHTML(SummaryMarkdown(ds, layers))
	if err != nil {
		return "", err
	}
	return template.HTML(out), nil
}

// titleCase upper-cases the first letter of a word
func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
