package reports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/charts"
	"emotionchart/internal/models"
	"emotionchart/internal/storage"
)

func testDataset() *models.Dataset {
	return &models.Dataset{
		Source: "data/moby_dick.json",
		Records: []models.EmotionRecord{
			{Index: 0, Label: models.Joy, Accuracy: 0.8, Paragraph: "Call me Ishmael."},
			{Index: 1, Label: models.Sadness, Accuracy: 0.6, Paragraph: "a damp, drizzly November in my soul"},
			{Index: 2, Label: models.Joy, Accuracy: 0.9, Paragraph: "whenever I find myself"},
			{Index: 3, Label: models.Emotion("neutral"), Accuracy: 0.5, Paragraph: "unlabelled"},
		},
	}
}

func newTestService() *ReportService {
	rs := NewReportService(charts.NewChartGenerator("", 480, 300))
	rs.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return rs
}

func TestConvertMarkdownToHTML(t *testing.T) {
	h := NewHTMLBuilder()
	out, err := h.ConvertMarkdownToHTML("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("ConvertMarkdownToHTML failed: %v", err)
	}
	if !strings.Contains(out, `<h1 id="title">Title</h1>`) {
		t.Errorf("Expected heading with id, got %s", out)
	}
	if !strings.Contains(out, "<table>") {
		t.Error("Expected GFM table")
	}
	if strings.Contains(out, "<script>") {
		t.Error("Expected raw HTML to be dropped")
	}
}

func TestSummaryMarkdown(t *testing.T) {
	ds := testDataset()
	layers, err := aggregate.BuildStreamLayers(ds.Records, 2, aggregate.OffsetNone)
	if err != nil {
		t.Fatalf("BuildStreamLayers failed: %v", err)
	}

	md := SummaryMarkdown(ds, layers)
	for _, want := range []string{
		"**Records:** 4",
		"**Chunk size:** 2",
		"**Chunks:** 2",
		"| Joy | 2 | 85.0% |",
		"| Sadness | 1 | 60.0% |",
		"| Anger | 0 | - |",
		"1 records carry a label outside",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Summary missing %q:\n%s", want, md)
		}
	}
}

func TestBuildPageCarriesDOMIds(t *testing.T) {
	h := NewHTMLBuilder()
	page, err := h.BuildPage(PageData{Title: "T", ShowSlider: true, ChunkSize: 0, Paragraph: "<b>p</b>"}, "now")
	if err != nil {
		t.Fatalf("BuildPage failed: %v", err)
	}
	for _, want := range []string{
		`id="emotion-chart"`,
		`class="paragraph"`,
		`id="chunk-slider"`,
		`min="1" max="1000"`,
		`value="1"`,
		`<span id="chunk-display">Chunk: 1</span>`,
		"&lt;b&gt;p&lt;/b&gt;",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("Page missing %q", want)
		}
	}
	if strings.Contains(page, charts.EChartsCDN) {
		t.Error("Expected no ECharts tag when not requested")
	}
}

func TestLinePage(t *testing.T) {
	page, err := newTestService().LinePage(testDataset())
	if err != nil {
		t.Fatalf("LinePage failed: %v", err)
	}
	for _, want := range []string{charts.EChartsCDN, charts.LineSnippetID, "Corpus summary", "2026-05-01 12:00:00 UTC"} {
		if !strings.Contains(page, want) {
			t.Errorf("Line page missing %q", want)
		}
	}
	if strings.Contains(page, `id="chunk-slider"`) {
		t.Error("Line page should not carry the chunk slider")
	}
}

func TestStreamPage(t *testing.T) {
	rs := newTestService()
	page, err := rs.StreamPage(testDataset(), 3, aggregate.OffsetWiggle)
	if err != nil {
		t.Fatalf("StreamPage failed: %v", err)
	}
	for _, want := range []string{charts.StreamSnippetID, `id="chunk-slider"`, "Chunk: 3", "searchParams.set('chunk'"} {
		if !strings.Contains(page, want) {
			t.Errorf("Stream page missing %q", want)
		}
	}

	if _, err := rs.StreamPage(testDataset(), 0, aggregate.OffsetNone); !errors.Is(err, aggregate.ErrInvalidChunkSize) {
		t.Errorf("Expected ErrInvalidChunkSize, got %v", err)
	}
}

func TestLiveAndTransitionsPages(t *testing.T) {
	rs := newTestService()

	live, err := rs.LivePage(5)
	if err != nil {
		t.Fatalf("LivePage failed: %v", err)
	}
	if !strings.Contains(live, "/ws/live") || strings.Contains(live, "type:'animate'") {
		t.Error("Live page should connect without animating")
	}

	tr, err := rs.TransitionsPage()
	if err != nil {
		t.Fatalf("TransitionsPage failed: %v", err)
	}
	if !strings.Contains(tr, "type:'animate'") || !strings.Contains(tr, `id="pause"`) {
		t.Error("Transitions page should start the animator and offer pause")
	}
	if !strings.Contains(tr, "2.5s") {
		t.Error("Expected the frame interval in the subtitle")
	}
}

func TestExportsPage(t *testing.T) {
	rs := newTestService()
	page, err := rs.ExportsPage([]string{"exports/2026/05/01/EmotionExport-x/index.html"}, "/files/")
	if err != nil {
		t.Fatalf("ExportsPage failed: %v", err)
	}
	if !strings.Contains(page, `href="/files/exports/2026/05/01/EmotionExport-x/index.html"`) {
		t.Error("Expected link to export index")
	}

	empty, _ := rs.ExportsPage(nil, "/files/")
	if !strings.Contains(empty, "No exports yet") {
		t.Error("Expected empty message")
	}
}

func TestGenerateAllFiles(t *testing.T) {
	rs := newTestService()
	fg := NewFileGenerator(charts.NewChartGenerator("", 480, 300), rs)

	files, err := fg.GenerateAllFiles(context.Background(), testDataset(), ExportOptions{ChunkSize: 2, Offset: aggregate.OffsetSilhouette})
	if err != nil {
		t.Fatalf("GenerateAllFiles failed: %v", err)
	}
	if !strings.HasPrefix(files.FolderPath, storage.ExportsPrefix+"/") {
		t.Errorf("Unexpected folder %s", files.FolderPath)
	}

	expected := []string{
		charts.LinePNGFile, charts.LineSVGFile, charts.StreamPNGFile,
		StreamSVGFile, LineSceneFile, DashboardFile,
		RecordsFile, LayersFile, SummaryFile, StylesheetFile, storage.IndexFile,
	}
	for _, name := range expected {
		data, ok := files.Files[name]
		if !ok {
			t.Errorf("Missing %s", name)
			continue
		}
		if len(data) == 0 {
			t.Errorf("Empty %s", name)
		}
	}
	if len(files.Files) != len(expected) {
		t.Errorf("Expected %d files, got %v", len(expected), files.Names())
	}
	if !strings.Contains(string(files.Files[storage.IndexFile]), `href="`+RecordsFile+`"`) {
		t.Error("Index should link the other artifacts")
	}

	if _, err := fg.GenerateAllFiles(context.Background(), &models.Dataset{}, ExportOptions{ChunkSize: 1}); !errors.Is(err, charts.ErrNoRecords) {
		t.Errorf("Expected ErrNoRecords, got %v", err)
	}
}

func TestExportStoresBundle(t *testing.T) {
	client, err := storage.NewLocalStorageClient(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorageClient failed: %v", err)
	}
	rs := newTestService()
	so := NewStorageOrchestrator(client, NewFileGenerator(charts.NewChartGenerator("", 480, 300), rs))

	ctx := context.Background()
	result, err := so.Export(ctx, testDataset(), ExportOptions{ChunkSize: 1})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	index, err := client.GetFile(ctx, result.Index)
	if err != nil {
		t.Fatalf("Stored index missing: %v", err)
	}
	if !strings.Contains(string(index), "Emotion chart export") {
		t.Error("Unexpected index content")
	}

	listed, err := client.ListExports(ctx, 0)
	if err != nil {
		t.Fatalf("ListExports failed: %v", err)
	}
	if len(listed) != 1 || listed[0] != result.Index {
		t.Errorf("Expected %s listed, got %v", result.Index, listed)
	}
}
