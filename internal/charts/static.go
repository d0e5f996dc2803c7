package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/models"
	"emotionchart/internal/view"
)

// RenderLinePNG draws the accuracy line chart as a PNG
func (cg *ChartGenerator) RenderLinePNG(w io.Writer, records []models.EmotionRecord) error {
	graph, err := cg.lineChart(records)
	if err != nil {
		return err
	}
	return graph.Render(chart.PNG, w)
}

// RenderLineSVG draws the accuracy line chart as an SVG document
func (cg *ChartGenerator) RenderLineSVG(w io.Writer, records []models.EmotionRecord) error {
	graph, err := cg.lineChart(records)
	if err != nil {
		return err
	}
	return graph.Render(chart.SVG, w)
}

// lineChart builds one series per emotion in first-seen order. Points sit at
// their global record index, matching the interactive chart.
func (cg *ChartGenerator) lineChart(records []models.EmotionRecord) (*chart.Chart, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	indexed := make([]models.EmotionRecord, len(records))
	for i, r := range records {
		r.Index = i
		indexed[i] = r
	}

	colors := lineColors()
	var series []chart.Series
	for _, g := range aggregate.GroupByLabel(indexed) {
		xs := make([]float64, len(g.Records))
		ys := make([]float64, len(g.Records))
		for i, r := range g.Records {
			xs[i] = float64(r.Index)
			ys[i] = r.Accuracy
		}
		// go-chart needs two points to draw a line
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		c := toDrawing(colors.Color(string(g.Label)), 255)
		series = append(series, chart.ContinuousSeries{
			Name: string(g.Label),
			Style: chart.Style{
				StrokeColor: c,
				StrokeWidth: 2,
				DotColor:    c,
				DotWidth:    view.MarkerRadius,
			},
			XValues: xs,
			YValues: ys,
		})
	}

	ticks := make([]chart.Tick, 0, 6)
	for i := 0; i <= 5; i++ {
		v := float64(i) / 5
		ticks = append(ticks, chart.Tick{Value: v, Label: percent(v)})
	}

	graph := &chart.Chart{
		Title: "Emotion accuracy by paragraph",
		TitleStyle: chart.Style{
			FontSize: 14,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Width:  int(view.LineWidth),
		Height: int(view.LineHeight),
		XAxis: chart.XAxis{
			Name:  "Paragraph",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(float64(len(records)-1), 1)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name:  "Accuracy",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
			Ticks: ticks,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(graph)}
	return graph, nil
}

// RenderStreamPNG draws the stacked layers with gonum/plot. Each layer is a
// polygon running along its tops and back along its baselines.
func (cg *ChartGenerator) RenderStreamPNG(w io.Writer, layers *aggregate.StreamLayers) error {
	if layers == nil {
		return ErrNoRecords
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Emotion streamgraph (chunk size %d, %s)", layers.ChunkSize, layers.Offset)
	p.X.Label.Text = "Chunk"
	p.Y.Label.Text = "Accumulated accuracy"
	p.X.Min = 0
	p.X.Max = math.Max(float64(layers.ChunkCount-1), 1)
	p.Y.Min = layers.Domain.Min
	p.Y.Max = layers.Domain.Max
	p.Legend.Top = true

	for _, layer := range layers.Layers {
		if len(layer.Points) == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, 2*len(layer.Points))
		for i, iv := range layer.Points {
			pts = append(pts, plotter.XY{X: float64(i), Y: iv.Top})
		}
		for i := len(layer.Points) - 1; i >= 0; i-- {
			pts = append(pts, plotter.XY{X: float64(i), Y: layer.Points[i].Baseline})
		}

		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			return fmt.Errorf("failed to build layer %s: %w", layer.Label, err)
		}
		poly.Color = streamColor(layer.Key).Clamped()
		poly.LineStyle.Width = 0
		p.Add(poly)
		p.Legend.Add(string(layer.Label), poly)
	}

	wt, err := p.WriterTo(vg.Length(cg.width)*vg.Inch/96, vg.Length(cg.height)*vg.Inch/96, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
