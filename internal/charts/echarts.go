package charts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/models"
	"emotionchart/internal/view"
)

// Snippet element ids
const (
	LineSnippetID   = "emotion-line-chart"
	StreamSnippetID = "emotion-stream-chart"
)

// linePoint is one marker of the interactive line chart
type linePoint struct {
	Value     [2]float64 `json:"value"`
	Label     string     `json:"label"`
	Paragraph string     `json:"paragraph"`
}

// indexRecords gives every record its position as Index
func indexRecords(records []models.EmotionRecord) []models.EmotionRecord {
	out := make([]models.EmotionRecord, len(records))
	for i, r := range records {
		r.Index = i
		out[i] = r
	}
	return out
}

// LineSnippet builds the embeddable line/dot chart. Hovering a marker shows
// emotion, accuracy and paragraph; clicking writes the paragraph into the
// paragraph panel.
func (cg *ChartGenerator) LineSnippet(records []models.EmotionRecord) (ChartSnippet, error) {
	records = indexRecords(records)
	colors := lineColors()

	var labels []string
	var series []map[string]interface{}
	for _, g := range aggregate.GroupByLabel(records) {
		points := make([]linePoint, len(g.Records))
		for i, r := range g.Records {
			points[i] = linePoint{
				Value:     [2]float64{float64(r.Index), r.Accuracy},
				Label:     string(r.Label),
				Paragraph: r.Paragraph,
			}
		}
		color := colors.Hex(string(g.Label))
		labels = append(labels, string(g.Label))
		series = append(series, map[string]interface{}{
			"name":       string(g.Label),
			"type":       "line",
			"smooth":     true,
			"symbol":     "circle",
			"symbolSize": 2 * view.MarkerRadius,
			"lineStyle":  map[string]interface{}{"width": 2, "color": color},
			"itemStyle":  map[string]interface{}{"color": color},
			"emphasis":   map[string]interface{}{"scale": float64(view.MarkerHoverR) / view.MarkerRadius},
			"data":       points,
		})
	}

	maxX := len(records) - 1
	if maxX < 1 {
		maxX = 1
	}
	option := map[string]interface{}{
		"tooltip": map[string]interface{}{"trigger": "item", "confine": true},
		"legend":  map[string]interface{}{"data": labels, "bottom": 0},
		"grid":    map[string]interface{}{"left": view.LineMargin.Left, "right": view.LineMargin.Right, "top": view.LineMargin.Top, "bottom": view.LineMargin.Bottom + 20},
		"xAxis": map[string]interface{}{
			"type":      "value",
			"min":       0,
			"max":       maxX,
			"axisLabel": map[string]interface{}{"show": false},
		},
		"yAxis":  map[string]interface{}{"type": "value", "min": 0, "max": 1},
		"series": series,
	}

	setup := `function esc(s){return String(s).replace(/[&<>"']/g,function(ch){return {'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[ch];});}
option.tooltip.formatter=function(p){var d=p.data;return 'Emotion: '+esc(d.label)+'<br/>Accuracy: '+d.value[1]+'<br/>'+esc(d.paragraph);};
option.yAxis.axisLabel={formatter:function(v){return Math.round(v*100)+'%';}};
c.on('click',function(p){var el=document.querySelector('` + view.ParagraphSel + `');if(el&&p.data){el.textContent=p.data.paragraph;}});`

	return newSnippet(LineSnippetID, "Emotion accuracy by paragraph", int(view.LineHeight), option, setup)
}

// streamData is what the streamgraph script needs to hit-test client side
type streamData struct {
	Labels    []string       `json:"labels"`
	Intervals [][][2]float64 `json:"intervals"`
	Paragraph []*string      `json:"paragraph"`
	Min       float64        `json:"min"`
}

// StreamSnippet builds the embeddable streamgraph. ECharts stacks only
// non-negative values well, so every layer is drawn as its height above a
// transparent baseline series and the whole stack is shifted up by -Domain.Min.
func (cg *ChartGenerator) StreamSnippet(layers *aggregate.StreamLayers) (ChartSnippet, error) {
	if layers == nil {
		return ChartSnippet{}, ErrNoRecords
	}

	n := layers.ChunkCount
	shift := -layers.Domain.Min
	xs := make([]string, n)
	for i := range xs {
		xs[i] = strconv.Itoa(i)
	}

	data := streamData{Min: layers.Domain.Min, Paragraph: make([]*string, n)}
	for i, d := range layers.Dominant {
		if d.Present {
			p := d.Record.Paragraph
			data.Paragraph[i] = &p
		}
	}

	baseline := make([]float64, n)
	if len(layers.Layers) > 0 {
		for i, iv := range layers.Layers[0].Points {
			baseline[i] = iv.Baseline + shift
		}
	}
	series := []map[string]interface{}{{
		"name":      "baseline",
		"type":      "line",
		"stack":     "stream",
		"silent":    true,
		"symbol":    "none",
		"lineStyle": map[string]interface{}{"opacity": 0},
		"data":      baseline,
	}}

	for _, layer := range layers.Layers {
		heights := make([]float64, n)
		ivs := make([][2]float64, n)
		for i, iv := range layer.Points {
			heights[i] = iv.Height()
			ivs[i] = [2]float64{iv.Baseline, iv.Top}
		}
		data.Labels = append(data.Labels, string(layer.Label))
		data.Intervals = append(data.Intervals, ivs)

		color := streamColor(layer.Key).Clamped().Hex()
		series = append(series, map[string]interface{}{
			"name":      string(layer.Label),
			"type":      "line",
			"stack":     "stream",
			"symbol":    "none",
			"lineStyle": map[string]interface{}{"width": 0},
			"areaStyle": map[string]interface{}{"color": color, "opacity": 1},
			"itemStyle": map[string]interface{}{"color": color},
			"data":      heights,
		})
	}

	m := view.StreamMargin
	option := map[string]interface{}{
		"animationDurationUpdate": 750,
		"legend":                  map[string]interface{}{"data": data.Labels, "bottom": 0},
		"grid":                    map[string]interface{}{"left": m.Left, "right": m.Right, "top": m.Top, "bottom": m.Bottom},
		"xAxis":                   map[string]interface{}{"type": "category", "boundaryGap": false, "data": xs},
		"yAxis": map[string]interface{}{
			"type":      "value",
			"min":       layers.Domain.Min + shift,
			"max":       layers.Domain.Max + shift,
			"axisLabel": map[string]interface{}{"show": false},
			"splitLine": map[string]interface{}{"show": false},
		},
		"series": series,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return ChartSnippet{}, fmt.Errorf("failed to encode stream data: %w", err)
	}

	setup := fmt.Sprintf(`var L=%s;
var tip=document.createElement('div');tip.className='tooltip';tip.style.position='absolute';tip.style.opacity=0;document.body.appendChild(tip);
var panel=document.querySelector('%s');
c.getZr().on('mousemove',function(e){var p=c.convertFromPixel({gridIndex:0},[e.offsetX,e.offsetY]);if(!p)return;
var i=Math.round(p[0]),v=p[1]+L.min,label='',acc=0;
for(var k=0;k<L.labels.length;k++){var iv=L.intervals[k][i];if(iv&&v>=iv[0]&&v<=iv[1]){label=L.labels[k];acc=iv[1]-iv[0];break;}}
tip.innerHTML='<strong>Emotion:</strong> '+label+'<br><strong>Accumulated Value:</strong> '+acc.toFixed(4);
tip.style.left=(e.event.pageX+%g)+'px';tip.style.top=(e.event.pageY%+g)+'px';tip.style.opacity=1;
if(panel){panel.textContent=(i>=0&&i<L.paragraph.length&&L.paragraph[i])||'';}});
c.getZr().on('globalout',function(){tip.style.opacity=0;});`,
		dataJSON, view.ParagraphSel, 15.0, -15.0)

	title := fmt.Sprintf("Emotion streamgraph (chunk size %d)", layers.ChunkSize)
	return newSnippet(StreamSnippetID, title, cg.height, option, setup)
}

// LineChart builds the line/dot chart as a go-echarts chart
func (cg *ChartGenerator) LineChart(records []models.EmotionRecord) *charts.Line {
	records = indexRecords(records)
	colors := lineColors()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Emotion accuracy",
			Theme:     types.ThemeWesteros,
			Width:     fmt.Sprintf("%dpx", int(view.LineWidth)),
			Height:    fmt.Sprintf("%dpx", int(view.LineHeight)),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Emotion accuracy by paragraph",
			Subtitle: fmt.Sprintf("%d paragraphs", len(records)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Paragraph", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Accuracy", Type: "value", Min: 0, Max: 1}),
		charts.WithLegendOpts(opts.Legend{Show: true, Bottom: "0"}),
	)

	for _, g := range aggregate.GroupByLabel(records) {
		data := make([]opts.LineData, len(g.Records))
		for i, r := range g.Records {
			data[i] = opts.LineData{Name: r.Paragraph, Value: []float64{float64(r.Index), r.Accuracy}}
		}
		color := colors.Hex(string(g.Label))
		line.AddSeries(string(g.Label), data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: true, ShowSymbol: true}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 2}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		)
	}
	return line
}

// StreamChart builds the streamgraph as a go-echarts stacked area chart
func (cg *ChartGenerator) StreamChart(layers *aggregate.StreamLayers) *charts.Line {
	shift := -layers.Domain.Min
	xs := make([]string, layers.ChunkCount)
	for i := range xs {
		xs[i] = strconv.Itoa(i)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Emotion streamgraph",
			Theme:     types.ThemeWesteros,
			Width:     fmt.Sprintf("%dpx", cg.width),
			Height:    fmt.Sprintf("%dpx", cg.height),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Emotion streamgraph",
			Subtitle: fmt.Sprintf("chunk size %d, %s offset", layers.ChunkSize, layers.Offset),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Chunk", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "value",
			Min:       layers.Domain.Min + shift,
			Max:       layers.Domain.Max + shift,
			AxisLabel: &opts.AxisLabel{Show: false},
		}),
		charts.WithLegendOpts(opts.Legend{Show: true, Bottom: "0"}),
	)
	line.SetXAxis(xs)

	baseline := make([]opts.LineData, layers.ChunkCount)
	for i := range baseline {
		v := shift
		if len(layers.Layers) > 0 && i < len(layers.Layers[0].Points) {
			v += layers.Layers[0].Points[i].Baseline
		}
		baseline[i] = opts.LineData{Value: v}
	}
	line.AddSeries("baseline", baseline,
		charts.WithLineChartOpts(opts.LineChart{Stack: "stream", ShowSymbol: false}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "transparent"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "transparent"}),
	)

	for _, layer := range layers.Layers {
		data := make([]opts.LineData, layers.ChunkCount)
		for i, iv := range layer.Points {
			data[i] = opts.LineData{Value: iv.Height()}
		}
		color := streamColor(layer.Key).Clamped().Hex()
		line.AddSeries(string(layer.Label), data,
			charts.WithLineChartOpts(opts.LineChart{Stack: "stream", ShowSymbol: false}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: color, Opacity: 1}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 0}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		)
	}
	return line
}

// RenderDashboard writes a standalone go-echarts page holding both charts
func (cg *ChartGenerator) RenderDashboard(w io.Writer, records []models.EmotionRecord, layers *aggregate.StreamLayers) error {
	if len(records) == 0 || layers == nil {
		return ErrNoRecords
	}
	page := components.NewPage()
	page.PageTitle = "Emotion dashboard"
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(cg.LineChart(records), cg.StreamChart(layers))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
