package view

import (
	"fmt"
	"html"
	"math"
	"strconv"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/models"
	"emotionchart/internal/scale"
	"emotionchart/internal/shape"
)

// Line chart layout
const (
	LineWidth        = 800.0
	LineHeight       = 400.0
	MarkerRadius     = 5.0
	MarkerHoverR     = 8.0
	lineStrokeWidth  = 2.0
	lineTooltipDX    = 5.0
	lineTooltipDY    = -28.0
	lineYTicks       = 5
	lineLegendOffset = 10.0
)

// LineMargin is the line chart plot inset
var LineMargin = Margin{Top: 30, Right: 20, Bottom: 40, Left: 50}

// LineColorDomain fixes the palette order of the line chart
var LineColorDomain = []string{"joy", "sadness", "love", "anger", "fear", "surprise"}

// LineView draws one monotone line plus point markers per emotion, with every
// record placed at its position in the full sequence.
type LineView struct {
	*ChartView

	records []models.EmotionRecord
	x       *scale.Linear
	y       *scale.Linear
	color   *scale.Ordinal
	scene   *Scene
	markers map[string]int
}

// NewLineView builds the line chart over the records
func NewLineView(records []models.EmotionRecord) *LineView {
	// markers are placed by their position in the full sequence
	indexed := make([]models.EmotionRecord, len(records))
	for i, rec := range records {
		rec.Index = i
		indexed[i] = rec
	}
	v := &LineView{
		ChartView: newChartView("line"),
		records:   indexed,
	}
	v.build()
	return v
}

func (v *LineView) build() {
	m := LineMargin
	innerW := LineWidth - m.Left - m.Right
	innerH := LineHeight - m.Top - m.Bottom

	v.x = scale.NewLinear(0, float64(len(v.records)-1), 0, innerW)
	v.y = scale.NewLinear(0, 1, innerH, 0)
	v.color = scale.NewOrdinal(LineColorDomain, scale.Set2)
	v.markers = make(map[string]int)

	scene := &Scene{
		ViewID: v.id,
		Width:  LineWidth,
		Height: LineHeight,
		Margin: m,
	}

	xAxis := Axis{Orient: "bottom", Y: innerH, Length: innerW}
	for _, t := range v.x.Ticks(len(v.records)) {
		// tick marks only, the x position carries no meaning for readers
		xAxis.Ticks = append(xAxis.Ticks, Tick{Pos: v.x.Scale(t)})
	}
	yAxis := Axis{Orient: "left", Length: innerH}
	for _, t := range v.y.Ticks(lineYTicks) {
		yAxis.Ticks = append(yAxis.Ticks, Tick{Pos: v.y.Scale(t), Label: percent(t)})
	}
	scene.Axes = []Axis{xAxis, yAxis}

	for _, g := range aggregate.GroupByLabel(v.records) {
		fill := v.color.Hex(g.Label.String())
		points := make([]shape.Point, 0, len(g.Records))
		for _, rec := range g.Records {
			points = append(points, shape.Point{X: v.x.Scale(float64(rec.Index)), Y: v.y.Scale(rec.Accuracy)})
		}
		scene.Paths = append(scene.Paths, PathShape{
			ID:          "line-" + g.Label.String(),
			Class:       "line",
			Label:       g.Label.String(),
			D:           shape.Line(points, shape.CurveMonotoneX),
			Fill:        "none",
			Stroke:      fill,
			StrokeWidth: lineStrokeWidth,
		})
		for i, rec := range g.Records {
			id := fmt.Sprintf("dot-%s-%d", g.Label, rec.Index)
			v.markers[id] = len(scene.Markers)
			scene.Markers = append(scene.Markers, Marker{
				ID:     id,
				CX:     points[i].X,
				CY:     points[i].Y,
				R:      MarkerRadius,
				Fill:   fill,
				Record: rec,
			})
		}
	}

	domain := v.color.Domain()
	colors := make([]string, len(domain))
	for i, key := range domain {
		colors[i] = v.color.Hex(key)
	}
	legend := LayoutLegend(domain, colors, innerW)
	scene.Legend = legend.at(m.Left, LineHeight+lineLegendOffset)
	if legend.Orientation == Horizontal {
		scene.Height += lineLegendOffset + LegendItemHeight
	} else {
		scene.Height += lineLegendOffset + legend.ExtraHeight
	}

	v.scene = scene
}

// percent formats a unit fraction as a whole percentage label
func percent(v float64) string {
	p := math.Round(v*100*1e6) / 1e6
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

// Scene returns the current scene
func (v *LineView) Scene() *Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene
}

// Marker returns a copy of the marker with the given id
func (v *LineView) Marker(id string) (Marker, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i, ok := v.markers[id]
	if !ok {
		return Marker{}, false
	}
	return v.scene.Markers[i], true
}

// MarkerAt returns the topmost marker whose circle contains the container
// position.
func (v *LineView) MarkerAt(px, py float64) (Marker, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ax := px - LineMargin.Left
	ay := py - LineMargin.Top
	for i := len(v.scene.Markers) - 1; i >= 0; i-- {
		mk := v.scene.Markers[i]
		if math.Hypot(mk.CX-ax, mk.CY-ay) <= mk.R {
			return mk, true
		}
	}
	return Marker{}, false
}

// PointerEnter enlarges the marker and raises the tooltip next to the pointer
func (v *LineView) PointerEnter(markerID string, ev PointerEvent) (HoverEvent, error) {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return HoverEvent{}, ErrDestroyed
	}
	i, ok := v.markers[markerID]
	if !ok {
		v.mu.Unlock()
		return HoverEvent{}, fmt.Errorf("unknown marker %q", markerID)
	}
	v.scene.Markers[i].R = MarkerHoverR
	rec := v.scene.Markers[i].Record

	content := fmt.Sprintf("Emotion: %s<br/>Accuracy: %s<br/>%s",
		html.EscapeString(rec.Label.String()),
		strconv.FormatFloat(rec.Accuracy, 'f', -1, 64),
		html.EscapeString(rec.Paragraph))
	tip := v.setTooltipLocked(true, 0.9, content, ev.PageX+lineTooltipDX, ev.PageY+lineTooltipDY)
	hover := v.hover.snapshot()
	paragraph := v.paragraph
	v.mu.Unlock()

	out := HoverEvent{
		ViewID:    v.id,
		Active:    true,
		MarkerID:  markerID,
		Tooltip:   tip,
		Paragraph: paragraph,
		Selection: models.Selection{
			Hit:         true,
			Chunk:       rec.Index,
			Emotion:     rec.Label,
			Accumulated: rec.Accuracy,
			Dominant:    &rec,
		},
	}
	v.emitHover(hover, out)
	return out, nil
}

// PointerLeave shrinks the marker back and fades the tooltip
func (v *LineView) PointerLeave(markerID string) (HoverEvent, error) {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return HoverEvent{}, ErrDestroyed
	}
	if i, ok := v.markers[markerID]; ok {
		v.scene.Markers[i].R = MarkerRadius
	}
	tip := v.hideTooltipLocked()
	hover := v.hover.snapshot()
	paragraph := v.paragraph
	v.mu.Unlock()

	out := HoverEvent{ViewID: v.id, MarkerID: markerID, Tooltip: tip, Paragraph: paragraph}
	v.emitHover(hover, out)
	return out, nil
}

// Click shows the marker's paragraph in the side panel
func (v *LineView) Click(markerID string) (string, error) {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return "", ErrDestroyed
	}
	i, ok := v.markers[markerID]
	if !ok {
		v.mu.Unlock()
		return "", fmt.Errorf("unknown marker %q", markerID)
	}
	v.paragraph = v.scene.Markers[i].Record.Paragraph
	text := v.paragraph
	handlers := v.paragraphs.snapshot()
	v.mu.Unlock()

	v.emitParagraph(handlers, text)
	return text, nil
}
