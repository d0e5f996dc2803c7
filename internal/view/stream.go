package view

import (
	"fmt"
	"html"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/models"
	"emotionchart/internal/scale"
	"emotionchart/internal/shape"
)

// Streamgraph layout defaults
const (
	DefaultStreamWidth  = 960.0
	DefaultStreamHeight = 600.0
	MinChunkSize        = 1
	MaxChunkSize        = 1000
	streamTooltipDX     = 15.0
	streamTooltipDY     = -15.0
	legendGap           = 40.0
)

// StreamMargin is the streamgraph plot inset. The large bottom margin holds
// the legend.
var StreamMargin = Margin{Top: 40, Right: 40, Bottom: 120, Left: 40}

// StreamOptions configures a StreamView
type StreamOptions struct {
	Width     float64
	Height    float64
	ChunkSize int
	Offset    aggregate.Offset
}

// StreamView renders stacked per-chunk accuracy sums as a streamgraph and
// answers hover queries against the rendered layers.
type StreamView struct {
	*ChartView

	records []models.EmotionRecord
	opts    StreamOptions

	layers *aggregate.StreamLayers
	x      *scale.Linear
	y      *scale.Linear
	z      *scale.Sequential
	scene  *Scene
}

// NewStreamView builds a streamgraph over the records
func NewStreamView(records []models.EmotionRecord, opts StreamOptions) (*StreamView, error) {
	if opts.Height <= 0 {
		opts.Height = DefaultStreamHeight
	}
	if opts.Width <= 0 {
		opts.Width = DefaultStreamWidth
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = MinChunkSize
	}
	if err := validateChunkSize(opts.ChunkSize); err != nil {
		return nil, err
	}
	if opts.Offset == "" {
		opts.Offset = aggregate.OffsetNone
	}

	v := &StreamView{
		ChartView: newChartView("streamgraph"),
		records:   records,
		opts:      opts,
	}
	if err := v.build(); err != nil {
		return nil, err
	}
	return v, nil
}

func validateChunkSize(size int) error {
	if size < MinChunkSize || size > MaxChunkSize {
		return fmt.Errorf("%w: %d (allowed %d..%d)", aggregate.ErrInvalidChunkSize, size, MinChunkSize, MaxChunkSize)
	}
	return nil
}

// build recomputes layers, scales and the scene from scratch. Callers hold
// v.mu or own the view exclusively.
func (v *StreamView) build() error {
	layers, err := aggregate.BuildStreamLayers(v.records, v.opts.ChunkSize, v.opts.Offset)
	if err != nil {
		return err
	}

	m := StreamMargin
	innerW := v.opts.Width - m.Left - m.Right
	innerH := v.opts.Height - m.Top - m.Bottom

	v.layers = layers
	v.x = scale.NewLinear(0, float64(layers.ChunkCount-1), 0, innerW)
	v.y = scale.NewLinear(layers.Domain.Min, layers.Domain.Max, innerH, 0)
	v.z = scale.NewSequential(0, float64(models.CategoryCount-1), scale.Cool)

	scene := &Scene{
		ViewID:    v.id,
		Width:     v.opts.Width,
		Height:    v.opts.Height,
		Margin:    m,
		ChunkSize: v.opts.ChunkSize,
		HoverLine: &LineShape{Y1: 0, Y2: innerH},
	}

	for _, layer := range layers.Layers {
		points := make([]shape.AreaPoint, len(layer.Points))
		for j, iv := range layer.Points {
			points[j] = shape.AreaPoint{X: v.x.Scale(float64(j)), Y0: v.y.Scale(iv.Baseline), Y1: v.y.Scale(iv.Top)}
		}
		scene.Paths = append(scene.Paths, PathShape{
			ID:    fmt.Sprintf("layer-%d", layer.Key),
			Class: "layer",
			Label: layer.Label.String(),
			D:     shape.Area(points, shape.CurveLinear),
			Fill:  v.z.Hex(float64(layer.Key)),
		})
	}

	labels := make([]string, models.CategoryCount)
	colors := make([]string, models.CategoryCount)
	for i, e := range models.Emotions {
		labels[i] = e.String()
		colors[i] = v.z.Hex(float64(i))
	}
	legend := LayoutLegend(labels, colors, innerW)
	scene.Legend = legend.at(m.Left, v.opts.Height-m.Bottom+legendGap)
	scene.Height += legend.ExtraHeight

	v.scene = scene
	return nil
}

// Scene returns the current scene
func (v *StreamView) Scene() *Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene
}

// Layers returns the stacked layers behind the current scene
func (v *StreamView) Layers() *aggregate.StreamLayers {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.layers
}

// ChunkSize returns the current chunk size
func (v *StreamView) ChunkSize() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opts.ChunkSize
}

// Offset returns the current stack offset
func (v *StreamView) Offset() aggregate.Offset {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opts.Offset
}

// ChunkLabel is the text of the chunk size display
func (v *StreamView) ChunkLabel() string {
	return fmt.Sprintf("Chunk: %d", v.ChunkSize())
}

// HitTest maps a container position to a chunk index and the category whose
// interval at that chunk contains the inverted y value.
func (v *StreamView) HitTest(px, py float64) models.Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hitTestLocked(px-StreamMargin.Left, py-StreamMargin.Top)
}

func (v *StreamView) hitTestLocked(ax, ay float64) models.Selection {
	if v.layers == nil {
		return models.Selection{}
	}
	idx := scale.RoundHalfUp(v.x.Invert(ax))
	return v.layers.Select(idx, v.y.Invert(ay))
}

// PointerMove moves the hover line, updates the tooltip and shows the dominant
// paragraph of the chunk under the pointer.
func (v *StreamView) PointerMove(ev PointerEvent) (HoverEvent, error) {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return HoverEvent{}, ErrDestroyed
	}
	ax := ev.X - StreamMargin.Left
	ay := ev.Y - StreamMargin.Top
	sel := v.hitTestLocked(ax, ay)

	line := *v.scene.HoverLine
	line.X1, line.X2 = ax, ax
	line.Visible = true
	v.scene.HoverLine = &line

	content := fmt.Sprintf("<strong>Emotion:</strong> %s<br><strong>Accumulated Value:</strong> %.4f",
		html.EscapeString(sel.Emotion.String()), sel.Accumulated)
	tip := v.setTooltipLocked(true, 1, content, ev.PageX+streamTooltipDX, ev.PageY+streamTooltipDY)

	paragraph := ""
	if sel.Dominant != nil {
		paragraph = sel.Dominant.Paragraph
	}
	changed := paragraph != v.paragraph
	v.paragraph = paragraph

	hover := v.hover.snapshot()
	paragraphs := v.paragraphs.snapshot()
	v.mu.Unlock()

	out := HoverEvent{
		ViewID:    v.id,
		Active:    true,
		Selection: sel,
		Tooltip:   tip,
		Paragraph: paragraph,
		HoverLine: &line,
	}
	v.emitHover(hover, out)
	if changed {
		v.emitParagraph(paragraphs, paragraph)
	}
	return out, nil
}

// PointerLeave hides the hover line and the tooltip
func (v *StreamView) PointerLeave() (HoverEvent, error) {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return HoverEvent{}, ErrDestroyed
	}
	line := *v.scene.HoverLine
	line.Visible = false
	v.scene.HoverLine = &line
	tip := v.hideTooltipLocked()
	hover := v.hover.snapshot()
	v.mu.Unlock()

	out := HoverEvent{ViewID: v.id, Tooltip: tip, HoverLine: &line, Paragraph: v.Paragraph()}
	v.emitHover(hover, out)
	return out, nil
}

// SetChunkSize rebuilds the view with a new chunk size
func (v *StreamView) SetChunkSize(size int) error {
	if err := validateChunkSize(size); err != nil {
		return err
	}
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return ErrDestroyed
	}
	old := v.opts.ChunkSize
	v.opts.ChunkSize = size
	if err := v.build(); err != nil {
		v.opts.ChunkSize = old
		v.mu.Unlock()
		return err
	}
	scene := v.scene
	chunk := v.chunk.snapshot()
	rebuild := v.rebuild.snapshot()
	v.mu.Unlock()

	v.log.Debug("streamgraph rebuilt", map[string]interface{}{"view_id": v.id, "chunk_size": size, "previous": old})
	for _, h := range chunk {
		h(old, size)
	}
	v.emitRebuild(rebuild, scene)
	return nil
}

// SetOffset rebuilds the view with a different stack offset
func (v *StreamView) SetOffset(offset aggregate.Offset) error {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return ErrDestroyed
	}
	old := v.opts.Offset
	v.opts.Offset = offset
	if err := v.build(); err != nil {
		v.opts.Offset = old
		v.mu.Unlock()
		return err
	}
	scene := v.scene
	rebuild := v.rebuild.snapshot()
	v.mu.Unlock()

	v.emitRebuild(rebuild, scene)
	return nil
}

// Resize rebuilds the view for a new container size. A non-positive height
// keeps the current one.
func (v *StreamView) Resize(width, height float64) error {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return ErrDestroyed
	}
	if width <= 0 {
		v.mu.Unlock()
		return fmt.Errorf("invalid width %v", width)
	}
	v.opts.Width = width
	if height > 0 {
		v.opts.Height = height
	}
	if err := v.build(); err != nil {
		v.mu.Unlock()
		return err
	}
	scene := v.scene
	rebuild := v.rebuild.snapshot()
	v.mu.Unlock()

	v.emitRebuild(rebuild, scene)
	return nil
}
