package view

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"emotionchart/internal/logger"
	"emotionchart/internal/models"
)

// ErrDestroyed is returned by operations on a view after Destroy
var ErrDestroyed = errors.New("view has been destroyed")

// DOM ids and selectors the generated markup is bound to
const (
	ContainerID      = "emotion-chart"
	ParagraphSel     = ".paragraph p"
	ChunkSliderID    = "chunk-slider"
	ChunkDisplayID   = "chunk-display"
	tooltipClassName = "tooltip"
)

// Margin is the inset of the plot area inside the container
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Tooltip is the overlay owned by exactly one view
type Tooltip struct {
	ID      string  `json:"id"`
	Class   string  `json:"class"`
	Visible bool    `json:"visible"`
	Opacity float64 `json:"opacity"`
	HTML    string  `json:"html"`
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
}

// PointerEvent carries a pointer position in container coordinates plus the
// page coordinates used to place the tooltip.
type PointerEvent struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	PageX float64 `json:"page_x"`
	PageY float64 `json:"page_y"`
}

// HoverEvent is delivered to hover handlers on every pointer change
type HoverEvent struct {
	ViewID    string           `json:"view_id"`
	Active    bool             `json:"active"`
	Selection models.Selection `json:"selection"`
	MarkerID  string           `json:"marker_id,omitempty"`
	Tooltip   Tooltip          `json:"tooltip"`
	Paragraph string           `json:"paragraph"`
	HoverLine *LineShape       `json:"hover_line,omitempty"`
}

// HoverHandler observes hover changes
type HoverHandler func(HoverEvent)

// ChunkHandler observes chunk size changes
type ChunkHandler func(oldSize, newSize int)

// RebuildHandler observes full scene rebuilds
type RebuildHandler func(*Scene)

// ParagraphHandler observes updates of the paragraph panel
type ParagraphHandler func(string)

// registry keeps handlers in registration order and hands out removers
type registry[T any] struct {
	next  int
	ids   []int
	items map[int]T
}

func (r *registry[T]) add(h T) func() {
	if r.items == nil {
		r.items = make(map[int]T)
	}
	id := r.next
	r.next++
	r.ids = append(r.ids, id)
	r.items[id] = h
	return func() { r.remove(id) }
}

func (r *registry[T]) remove(id int) {
	if _, ok := r.items[id]; !ok {
		return
	}
	delete(r.items, id)
	for i, v := range r.ids {
		if v == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
}

func (r *registry[T]) snapshot() []T {
	out := make([]T, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.items[id])
	}
	return out
}

func (r *registry[T]) clear() {
	r.ids = nil
	r.items = nil
}

func (r *registry[T]) len() int {
	return len(r.ids)
}

// ChartView is the shared core of every view: it owns the tooltip, the
// paragraph panel text and the handler registrations. Destroying the view
// releases all of them.
type ChartView struct {
	mu        sync.Mutex
	id        string
	container string
	tooltip   *Tooltip
	paragraph string
	destroyed bool
	log       *logger.Logger

	hover      registry[HoverHandler]
	chunk      registry[ChunkHandler]
	rebuild    registry[RebuildHandler]
	paragraphs registry[ParagraphHandler]
	stops      []func()
}

func newChartView(kind string) *ChartView {
	id := kind + "-" + uuid.NewString()
	return &ChartView{
		id:        id,
		container: ContainerID,
		tooltip:   &Tooltip{ID: id + "-tooltip", Class: tooltipClassName},
		log:       logger.GetGlobalLogger().WithComponent("view"),
	}
}

// ID returns the unique id of this view
func (v *ChartView) ID() string {
	return v.id
}

// ContainerID returns the id of the element the view renders into
func (v *ChartView) ContainerID() string {
	return v.container
}

// Tooltip returns a copy of the tooltip state, or nil after Destroy
func (v *ChartView) Tooltip() *Tooltip {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.tooltip == nil {
		return nil
	}
	t := *v.tooltip
	return &t
}

// Paragraph returns the text of the paragraph panel
func (v *ChartView) Paragraph() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.paragraph
}

// Destroyed reports whether Destroy has been called
func (v *ChartView) Destroyed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}

// OnHover registers a hover handler and returns its remover
func (v *ChartView) OnHover(h HoverHandler) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked(v.hover.add(h))
}

// OnChunkChange registers a chunk size handler and returns its remover
func (v *ChartView) OnChunkChange(h ChunkHandler) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked(v.chunk.add(h))
}

// OnRebuild registers a rebuild handler and returns its remover
func (v *ChartView) OnRebuild(h RebuildHandler) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked(v.rebuild.add(h))
}

// OnParagraph registers a paragraph panel handler and returns its remover
func (v *ChartView) OnParagraph(h ParagraphHandler) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked(v.paragraphs.add(h))
}

// locked wraps a registry remover so it takes the view lock
func (v *ChartView) locked(remove func()) func() {
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		remove()
	}
}

// HandlerCount returns the number of registered handlers of all kinds
func (v *ChartView) HandlerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hover.len() + v.chunk.len() + v.rebuild.len() + v.paragraphs.len()
}

// addStop registers a cleanup run on Destroy
func (v *ChartView) addStop(stop func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stops = append(v.stops, stop)
}

// Destroy stops running tasks, removes the tooltip and drops all handlers.
// It is safe to call more than once.
func (v *ChartView) Destroy() {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return
	}
	v.destroyed = true
	stops := v.stops
	v.stops = nil
	v.tooltip = nil
	v.hover.clear()
	v.chunk.clear()
	v.rebuild.clear()
	v.paragraphs.clear()
	v.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	v.log.Debug("view destroyed", map[string]interface{}{"view_id": v.id})
}

// setTooltipLocked updates the tooltip. Callers hold v.mu.
func (v *ChartView) setTooltipLocked(visible bool, opacity float64, html string, left, top float64) Tooltip {
	if v.tooltip == nil {
		return Tooltip{}
	}
	v.tooltip.Visible = visible
	v.tooltip.Opacity = opacity
	if html != "" || !visible {
		v.tooltip.HTML = html
	}
	v.tooltip.Left = left
	v.tooltip.Top = top
	return *v.tooltip
}

// hideTooltipLocked fades the tooltip, keeping its last position. Callers hold v.mu.
func (v *ChartView) hideTooltipLocked() Tooltip {
	if v.tooltip == nil {
		return Tooltip{}
	}
	v.tooltip.Visible = false
	v.tooltip.Opacity = 0
	return *v.tooltip
}

// emitHover calls hover handlers outside the lock
func (v *ChartView) emitHover(handlers []HoverHandler, ev HoverEvent) {
	for _, h := range handlers {
		h(ev)
	}
}

func (v *ChartView) emitParagraph(handlers []ParagraphHandler, text string) {
	for _, h := range handlers {
		h(text)
	}
}

func (v *ChartView) emitRebuild(handlers []RebuildHandler, scene *Scene) {
	for _, h := range handlers {
		h(scene)
	}
}
