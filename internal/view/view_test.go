package view

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func twoChunkRecords() []models.EmotionRecord {
	return []models.EmotionRecord{
		{Index: 0, Label: models.Anger, Accuracy: 0.5, Paragraph: "p0"},
		{Index: 1, Label: models.Fear, Accuracy: 0.25, Paragraph: "p1"},
	}
}

func TestLayoutLegend(t *testing.T) {
	labels := []string{"a", "b", "c", "d"}
	colors := []string{"#000", "#111", "#222", "#333"}

	tests := []struct {
		name        string
		innerWidth  float64
		orientation Orientation
		extra       float64
		lastX       float64
		lastY       float64
	}{
		{"narrow", 420, Vertical, 100, 0, 75},
		{"threshold", 600, Horizontal, 0, 450, 0},
		{"wide", 800, Horizontal, 0, 600, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := LayoutLegend(labels, colors, tt.innerWidth)
			if l.Orientation != tt.orientation {
				t.Errorf("Expected %s legend, got %s", tt.orientation, l.Orientation)
			}
			if l.ExtraHeight != tt.extra {
				t.Errorf("Expected extra height %v, got %v", tt.extra, l.ExtraHeight)
			}
			last := l.Items[len(l.Items)-1]
			if last.X != tt.lastX || last.Y != tt.lastY {
				t.Errorf("Expected last item at (%v,%v), got (%v,%v)", tt.lastX, tt.lastY, last.X, last.Y)
			}
			if last.Color != "#333" {
				t.Errorf("Expected color to follow label, got %s", last.Color)
			}
		})
	}
}

func TestStreamLegendFollowsContainerWidth(t *testing.T) {
	narrow, err := NewStreamView(twoChunkRecords(), StreamOptions{Width: 500})
	if err != nil {
		t.Fatalf("NewStreamView failed: %v", err)
	}
	defer narrow.Destroy()

	scene := narrow.Scene()
	if scene.Legend.Orientation != Vertical {
		t.Errorf("Expected vertical legend at width 500, got %s", scene.Legend.Orientation)
	}
	expectedHeight := DefaultStreamHeight + float64(models.CategoryCount)*LegendItemHeight
	if scene.Height != expectedHeight {
		t.Errorf("Expected height %v, got %v", expectedHeight, scene.Height)
	}

	wide, err := NewStreamView(twoChunkRecords(), StreamOptions{Width: 800})
	if err != nil {
		t.Fatalf("NewStreamView failed: %v", err)
	}
	defer wide.Destroy()

	scene = wide.Scene()
	if scene.Legend.Orientation != Horizontal {
		t.Errorf("Expected horizontal legend at width 800, got %s", scene.Legend.Orientation)
	}
	if scene.Height != DefaultStreamHeight {
		t.Errorf("Expected height %v, got %v", DefaultStreamHeight, scene.Height)
	}
	if scene.Legend.ItemWidth != 120 {
		t.Errorf("Expected item width 120, got %v", scene.Legend.ItemWidth)
	}
	if scene.Legend.OriginY != DefaultStreamHeight-StreamMargin.Bottom+legendGap {
		t.Errorf("Unexpected legend origin %v", scene.Legend.OriginY)
	}
}

func TestStreamHitTest(t *testing.T) {
	v, err := NewStreamView(twoChunkRecords(), StreamOptions{Width: 800})
	if err != nil {
		t.Fatalf("NewStreamView failed: %v", err)
	}
	defer v.Destroy()

	// inner plot is 720x440 with y domain [0,0.5]
	tests := []struct {
		name        string
		px, py      float64
		hit         bool
		emotion     models.Emotion
		accumulated float64
	}{
		{"upper bound is inclusive", 40, 40, true, models.Anger, 0.5},
		{"second chunk", 760, 260, true, models.Fear, 0.25},
		{"snaps to nearest chunk", 420, 260, true, models.Fear, 0.25},
		{"beyond last chunk", 40 + 720*3, 260, false, "", 0},
		{"before first chunk", -800, 260, false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := v.HitTest(tt.px, tt.py)
			if sel.Hit != tt.hit {
				t.Fatalf("Expected hit=%v, got %+v", tt.hit, sel)
			}
			if sel.Emotion != tt.emotion {
				t.Errorf("Expected emotion %q, got %q", tt.emotion, sel.Emotion)
			}
			if sel.Accumulated != tt.accumulated {
				t.Errorf("Expected accumulated %v, got %v", tt.accumulated, sel.Accumulated)
			}
		})
	}
}

func TestStreamPointerMove(t *testing.T) {
	v, err := NewStreamView(twoChunkRecords(), StreamOptions{Width: 800})
	if err != nil {
		t.Fatalf("NewStreamView failed: %v", err)
	}
	defer v.Destroy()

	var paragraphs []string
	v.OnParagraph(func(p string) { paragraphs = append(paragraphs, p) })

	ev, err := v.PointerMove(PointerEvent{X: 40, Y: 40, PageX: 100, PageY: 200})
	if err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}
	if ev.Tooltip.Left != 115 || ev.Tooltip.Top != 185 {
		t.Errorf("Expected tooltip at (115,185), got (%v,%v)", ev.Tooltip.Left, ev.Tooltip.Top)
	}
	if !strings.Contains(ev.Tooltip.HTML, "anger") || !strings.Contains(ev.Tooltip.HTML, "0.5000") {
		t.Errorf("Unexpected tooltip content %q", ev.Tooltip.HTML)
	}
	if ev.Paragraph != "p0" {
		t.Errorf("Expected paragraph p0, got %q", ev.Paragraph)
	}
	if ev.HoverLine == nil || !ev.HoverLine.Visible || ev.HoverLine.X1 != 0 {
		t.Errorf("Expected visible hover line at x=0, got %+v", ev.HoverLine)
	}

	// out of range must not fail
	if _, err := v.PointerMove(PointerEvent{X: 5000, Y: 40}); err != nil {
		t.Errorf("Expected no error out of range, got %v", err)
	}
	if v.Paragraph() != "" {
		t.Errorf("Expected empty paragraph out of range, got %q", v.Paragraph())
	}
	if len(paragraphs) != 2 {
		t.Errorf("Expected 2 paragraph updates, got %v", paragraphs)
	}

	ev, err = v.PointerLeave()
	if err != nil {
		t.Fatalf("PointerLeave failed: %v", err)
	}
	if ev.Tooltip.Visible || ev.Tooltip.Opacity != 0 || ev.HoverLine.Visible {
		t.Errorf("Expected hidden tooltip and hover line, got %+v", ev)
	}
}

func TestStreamEmptyRecords(t *testing.T) {
	v, err := NewStreamView(nil, StreamOptions{Width: 800})
	if err != nil {
		t.Fatalf("NewStreamView failed: %v", err)
	}
	defer v.Destroy()

	if d := v.Layers().Domain; d != aggregate.DefaultDomain {
		t.Errorf("Expected default domain, got %+v", d)
	}
	ev, err := v.PointerMove(PointerEvent{X: 400, Y: 200})
	if err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}
	if ev.Selection.Hit || ev.Paragraph != "" {
		t.Errorf("Expected empty selection, got %+v", ev)
	}
	if len(v.Scene().Legend.Items) != models.CategoryCount {
		t.Errorf("Expected legend to list every category")
	}
}

func TestStreamSetChunkSize(t *testing.T) {
	v, err := NewStreamView(twoChunkRecords(), StreamOptions{Width: 800})
	if err != nil {
		t.Fatalf("NewStreamView failed: %v", err)
	}
	defer v.Destroy()

	var changes [][2]int
	var rebuilds int
	removeChunk := v.OnChunkChange(func(o, n int) { changes = append(changes, [2]int{o, n}) })
	v.OnRebuild(func(s *Scene) { rebuilds++ })

	if err := v.SetChunkSize(2); err != nil {
		t.Fatalf("SetChunkSize failed: %v", err)
	}
	if v.Layers().ChunkCount != 1 {
		t.Errorf("Expected 1 chunk, got %d", v.Layers().ChunkCount)
	}
	if v.ChunkLabel() != "Chunk: 2" {
		t.Errorf("Expected chunk label, got %q", v.ChunkLabel())
	}
	if len(changes) != 1 || changes[0] != [2]int{1, 2} {
		t.Errorf("Expected one change 1->2, got %v", changes)
	}

	removeChunk()
	if err := v.SetChunkSize(1); err != nil {
		t.Fatalf("SetChunkSize failed: %v", err)
	}
	if len(changes) != 1 {
		t.Errorf("Expected removed handler to stay silent, got %v", changes)
	}
	if rebuilds != 2 {
		t.Errorf("Expected 2 rebuilds, got %d", rebuilds)
	}

	for _, size := range []int{0, -1, MaxChunkSize + 1} {
		if err := v.SetChunkSize(size); !errors.Is(err, aggregate.ErrInvalidChunkSize) {
			t.Errorf("Expected ErrInvalidChunkSize for %d, got %v", size, err)
		}
	}
	if v.ChunkSize() != 1 {
		t.Errorf("Expected chunk size to stay 1, got %d", v.ChunkSize())
	}
}

func TestStreamResizeAndOffset(t *testing.T) {
	v, err := NewStreamView(twoChunkRecords(), StreamOptions{Width: 800})
	if err != nil {
		t.Fatalf("NewStreamView failed: %v", err)
	}
	defer v.Destroy()

	if err := v.Resize(500, 0); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if v.Scene().Legend.Orientation != Vertical {
		t.Errorf("Expected vertical legend after shrinking")
	}
	if err := v.Resize(0, 0); err == nil {
		t.Errorf("Expected error for zero width")
	}

	if err := v.SetOffset(aggregate.OffsetExpand); err != nil {
		t.Fatalf("SetOffset failed: %v", err)
	}
	if d := v.Layers().Domain; d.Min != 0 || d.Max != 1 {
		t.Errorf("Expected expand domain [0,1], got %+v", d)
	}
	if err := v.SetOffset("bogus"); !errors.Is(err, aggregate.ErrUnknownOffset) {
		t.Errorf("Expected ErrUnknownOffset, got %v", err)
	}
	if v.Offset() != aggregate.OffsetExpand {
		t.Errorf("Expected offset to stay expand, got %s", v.Offset())
	}
}

func TestDestroyReleasesTooltipAndHandlers(t *testing.T) {
	v, err := NewStreamView(twoChunkRecords(), StreamOptions{})
	if err != nil {
		t.Fatalf("NewStreamView failed: %v", err)
	}
	v.OnHover(func(HoverEvent) {})
	v.OnChunkChange(func(int, int) {})

	if v.Tooltip() == nil {
		t.Fatal("Expected view to own a tooltip")
	}
	if v.HandlerCount() != 2 {
		t.Errorf("Expected 2 handlers, got %d", v.HandlerCount())
	}

	v.Destroy()
	v.Destroy()

	if v.Tooltip() != nil {
		t.Error("Expected tooltip to be removed")
	}
	if v.HandlerCount() != 0 {
		t.Errorf("Expected no handlers, got %d", v.HandlerCount())
	}
	if _, err := v.PointerMove(PointerEvent{}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Expected ErrDestroyed, got %v", err)
	}
	if err := v.SetChunkSize(2); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Expected ErrDestroyed, got %v", err)
	}
}

func TestViewsOwnDistinctTooltips(t *testing.T) {
	a := NewLineView(twoChunkRecords())
	b := NewLineView(twoChunkRecords())
	defer a.Destroy()
	defer b.Destroy()

	if a.ID() == b.ID() || a.Tooltip().ID == b.Tooltip().ID {
		t.Error("Expected each view to own its own tooltip")
	}
	a.Destroy()
	if b.Tooltip() == nil {
		t.Error("Destroying one view must not remove another view's tooltip")
	}
}

func TestStreamWriteSVG(t *testing.T) {
	v, err := NewStreamView(twoChunkRecords(), StreamOptions{Width: 800})
	if err != nil {
		t.Fatalf("NewStreamView failed: %v", err)
	}
	defer v.Destroy()

	var buf bytes.Buffer
	if err := v.Scene().WriteSVG(&buf); err != nil {
		t.Fatalf("WriteSVG failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{`<svg`, `viewBox="0 0 800 600"`, `id="layer-0"`, `class="legend legend-horizontal"`, `>surprise</text>`, `class="hover-line"`, `</svg>`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected SVG to contain %q", want)
		}
	}
	if n := strings.Count(out, `class="layer"`); n != models.CategoryCount {
		t.Errorf("Expected %d layers, got %d", models.CategoryCount, n)
	}
}
