package view

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/scale"
	"emotionchart/internal/shape"
)

// Transitions defaults
const (
	TransitionLayers   = 20
	TransitionSamples  = 200
	TransitionBumps    = 10
	TransitionWidth    = 928.0
	TransitionHeight   = 500.0
	TransitionDelay    = 1000 * time.Millisecond
	TransitionDuration = 1500 * time.Millisecond
)

// TransitionOptions configures a TransitionsView
type TransitionOptions struct {
	Layers  int
	Samples int
	Bumps   int
	Offset  aggregate.Offset
	Seed    int64
	// Interval between frames, defaults to the delay plus the duration of one
	// transition so frames never overlap.
	Interval time.Duration
}

// Frame is one randomized scene plus the timing the client animates it with
type Frame struct {
	Seq      int    `json:"seq"`
	Scene    *Scene `json:"scene"`
	DelayMS  int64  `json:"delay_ms"`
	Duration int64  `json:"duration_ms"`
}

// FrameHandler receives animation frames
type FrameHandler func(Frame)

// TransitionsView animates randomly generated streamgraphs between stack
// offsets. Layer colors are drawn once and kept across frames.
type TransitionsView struct {
	*ChartView

	opts   TransitionOptions
	rng    *rand.Rand
	fills  []string
	seq    int
	scene  *Scene
	frames registry[FrameHandler]
	anim   *Animator
}

// NewTransitionsView creates the view and draws the first frame
func NewTransitionsView(opts TransitionOptions) (*TransitionsView, error) {
	if opts.Layers <= 0 {
		opts.Layers = TransitionLayers
	}
	if opts.Samples <= 0 {
		opts.Samples = TransitionSamples
	}
	if opts.Bumps <= 0 {
		opts.Bumps = TransitionBumps
	}
	if opts.Offset == "" {
		opts.Offset = aggregate.OffsetWiggle
	}
	if opts.Interval <= 0 {
		opts.Interval = TransitionDelay + TransitionDuration
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	v := &TransitionsView{
		ChartView: newChartView("transitions"),
		opts:      opts,
		rng:       rand.New(rand.NewSource(opts.Seed)),
	}
	v.fills = make([]string, opts.Layers)
	cool := scale.NewSequential(0, 1, scale.Cool)
	for i := range v.fills {
		v.fills[i] = cool.Hex(v.rng.Float64())
	}

	if _, err := v.randomize(); err != nil {
		return nil, err
	}
	v.anim = NewAnimator(opts.Interval, v.step)
	v.addStop(v.anim.Stop)
	return v, nil
}

// randomize stacks a fresh random matrix and rebuilds the scene
func (v *TransitionsView) randomize() (Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return Frame{}, ErrDestroyed
	}

	rows := aggregate.RandomMatrix(v.rng, v.opts.Layers, v.opts.Samples, v.opts.Bumps)
	layers, err := aggregate.StackSums(rows, nil, 1, v.opts.Offset)
	if err != nil {
		return Frame{}, err
	}

	x := scale.NewLinear(0, float64(v.opts.Samples-1), 0, TransitionWidth)
	y := scale.NewLinear(layers.Domain.Min, layers.Domain.Max, TransitionHeight, 0)

	scene := &Scene{ViewID: v.id, Width: TransitionWidth, Height: TransitionHeight}
	for _, layer := range layers.Layers {
		points := make([]shape.AreaPoint, len(layer.Points))
		for j, iv := range layer.Points {
			points[j] = shape.AreaPoint{X: x.Scale(float64(j)), Y0: y.Scale(iv.Baseline), Y1: y.Scale(iv.Top)}
		}
		scene.Paths = append(scene.Paths, PathShape{
			ID:    fmt.Sprintf("layer-%d", layer.Key),
			Class: "layer",
			D:     shape.Area(points, shape.CurveLinear),
			Fill:  v.fills[layer.Key%len(v.fills)],
		})
	}

	v.seq++
	v.scene = scene
	return Frame{
		Seq:      v.seq,
		Scene:    scene,
		DelayMS:  TransitionDelay.Milliseconds(),
		Duration: TransitionDuration.Milliseconds(),
	}, nil
}

func (v *TransitionsView) step(ctx context.Context) error {
	frame, err := v.randomize()
	if err != nil {
		return err
	}
	v.mu.Lock()
	handlers := v.frames.snapshot()
	v.mu.Unlock()
	for _, h := range handlers {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h(frame)
	}
	return nil
}

// Scene returns the latest frame's scene
func (v *TransitionsView) Scene() *Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene
}

// OnFrame registers a frame handler and returns its remover
func (v *TransitionsView) OnFrame(h FrameHandler) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked(v.frames.add(h))
}

// SetOffset switches the stack offset used by the next frame
func (v *TransitionsView) SetOffset(offset aggregate.Offset) error {
	if _, err := aggregate.Stack([][]float64{{0}}, offset); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.opts.Offset = offset
	return nil
}

// Offset returns the active stack offset
func (v *TransitionsView) Offset() aggregate.Offset {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opts.Offset
}

// Play starts the randomize, redraw, wait loop
func (v *TransitionsView) Play(ctx context.Context) error {
	if v.Destroyed() {
		return ErrDestroyed
	}
	return v.anim.Start(ctx)
}

// Pause stops the loop and waits for the running step
func (v *TransitionsView) Pause() {
	v.anim.Stop()
}

// Playing reports whether the loop is active
func (v *TransitionsView) Playing() bool {
	return v.anim.Running()
}

// Destroy stops the animation and releases the view
func (v *TransitionsView) Destroy() {
	v.mu.Lock()
	v.frames.clear()
	v.mu.Unlock()
	v.ChartView.Destroy()
}
