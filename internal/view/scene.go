package view

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"

	"emotionchart/internal/models"
)

// PathShape is a filled or stroked SVG path
type PathShape struct {
	ID          string  `json:"id"`
	Class       string  `json:"class"`
	Label       string  `json:"label"`
	D           string  `json:"d"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
}

// Marker is a circle bound to one record
type Marker struct {
	ID     string               `json:"id"`
	CX     float64              `json:"cx"`
	CY     float64              `json:"cy"`
	R      float64              `json:"r"`
	Fill   string               `json:"fill"`
	Record models.EmotionRecord `json:"record"`
}

// LineShape is a straight SVG line
type LineShape struct {
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Visible bool    `json:"visible"`
}

// Tick is one labelled axis position
type Tick struct {
	Pos   float64 `json:"pos"`
	Label string  `json:"label"`
}

// Axis is a rendered axis. Vertical axes sit at X, horizontal ones at Y.
type Axis struct {
	Orient string  `json:"orient"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Length float64 `json:"length"`
	Ticks  []Tick  `json:"ticks"`
}

// Scene is the renderable state of a view in container coordinates
type Scene struct {
	ViewID    string       `json:"view_id"`
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	Margin    Margin       `json:"margin"`
	Paths     []PathShape  `json:"paths"`
	Markers   []Marker     `json:"markers,omitempty"`
	Axes      []Axis       `json:"axes,omitempty"`
	Legend    LegendLayout `json:"legend"`
	HoverLine *LineShape   `json:"hover_line,omitempty"`
	ChunkSize int          `json:"chunk_size,omitempty"`
}

// WriteSVG writes the scene as a standalone SVG element
func (s *Scene) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format, args...)
	}

	f(`<svg xmlns="http://www.w3.org/2000/svg" id="%s-svg" data-view="%s" viewBox="0 0 %s %s" preserveAspectRatio="xMinYMin meet" font-family="sans-serif">`,
		ContainerID, attr(s.ViewID), num(s.Width), num(s.Height))
	f(`<g transform="translate(%s,%s)">`, num(s.Margin.Left), num(s.Margin.Top))

	for _, p := range s.Paths {
		f(`<path id="%s" class="%s" data-label="%s" d="%s" fill="%s"`, attr(p.ID), attr(p.Class), attr(p.Label), attr(p.D), attr(p.Fill))
		if p.Stroke != "" {
			f(` stroke="%s" stroke-width="%s"`, attr(p.Stroke), num(p.StrokeWidth))
		}
		f(`/>`)
	}

	for _, a := range s.Axes {
		writeAxis(f, a)
	}

	for _, m := range s.Markers {
		f(`<circle id="%s" class="dot" cx="%s" cy="%s" r="%s" fill="%s" data-index="%d"/>`,
			attr(m.ID), num(m.CX), num(m.CY), num(m.R), attr(m.Fill), m.Record.Index)
	}

	if hl := s.HoverLine; hl != nil {
		opacity := "0"
		if hl.Visible {
			opacity = "1"
		}
		f(`<line class="hover-line" x1="%s" y1="%s" x2="%s" y2="%s" stroke="#000" stroke-width="1" pointer-events="none" opacity="%s"/>`,
			num(hl.X1), num(hl.Y1), num(hl.X2), num(hl.Y2), opacity)
	}
	f(`</g>`)

	writeLegend(f, s.Legend)
	f(`</svg>`)
	return bw.Flush()
}

func writeAxis(f func(string, ...interface{}), a Axis) {
	f(`<g class="axis axis-%s" transform="translate(%s,%s)" font-size="10">`, attr(a.Orient), num(a.X), num(a.Y))
	if a.Orient == "left" {
		f(`<path class="domain" stroke="currentColor" fill="none" d="M-6,%sH0V0H-6"/>`, num(a.Length))
		for _, t := range a.Ticks {
			f(`<g class="tick" transform="translate(0,%s)"><line stroke="currentColor" x2="-6"/><text fill="currentColor" x="-9" dy="0.32em" text-anchor="end">%s</text></g>`,
				num(t.Pos), html.EscapeString(t.Label))
		}
	} else {
		f(`<path class="domain" stroke="currentColor" fill="none" d="M0,6V0H%sV6"/>`, num(a.Length))
		for _, t := range a.Ticks {
			f(`<g class="tick" transform="translate(%s,0)"><line stroke="currentColor" y2="6"/><text fill="currentColor" y="9" dy="0.71em" text-anchor="middle">%s</text></g>`,
				num(t.Pos), html.EscapeString(t.Label))
		}
	}
	f(`</g>`)
}

func writeLegend(f func(string, ...interface{}), l LegendLayout) {
	if len(l.Items) == 0 {
		return
	}
	f(`<g class="legend legend-%s" transform="translate(%s,%s)">`, attr(string(l.Orientation)), num(l.OriginX), num(l.OriginY))
	for _, it := range l.Items {
		f(`<g class="legend-item" transform="translate(%s,%s)">`, num(it.X), num(it.Y))
		f(`<rect width="%s" height="%s" fill="%s"/>`, num(SwatchSize), num(SwatchSize), attr(it.Color))
		f(`<text x="%s" y="%s" font-size="14px" fill="#000">%s</text>`, num(legendTextX), num(legendTextY), html.EscapeString(it.Label))
		f(`</g>`)
	}
	f(`</g>`)
}

func attr(s string) string {
	return html.EscapeString(s)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
