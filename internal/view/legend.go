package view

// Orientation of the legend
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Legend geometry
const (
	LegendThreshold  = 600.0
	LegendItemHeight = 25.0
	SwatchSize       = 20.0
	legendTextX      = 25.0
	legendTextY      = 15.0
)

// LegendItem is one swatch with its label, offset from the legend origin
type LegendItem struct {
	Label string  `json:"label"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// LegendLayout is the placed legend
type LegendLayout struct {
	Orientation Orientation  `json:"orientation"`
	OriginX     float64      `json:"origin_x"`
	OriginY     float64      `json:"origin_y"`
	ItemWidth   float64      `json:"item_width"`
	Items       []LegendItem `json:"items"`
	// ExtraHeight is what the container must grow by to fit the legend
	ExtraHeight float64 `json:"extra_height"`
}

// LayoutLegend places one item per label. Plot areas at least
// LegendThreshold wide get a single row splitting the width evenly,
// narrower ones a column that adds LegendItemHeight per item.
func LayoutLegend(labels, colors []string, innerWidth float64) LegendLayout {
	n := len(labels)
	layout := LegendLayout{Items: make([]LegendItem, 0, n)}
	if innerWidth >= LegendThreshold {
		layout.Orientation = Horizontal
		if n > 0 {
			layout.ItemWidth = innerWidth / float64(n)
		}
	} else {
		layout.Orientation = Vertical
		layout.ItemWidth = innerWidth
		layout.ExtraHeight = float64(n) * LegendItemHeight
	}

	for i, label := range labels {
		item := LegendItem{Label: label}
		if i < len(colors) {
			item.Color = colors[i]
		}
		if layout.Orientation == Horizontal {
			item.X = float64(i) * layout.ItemWidth
		} else {
			item.Y = float64(i) * LegendItemHeight
		}
		layout.Items = append(layout.Items, item)
	}
	return layout
}

// at moves the legend origin
func (l LegendLayout) at(x, y float64) LegendLayout {
	l.OriginX = x
	l.OriginY = y
	return l
}
