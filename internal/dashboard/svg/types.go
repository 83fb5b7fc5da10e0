package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	Color       string
	Padding     float64
	TickCount   int
	// MaxLabel truncates category labels longer than this many runes.
	MaxLabel int
}

// Defaults for the dashboard charts.
const (
	DefaultWidth    = 720
	DefaultHeight   = 240
	DefaultPadding  = 32.0
	DefaultTicks    = 5
	DefaultMaxLabel = 14

	axisColor = "#475569"
	gridColor = "#cbd5e1"
)
