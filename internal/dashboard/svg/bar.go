package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders a single-series vertical bar chart, one bar per label.
func Bars(width, height int, values []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, values)
	if err != nil {
		return "", err
	}
	color := fallback(opts.Color, "#0ea5e9")
	maxLabel := opts.MaxLabel
	if maxLabel <= 0 {
		maxLabel = DefaultMaxLabel
	}

	slot := f.innerW / float64(len(values))
	barW := slot * 0.6
	zero := f.y(0)

	var b strings.Builder
	f.open(&b, fallback(opts.Title, "Bar chart"), fallback(opts.Description, "Category comparison"), "bar")
	f.grid(&b)
	for i, v := range values {
		left := f.padding + float64(i)*slot
		top := math.Min(zero, f.y(v))
		h := math.Abs(f.y(v) - zero)
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s: %s</title></rect>`,
			left+(slot-barW)/2, top, barW, h, color, template.HTMLEscapeString(labels[i]), formatTick(v))
		f.xLabel(&b, left+slot/2, truncate(labels[i], maxLabel))
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
