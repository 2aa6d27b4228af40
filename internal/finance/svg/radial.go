// Package svg renders the circular percentage charts of the dashboard.
package svg

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/finboard/finboard/internal/animation"
)

// ViewBox is the square the chart is drawn in; the ring is centred in it.
const ViewBox = 36.0

// RadialOpts customises the circular chart renderer.
type RadialOpts struct {
	ID          string
	Title       string
	Description string
	// Color selects the css modifier class, e.g. "blue" or "green".
	Color string
	// Final renders the finished state instead of the pre-animation state.
	Final bool
}

// ringPath draws a full circle of radius animation.Radius as two arcs,
// starting at the top so the stroke grows clockwise.
func ringPath() string {
	r := animation.Radius
	top := ViewBox/2 - r
	return fmt.Sprintf("M%.4f %.4f a %.4f %.4f 0 0 1 0 %.4f a %.4f %.4f 0 0 1 0 -%.4f",
		ViewBox/2, top, r, r, 2*r, r, r, 2*r)
}

// Radial renders a circular chart for percent. Before animation the arc is
// empty and the label reads 0%; Final draws the target state.
func Radial(percent int, opts RadialOpts) (template.HTML, error) {
	if percent < 0 || percent > 100 {
		return "", fmt.Errorf("svg: percent %d out of range", percent)
	}
	circ := animation.Circumference
	offset := circ
	label := 0
	if opts.Final {
		offset = animation.FinalOffset(percent)
		label = percent
	}
	id := strings.TrimSpace(opts.ID)
	titleID := makeID(fallback(id, opts.Title), "radial-title")
	descID := makeID(fallback(id, opts.Title), "radial-desc")
	path := ringPath()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %.0f %.0f\" class=\"circular-chart %s\" role=\"img\" aria-labelledby=\"%s %s\"",
		ViewBox, ViewBox, template.HTMLEscapeString(fallback(opts.Color, "blue")), titleID, descID))
	if id != "" {
		b.WriteString(fmt.Sprintf(" data-widget-id=\"%s\"", template.HTMLEscapeString(id)))
	}
	b.WriteString(fmt.Sprintf(" data-target=\"%d\">", percent))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Percentual"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, fmt.Sprintf("%d%%", percent)))))
	b.WriteString(fmt.Sprintf("<path class=\"circle-bg\" d=\"%s\"></path>", path))
	b.WriteString(fmt.Sprintf("<path class=\"circle\" stroke-dasharray=\"%.4f, %.4f\" stroke-dashoffset=\"%.4f\" d=\"%s\"></path>", circ, circ, offset, path))
	b.WriteString(fmt.Sprintf("<text x=\"%.0f\" y=\"20.35\" class=\"percentage\">%d%%</text>", ViewBox/2, label))
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}
