package charts

import (
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	renderWidth  = 720
	renderHeight = 420
	barWidth     = 64
	barSpacing   = 48
)

// barGeometry achica las barras cuando hay muchas categorías para que entren en el canvas.
func barGeometry(n int) (width, spacing int) {
	width, spacing = barWidth, barSpacing
	usable := renderWidth - 140
	if n <= 0 || n*width+(n-1)*spacing <= usable {
		return width, spacing
	}
	spacing = 16
	width = (usable - (n-1)*spacing) / n
	if width < 8 {
		width = 8
	}
	return width, spacing
}

// Paleta por defecto cuando ni la serie ni la categoría traen color.
var defaultPalette = []string{"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A"}

// RenderSVG dibuja el gráfico como SVG en w.
func RenderSVG(w io.Writer, c Chart) error {
	if err := c.Validate(); err != nil {
		return err
	}

	switch c.Kind {
	case KindStacked:
		return renderStacked(w, c)
	default:
		return renderBar(w, c)
	}
}

func renderBar(w io.Writer, c Chart) error {
	s := c.Series[0]

	bars := make([]chart.Value, len(c.Categories))
	for i, cat := range c.Categories {
		color := s.Color
		if len(c.CategoryColors) > 0 {
			color = c.CategoryColors[i]
		}
		if color == "" {
			color = defaultPalette[0]
		}

		// go-chart no dibuja el valor encima de la barra: va en la etiqueta del eje X.
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%s (%s)", cat, FormatPercent(s.Values[i])),
			Value: s.Values[i],
			Style: fillStyle(color),
		}
	}

	bw, bs := barGeometry(len(bars))
	bc := chart.BarChart{
		Title:      c.Title,
		Width:      renderWidth,
		Height:     renderHeight,
		BarWidth:   bw,
		BarSpacing: bs,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: chart.YAxis{
			Name:           AxisLabel,
			Range:          &chart.ContinuousRange{Min: PercentMin, Max: PercentMax},
			Ticks:          percentTicks(),
			ValueFormatter: formatTick,
		},
		Bars: bars,
	}

	if err := bc.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render bar chart %s: %w", c.ID, err)
	}
	return nil
}

func renderStacked(w io.Writer, c Chart) error {
	bars := make([]chart.StackedBar, len(c.Categories))
	for i, cat := range c.Categories {
		values := make([]chart.Value, len(c.Series))
		for j, s := range c.Series {
			color := s.Color
			if color == "" {
				color = defaultPalette[j%len(defaultPalette)]
			}
			values[j] = chart.Value{
				Label: FormatPercent(s.Values[i]),
				Value: s.Values[i],
				Style: fillStyle(color),
			}
		}
		bars[i] = chart.StackedBar{
			Name:   cat,
			Values: values,
		}
	}

	bw, bs := barGeometry(len(bars))
	for i := range bars {
		bars[i].Width = bw
	}

	// El eje Y del stacked bar de go-chart ya es 0–100% del total de cada barra.
	sbc := chart.StackedBarChart{
		Title:      c.Title,
		Width:      renderWidth,
		Height:     renderHeight,
		BarSpacing: bs,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		Bars: bars,
	}

	if err := sbc.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render stacked chart %s: %w", c.ID, err)
	}
	return nil
}

func fillStyle(hex string) chart.Style {
	color := drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	return chart.Style{
		FillColor:   color,
		StrokeColor: color,
		StrokeWidth: 1,
	}
}

func percentTicks() []chart.Tick {
	ticks := make([]chart.Tick, 0, 6)
	for v := PercentMin; v <= PercentMax; v += 20 {
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
	}
	return ticks
}

func formatTick(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%v", v)
}
