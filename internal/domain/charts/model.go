package charts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedChart = errors.New("malformed chart")
	ErrChartNotFound  = errors.New("chart not found")
	// ErrChartUnavailable: un gráfico dinámico no se pudo construir.
	ErrChartUnavailable = errors.New("chart unavailable")
)

// Kind define el tipo de gráfico soportado.
type Kind string

const (
	KindBar     Kind = "bar"
	KindStacked Kind = "stacked"
)

// Todos los gráficos del dashboard son porcentajes con eje Y fijo.
const (
	PercentMin = 0.0
	PercentMax = 100.0
	AxisLabel  = "Percentual (%)"
)

// Secciones (pestañas) del dashboard.
const (
	SectionOverview   = "visao_geral"
	SectionSegments   = "segmentacoes"
	SectionDiagnostic = "diagnostico_base"
)

type Series struct {
	Name   string
	Values []float64
	// Hex "#RRGGBB", opcional.
	Color string
}

// Chart es una tabla literal de porcentajes lista para dibujar.
type Chart struct {
	ID      string
	Title   string
	Section string
	Kind    Kind

	XLabel     string
	Categories []string
	Series     []Series

	// Opcional: un color por categoría (solo KindBar con una serie).
	CategoryColors []string
}

func (c Chart) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id required", ErrMalformedChart)
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("%w: %s has no categories", ErrMalformedChart, c.ID)
	}
	if len(c.Series) == 0 {
		return fmt.Errorf("%w: %s has no series", ErrMalformedChart, c.ID)
	}

	switch c.Kind {
	case KindBar:
		if len(c.Series) != 1 {
			return fmt.Errorf("%w: bar chart %s needs exactly one series, got %d", ErrMalformedChart, c.ID, len(c.Series))
		}
	case KindStacked:
	default:
		return fmt.Errorf("%w: %s has unknown kind %q", ErrMalformedChart, c.ID, c.Kind)
	}

	for _, s := range c.Series {
		if len(s.Values) != len(c.Categories) {
			return fmt.Errorf("%w: %s series %q has %d values for %d categories",
				ErrMalformedChart, c.ID, s.Name, len(s.Values), len(c.Categories))
		}
	}
	if len(c.CategoryColors) > 0 && len(c.CategoryColors) != len(c.Categories) {
		return fmt.Errorf("%w: %s has %d category colors for %d categories",
			ErrMalformedChart, c.ID, len(c.CategoryColors), len(c.Categories))
	}
	return nil
}

// YRange es siempre [0,100].
func (c Chart) YRange() (float64, float64) {
	return PercentMin, PercentMax
}

// Labels devuelve el texto de cada barra, una fila por serie.
func (c Chart) Labels() [][]string {
	out := make([][]string, len(c.Series))
	for i, s := range c.Series {
		out[i] = make([]string, len(s.Values))
		for j, v := range s.Values {
			out[i][j] = FormatPercent(v)
		}
	}
	return out
}

// FormatPercent formatea con un decimal: 59.1 → "59.1%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
