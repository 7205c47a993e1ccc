package charts

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, catalog *Catalog) {
	r.Get("/api/charts", listChartsHandler(catalog))
	r.Get("/charts/{chartID}.svg", chartSVGHandler(catalog))
}

type seriesResponse struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Labels []string  `json:"labels"`
	Color  string    `json:"color,omitempty"`
}

type chartResponse struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Section    string           `json:"section"`
	Kind       Kind             `json:"kind"`
	XLabel     string           `json:"x_label"`
	YLabel     string           `json:"y_label"`
	YRange     [2]float64       `json:"y_range"`
	Categories []string         `json:"categories"`
	Series     []seriesResponse `json:"series"`
	SVGURL     string           `json:"svg_url"`
}

// listChartsHandler godoc
// @Summary      Lista los gráficos del dashboard
// @Tags         charts
// @Produce      json
// @Param        section  query  string  false  "visao_geral | segmentacoes | diagnostico_base"
// @Success      200  {array}  chartResponse
// @Router       /api/charts [get]
func listChartsHandler(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section := strings.TrimSpace(r.URL.Query().Get("section"))

		items, err := catalog.List(r.Context(), section)
		if err != nil && !errors.Is(err, ErrChartUnavailable) {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if err != nil {
			w.Header().Set("Warning", `199 - "some charts are unavailable"`)
		}

		out := make([]chartResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toChartResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// chartSVGHandler godoc
// @Summary      Dibuja un gráfico como SVG
// @Tags         charts
// @Produce      image/svg+xml
// @Param        chartID  path  string  true  "id del gráfico"
// @Success      200
// @Failure      404  {string}  string  "chart not found"
// @Router       /charts/{chartID}.svg [get]
func chartSVGHandler(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "chartID")

		c, err := catalog.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrChartNotFound) {
				http.Error(w, "chart not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// Render a buffer para poder responder 500 si go-chart falla.
		var buf bytes.Buffer
		if err := RenderSVG(&buf, c); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func toChartResponse(c Chart) chartResponse {
	labels := c.Labels()
	series := make([]seriesResponse, 0, len(c.Series))
	for i, s := range c.Series {
		series = append(series, seriesResponse{
			Name:   s.Name,
			Values: s.Values,
			Labels: labels[i],
			Color:  s.Color,
		})
	}
	lo, hi := c.YRange()
	return chartResponse{
		ID:         c.ID,
		Title:      c.Title,
		Section:    c.Section,
		Kind:       c.Kind,
		XLabel:     c.XLabel,
		YLabel:     AxisLabel,
		YRange:     [2]float64{lo, hi},
		Categories: c.Categories,
		Series:     series,
		SVGURL:     "/charts/" + c.ID + ".svg",
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
