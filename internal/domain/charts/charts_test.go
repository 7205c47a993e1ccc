package charts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "59.1%", FormatPercent(59.1))
	assert.Equal(t, "36.0%", FormatPercent(36))
	assert.Equal(t, "7.4%", FormatPercent(7.44))
	assert.Equal(t, "0.0%", FormatPercent(0))
}

func TestChart_Validate(t *testing.T) {
	ok := Chart{ID: "x", Kind: KindBar, Categories: []string{"a", "b"}, Series: []Series{{Values: []float64{1, 2}}}}
	require.NoError(t, ok.Validate())

	cases := map[string]Chart{
		"no id":          {Kind: KindBar, Categories: []string{"a"}, Series: []Series{{Values: []float64{1}}}},
		"no categories":  {ID: "x", Kind: KindBar, Series: []Series{{Values: []float64{}}}},
		"length":         {ID: "x", Kind: KindBar, Categories: []string{"a", "b"}, Series: []Series{{Values: []float64{1}}}},
		"two series bar": {ID: "x", Kind: KindBar, Categories: []string{"a"}, Series: []Series{{Values: []float64{1}}, {Values: []float64{2}}}},
		"unknown kind":   {ID: "x", Kind: "pie", Categories: []string{"a"}, Series: []Series{{Values: []float64{1}}}},
		"colors":         {ID: "x", Kind: KindBar, Categories: []string{"a", "b"}, Series: []Series{{Values: []float64{1, 2}}}, CategoryColors: []string{"#fff"}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, c.Validate(), ErrMalformedChart)
		})
	}
}

func TestChart_LabelsAndRange(t *testing.T) {
	c, err := Default().Get(context.Background(), "empresas_target")
	require.NoError(t, err)

	lo, hi := c.YRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 100.0, hi)
	assert.Equal(t, [][]string{
		{"91.9%", "93.6%", "93.5%"},
		{"8.1%", "6.4%", "6.5%"},
	}, c.Labels())
}

func TestDefaultCatalog(t *testing.T) {
	cat := Default()

	all, err := cat.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 7)
	assert.Equal(t, "distribuicao_target", all[0].ID)

	segments, err := cat.List(context.Background(), SectionSegments)
	require.NoError(t, err)
	assert.Len(t, segments, 6)

	// Las tablas cruzadas con el target suman 100% por categoría.
	for _, c := range segments {
		if c.Kind != KindStacked {
			continue
		}
		for i := range c.Categories {
			total := 0.0
			for _, s := range c.Series {
				total += s.Values[i]
			}
			assert.InDelta(t, 100.0, total, 0.05, "%s/%s", c.ID, c.Categories[i])
		}
	}

	_, err = cat.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrChartNotFound)
}

func TestCatalog_Dynamic(t *testing.T) {
	cat := Default()
	cat.Register("cobertura", SectionDiagnostic, func(ctx context.Context) (Chart, error) {
		return Chart{Kind: KindBar, Categories: []string{"a"}, Series: []Series{{Name: "Sim", Values: []float64{50}}}}, nil
	})

	c, err := cat.Get(context.Background(), "cobertura")
	require.NoError(t, err)
	assert.Equal(t, "cobertura", c.ID)
	assert.Equal(t, SectionDiagnostic, c.Section)

	diag, err := cat.List(context.Background(), SectionDiagnostic)
	require.NoError(t, err)
	require.Len(t, diag, 1)

	boom := errors.New("boom")
	cat.Register("broken", SectionDiagnostic, func(ctx context.Context) (Chart, error) { return Chart{}, boom })
	diag, err = cat.List(context.Background(), SectionDiagnostic)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrChartUnavailable)
	require.Len(t, diag, 1)
	assert.Equal(t, "cobertura", diag[0].ID)

	all, err := cat.List(context.Background(), "")
	assert.ErrorIs(t, err, ErrChartUnavailable)
	assert.Len(t, all, 8)

	// otras secciones no llaman al provider roto
	_, err = cat.List(context.Background(), SectionSegments)
	assert.NoError(t, err)
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	c := Chart{ID: "x", Kind: KindBar, Categories: []string{"a"}, Series: []Series{{Values: []float64{1}}}}
	_, err := NewCatalog(c, c)
	assert.ErrorIs(t, err, ErrMalformedChart)
}

func TestRenderSVG(t *testing.T) {
	cat := Default()
	all, err := cat.List(context.Background(), "")
	require.NoError(t, err)

	for _, c := range all {
		t.Run(c.ID, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderSVG(&buf, c))
			assert.Contains(t, buf.String(), "<svg")
		})
	}

	var buf bytes.Buffer
	err = RenderSVG(&buf, Chart{ID: "bad", Kind: KindBar})
	assert.ErrorIs(t, err, ErrMalformedChart)
	assert.Zero(t, buf.Len())
}

func TestHandlers(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, Default())

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts?section=visao_geral", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var out []chartResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		assert.Equal(t, [2]float64{0, 100}, out[0].YRange)
		assert.Equal(t, []string{"92.6%", "7.4%"}, out[0].Series[0].Labels)
		assert.Equal(t, "/charts/distribuicao_target.svg", out[0].SVGURL)
	})

	t.Run("svg", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/faixa_idade.svg", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "<svg")
	})

	t.Run("unknown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/nope.svg", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListHandlerSkipsBrokenDynamicChart(t *testing.T) {
	cat := Default()
	cat.Register("cobertura", SectionDiagnostic, func(ctx context.Context) (Chart, error) {
		return Chart{}, errors.New("line 3: malformed diagnostic row")
	})
	r := chi.NewRouter()
	RegisterRoutes(r, cat)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Warning"))

	var out []chartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out, 7)
}
