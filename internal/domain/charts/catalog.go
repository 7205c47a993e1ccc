package charts

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Provider construye un gráfico en el momento (p.ej. a partir de los diagnósticos guardados).
type Provider func(ctx context.Context) (Chart, error)

type dynamicEntry struct {
	section  string
	provider Provider
}

// Catalog mantiene los gráficos estáticos en orden y los dinámicos registrados.
type Catalog struct {
	mu      sync.RWMutex
	static  map[string]Chart
	order   []string
	dynamic map[string]dynamicEntry
	dynOrd  []string
}

func NewCatalog(items ...Chart) (*Catalog, error) {
	c := &Catalog{
		static:  make(map[string]Chart, len(items)),
		dynamic: map[string]dynamicEntry{},
	}
	for _, ch := range items {
		if err := ch.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.static[ch.ID]; exists {
			return nil, fmt.Errorf("%w: duplicated id %s", ErrMalformedChart, ch.ID)
		}
		c.static[ch.ID] = ch
		c.order = append(c.order, ch.ID)
	}
	return c, nil
}

// Register agrega un gráfico dinámico. Reemplaza si el id ya existe.
func (c *Catalog) Register(id, section string, p Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.dynamic[id]; !exists {
		c.dynOrd = append(c.dynOrd, id)
	}
	c.dynamic[id] = dynamicEntry{section: section, provider: p}
}

func (c *Catalog) Get(ctx context.Context, id string) (Chart, error) {
	if ch, ok := c.static[id]; ok {
		return ch, nil
	}

	c.mu.RLock()
	entry, ok := c.dynamic[id]
	c.mu.RUnlock()
	if !ok {
		return Chart{}, fmt.Errorf("%w: %s", ErrChartNotFound, id)
	}

	ch, err := entry.provider(ctx)
	if err != nil {
		return Chart{}, err
	}
	ch.ID = id
	if ch.Section == "" {
		ch.Section = entry.section
	}
	if err := ch.Validate(); err != nil {
		return Chart{}, err
	}
	return ch, nil
}

// List devuelve estáticos (en orden de declaración) y luego dinámicos.
// Si section != "" filtra por sección. Un dinámico que falla se omite: el slice
// trae el resto y el error (ErrChartUnavailable) lista los que faltaron.
func (c *Catalog) List(ctx context.Context, section string) ([]Chart, error) {
	out := make([]Chart, 0, len(c.order))
	for _, id := range c.order {
		ch := c.static[id]
		if section == "" || ch.Section == section {
			out = append(out, ch)
		}
	}

	c.mu.RLock()
	ids := append([]string(nil), c.dynOrd...)
	c.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		c.mu.RLock()
		entry := c.dynamic[id]
		c.mu.RUnlock()
		if section != "" && entry.section != section {
			continue
		}
		ch, err := c.Get(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrChartUnavailable, id, err))
			continue
		}
		out = append(out, ch)
	}
	return out, errors.Join(errs...)
}

// Default es el catálogo literal del dashboard de inadimplencia.
func Default() *Catalog {
	c, err := NewCatalog(defaultCharts()...)
	if err != nil {
		// las tablas son literales; un error aquí es un bug de programación
		panic(err)
	}
	return c
}

const (
	colorAdimplente   = "#2E86AB"
	colorInadimplente = "#FF6B6B"
)

func targetSplit(adimplente, inadimplente []float64) []Series {
	return []Series{
		{Name: "Adimplente", Values: adimplente, Color: colorAdimplente},
		{Name: "Inadimplente", Values: inadimplente, Color: colorInadimplente},
	}
}

func defaultCharts() []Chart {
	empresas := []string{"0", "1", "2+"}
	emails := []string{"0", "1", "2+"}
	idades := []string{"18-29", "30-44", "45-59", "60+"}

	return []Chart{
		{
			ID:             "distribuicao_target",
			Title:          "Distribuição do Target",
			Section:        SectionOverview,
			Kind:           KindBar,
			XLabel:         "cliente_inadimplente",
			Categories:     []string{"Adimplente", "Inadimplente"},
			Series:         []Series{{Name: "percentual", Values: []float64{92.6, 7.4}}},
			CategoryColors: []string{colorAdimplente, colorInadimplente},
		},
		{
			ID:         "empresas",
			Title:      "Empresas Associadas",
			Section:    SectionSegments,
			Kind:       KindBar,
			XLabel:     "cat_empresas",
			Categories: empresas,
			Series:     []Series{{Name: "percentual", Values: []float64{59.1, 26.2, 14.8}}},
		},
		{
			ID:         "empresas_target",
			Title:      "Empresas Associadas x Inadimplência",
			Section:    SectionSegments,
			Kind:       KindStacked,
			XLabel:     "cat_empresas",
			Categories: empresas,
			Series:     targetSplit([]float64{91.9, 93.6, 93.5}, []float64{8.1, 6.4, 6.5}),
		},
		{
			ID:         "emails",
			Title:      "Contatos por E-mail",
			Section:    SectionSegments,
			Kind:       KindBar,
			XLabel:     "cat_emails",
			Categories: emails,
			Series:     []Series{{Name: "percentual", Values: []float64{36.0, 39.2, 24.8}}},
		},
		{
			ID:         "emails_target",
			Title:      "Contatos por E-mail x Inadimplência",
			Section:    SectionSegments,
			Kind:       KindStacked,
			XLabel:     "cat_emails",
			Categories: emails,
			Series:     targetSplit([]float64{90.4, 93.2, 94.9}, []float64{9.6, 6.8, 5.1}),
		},
		{
			ID:         "faixa_idade",
			Title:      "Faixa Etária",
			Section:    SectionSegments,
			Kind:       KindBar,
			XLabel:     "faixa_idade",
			Categories: idades,
			Series:     []Series{{Name: "percentual", Values: []float64{30.5, 38.8, 21.3, 9.4}}},
		},
		{
			ID:         "faixa_idade_target",
			Title:      "Faixa Etária x Inadimplência",
			Section:    SectionSegments,
			Kind:       KindStacked,
			XLabel:     "faixa_idade",
			Categories: idades,
			Series:     targetSplit([]float64{90.8, 93.7, 93.8, 91.1}, []float64{9.2, 6.3, 6.2, 8.9}),
		},
	}
}
