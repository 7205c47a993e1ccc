// Package dashboard sirve la página HTML del dashboard y el formulario de diagnóstico.
package dashboard

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"loan-default-dashboard/internal/domain/charts"
	"loan-default-dashboard/internal/domain/diagnostics"
	"loan-default-dashboard/internal/platform/logger"
)

//go:embed templates/*.html content/*.md
var embeddedFiles embed.FS

const (
	DatasetRows    = 30043
	DatasetColumns = 28

	FlashSaved     = "✅ Diagnóstico salvo com sucesso!"
	FlashEmailed   = "📧 Diagnóstico enviado por e-mail com sucesso!"
	flashEmailFail = "❌ Erro ao enviar e-mail: "

	NoticeChartsUnavailable = "⚠️ Alguns gráficos estão indisponíveis no momento."
)

var tabs = []struct {
	ID, Icon, Name string
}{
	{charts.SectionOverview, "📊", "Visão Geral"},
	{charts.SectionSegments, "🔎", "Segmentações"},
	{charts.SectionDiagnostic, "🧠", "Diagnóstico Base"},
}

var segmentHeadings = map[string]string{
	"empresas":    "🏢 Empresas Associadas",
	"emails":      "📧 Contatos por E-mail",
	"faixa_idade": "👥 Faixa Etária",
}

type Options struct {
	AppName string
	Logger  logger.Logger
}

type Page struct {
	svc     *diagnostics.Service
	catalog *charts.Catalog
	log     logger.Logger
	tmpl    *template.Template
	appName string

	targetAnalysis  template.HTML
	scoreCollection template.HTML
	rowsLabel       string
}

func New(svc *diagnostics.Service, catalog *charts.Catalog, opts Options) (*Page, error) {
	tmpl, err := template.ParseFS(embeddedFiles, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	target, err := renderMarkdown("content/target_analysis.md")
	if err != nil {
		return nil, err
	}
	score, err := renderMarkdown("content/score_collection.md")
	if err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if strings.TrimSpace(opts.AppName) == "" {
		opts.AppName = "Dashboard de Inadimplência"
	}

	return &Page{
		svc:             svc,
		catalog:         catalog,
		log:             opts.Logger,
		tmpl:            tmpl,
		appName:         opts.AppName,
		targetAnalysis:  target,
		scoreCollection: score,
		rowsLabel:       FormatCount(DatasetRows),
	}, nil
}

func (p *Page) RegisterRoutes(r chi.Router) {
	r.Get("/", p.indexHandler())
	r.Post("/diagnostico", p.submitHandler())
}

// FormatCount usa el separador de miles brasileño: 30043 → "30.043".
func FormatCount(n int) string {
	return message.NewPrinter(language.BrazilianPortuguese).Sprintf("%d", n)
}

// renderMarkdown: el parser de gomarkdown no se puede reutilizar, uno por documento.
func renderMarkdown(name string) (template.HTML, error) {
	src, err := embeddedFiles.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return template.HTML(markdown.ToHTML(src, p, r)), nil
}

type tabView struct {
	ID, Icon, Name string
	Active         bool
}

type metricView struct {
	Label, Value string
}

type chartView struct {
	ID, Title, SVGURL string
}

type segmentView struct {
	Heading string
	Charts  []chartView
}

type questionView struct {
	Field, Prompt, Selected string
}

type flash struct {
	Kind, Text string
}

type pageData struct {
	PageTitle       string
	AppName         string
	Active          string
	Tabs            []tabView
	Metrics         []metricView
	Overview        []chartView
	Segments        []segmentView
	Diagnostic      []chartView
	TargetAnalysis  template.HTML
	ScoreCollection template.HTML
	Columns         [2][]questionView
	Options         []string
	Flashes         []flash

	ChartsUnavailable bool
	Notice            string
}

func (p *Page) indexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := r.URL.Query().Get("tab")
		p.render(w, r, http.StatusOK, active, nil, nil)
	}
}

func (p *Page) submitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			p.render(w, r, http.StatusBadRequest, charts.SectionDiagnostic, nil,
				[]flash{{Kind: "error", Text: "❌ Formulário inválido"}})
			return
		}

		in := make(diagnostics.SubmitInput, len(diagnostics.Fields))
		selected := make(map[diagnostics.Field]string, len(diagnostics.Fields))
		for _, f := range diagnostics.Fields {
			if v, ok := r.PostForm[string(f)]; ok && len(v) > 0 {
				in[f] = v[0]
				selected[f] = v[0]
			}
		}

		sub, err := p.svc.Submit(r.Context(), in)
		if err != nil {
			status := http.StatusInternalServerError
			text := "❌ Erro ao salvar diagnóstico"
			if errors.Is(err, diagnostics.ErrInvalidInput) {
				status = http.StatusBadRequest
				text = "❌ Diagnóstico inválido: " + err.Error()
			} else {
				p.log.Error("diagnostic submit failed", map[string]any{"error": err})
			}
			p.render(w, r, status, charts.SectionDiagnostic, selected, []flash{{Kind: "error", Text: text}})
			return
		}

		flashes := []flash{{Kind: "success", Text: FlashSaved}}
		if sub.Notification.OK() {
			flashes = append(flashes, flash{Kind: "success", Text: FlashEmailed})
		} else {
			flashes = append(flashes, flash{Kind: "error", Text: flashEmailFail + sub.Notification.Reason()})
		}
		p.render(w, r, http.StatusOK, charts.SectionDiagnostic, nil, flashes)
	}
}

func (p *Page) render(w http.ResponseWriter, r *http.Request, status int, active string, selected map[diagnostics.Field]string, flashes []flash) {
	if !validTab(active) {
		active = charts.SectionOverview
	}

	data := pageData{
		PageTitle:       "Dashboard de Inadimplência",
		AppName:         p.appName,
		Active:          active,
		TargetAnalysis:  p.targetAnalysis,
		ScoreCollection: p.scoreCollection,
		Options:         []string{string(diagnostics.AnswerYes), string(diagnostics.AnswerNo)},
		Flashes:         flashes,
		Notice:          NoticeChartsUnavailable,
		Metrics: []metricView{
			{Label: "🔢 Total de Linhas", Value: p.rowsLabel},
			{Label: "🧬 Total de Colunas", Value: fmt.Sprintf("%d", DatasetColumns)},
		},
	}
	for _, t := range tabs {
		data.Tabs = append(data.Tabs, tabView{ID: t.ID, Icon: t.Icon, Name: t.Name, Active: t.ID == active})
	}

	// Un gráfico dinámico roto no tumba la página: el formulario tiene que seguir disponible.
	items, err := p.catalog.List(r.Context(), "")
	if err != nil {
		p.log.Warn("some charts unavailable", map[string]any{"error": err})
		data.ChartsUnavailable = true
	}
	groups := map[string]int{}
	for _, c := range items {
		v := chartView{ID: c.ID, Title: c.Title, SVGURL: "/charts/" + c.ID + ".svg"}
		switch c.Section {
		case charts.SectionOverview:
			data.Overview = append(data.Overview, v)
		case charts.SectionDiagnostic:
			data.Diagnostic = append(data.Diagnostic, v)
		case charts.SectionSegments:
			key := strings.TrimSuffix(c.ID, "_target")
			i, ok := groups[key]
			if !ok {
				heading := segmentHeadings[key]
				if heading == "" {
					heading = c.Title
				}
				data.Segments = append(data.Segments, segmentView{Heading: heading})
				i = len(data.Segments) - 1
				groups[key] = i
			}
			data.Segments[i].Charts = append(data.Segments[i].Charts, v)
		}
	}

	for _, q := range diagnostics.Questions {
		sel := string(diagnostics.AnswerYes)
		if v, ok := selected[q.Field]; ok {
			if a, err := diagnostics.ParseAnswer(v); err == nil {
				sel = string(a)
			}
		}
		col := q.Column
		if col < 0 || col > 1 {
			col = 0
		}
		data.Columns[col] = append(data.Columns[col], questionView{
			Field:    string(q.Field),
			Prompt:   q.Prompt,
			Selected: sel,
		})
	}

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		p.log.Error("render dashboard failed", map[string]any{"error": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func validTab(id string) bool {
	for _, t := range tabs {
		if t.ID == id {
			return true
		}
	}
	return false
}
