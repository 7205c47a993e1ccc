package diagnostics

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"loan-default-dashboard/internal/domain/charts"
	"loan-default-dashboard/internal/platform/logger"
	"loan-default-dashboard/internal/ports/notifier"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrMalformedRow = errors.New("malformed diagnostic row")
	ErrPersist      = errors.New("could not persist diagnostic")
)

const (
	NotificationSubject = "Diagnóstico Score Collection - Formulário Streamlit"
	notificationHeading = "Diagnóstico do Score Collection:"

	CoverageChartID = "cobertura_diagnostico"
)

// Answers crudas tal como llegan del formulario o del JSON.
type SubmitInput map[Field]string

// Submission es lo que devuelve Submit: el registro ya está en el archivo.
type Submission struct {
	ID           string
	Record       Record
	Notification notifier.Result
}

type Service struct {
	repo     Repository
	notifier notifier.Notifier
	sinks    []Sink
	log      logger.Logger
	now      func() time.Time
	newID    func() string

	// mu serializa timestamp + append: un solo escritor por proceso.
	mu         sync.Mutex
	last       time.Time
	lastLoaded bool
}

type Option func(*Service)

func WithSinks(sinks ...Sink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sinks...) }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, n notifier.Notifier, opts ...Option) *Service {
	if n == nil {
		n = notifier.Unavailable{Reason: errors.New("notifier not configured")}
	}
	s := &Service{
		repo:     repo,
		notifier: n,
		log:      logger.Nop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit valida, persiste y notifica. Solo devuelve error si la validación o el
// append fallan; el resultado de la notificación viaja dentro de Submission.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Submission, error) {
	answers, err := validate(in)
	if err != nil {
		return Submission{}, err
	}

	rec, err := s.appendRecord(ctx, answers)
	if err != nil {
		return Submission{}, err
	}

	sub := Submission{ID: s.newID(), Record: rec}
	log := s.log.With(map[string]any{"submission_id": sub.ID})
	log.Info("diagnostic persisted", map[string]any{"data_envio": rec.SubmittedAt.Format(TimestampLayout)})

	for _, sink := range s.sinks {
		if err := sink.Mirror(ctx, sub.ID, rec); err != nil {
			log.Warn("mirror failed", map[string]any{"sink": sink.Name(), "error": err})
		}
	}

	sub.Notification = s.notifier.Notify(ctx, notifier.Message{
		ID:      sub.ID,
		Subject: NotificationSubject,
		Body:    RenderBody(rec),
	})
	if sub.Notification.OK() {
		log.Info("notification sent", nil)
	} else {
		log.Warn("notification failed", map[string]any{
			"kind":      string(sub.Notification.Kind),
			"retryable": sub.Notification.Retryable(),
			"error":     sub.Notification.Reason(),
		})
	}

	return sub, nil
}

func (s *Service) appendRecord(ctx context.Context, answers map[Field]Answer) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastLoaded {
		s.seedLast(ctx)
		s.lastLoaded = true
	}

	// data_envio tiene resolución de segundos; nunca retrocede aunque el reloj lo haga.
	ts := s.now().Local().Truncate(time.Second)
	if ts.Before(s.last) {
		s.log.Warn("clock behind last data_envio, reusing it", map[string]any{
			"now":        ts.Format(TimestampLayout),
			"data_envio": s.last.Format(TimestampLayout),
		})
		ts = s.last
	}

	rec := Record{SubmittedAt: ts, Answers: answers}
	if err := s.repo.Append(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	s.last = ts
	return rec, nil
}

// seedLast toma el data_envio más reciente ya guardado. Un archivo con filas
// ilegibles no bloquea el append: se usa lo que TimestampScanner pueda rescatar.
func (s *Service) seedLast(ctx context.Context) {
	existing, err := s.repo.List(ctx)
	if err == nil {
		for _, r := range existing {
			if r.SubmittedAt.After(s.last) {
				s.last = r.SubmittedAt
			}
		}
		return
	}

	s.log.Warn("could not read previous diagnostics", map[string]any{"error": err})
	scanner, ok := s.repo.(TimestampScanner)
	if !ok {
		return
	}
	last, err := scanner.LastSubmittedAt(ctx)
	if err != nil {
		s.log.Warn("could not scan previous data_envio", map[string]any{"error": err})
		return
	}
	s.last = last
}

func validate(in SubmitInput) (map[Field]Answer, error) {
	var missing []string
	answers := make(map[Field]Answer, len(Fields))
	for _, f := range Fields {
		raw, ok := in[f]
		if !ok || strings.TrimSpace(raw) == "" {
			missing = append(missing, string(f))
			continue
		}
		a, err := ParseAnswer(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		answers[f] = a
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return answers, nil
}

// RenderBody arma el cuerpo en texto plano: una línea "Clave humanizada: valor" por campo.
func RenderBody(rec Record) string {
	var b strings.Builder
	b.WriteString(notificationHeading)
	b.WriteString("\n\n")

	keys := Header()
	values := rec.Values()
	for i, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", Humanize(k), values[i])
	}
	return b.String()
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].SubmittedAt.Before(recs[j].SubmittedAt)
	})
	return recs, nil
}

// Rows devuelve header + filas tal cual van al archivo (para exportar).
func (s *Service) Rows(ctx context.Context) ([]string, [][]string, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return Header(), Rows(recs), nil
}

// ExportCSV escribe el mismo formato que el archivo plano.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	recs, err := s.List(ctx)
	if err != nil {
		return err
	}
	return WriteCSV(w, recs)
}

// Rows convierte registros en filas en el orden de Header.
func Rows(recs []Record) [][]string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.Values())
	}
	return rows
}

// WriteCSV escribe header + una fila por registro.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	if err := cw.WriteAll(Rows(recs)); err != nil {
		return err
	}
	return cw.Error()
}

type FieldCoverage struct {
	Field    Field
	Question string
	Total    int
	Yes      int
	// Porcentaje de "Sim" con un decimal.
	Percent float64
}

type Summary struct {
	Submissions     int
	LastSubmittedAt *time.Time
	Fields          []FieldCoverage
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(recs)
}

// Summarize calcula la cobertura de cada variable sobre todos los registros.
func Summarize(recs []Record) (Summary, error) {
	out := Summary{
		Submissions: len(recs),
		Fields:      make([]FieldCoverage, 0, len(Questions)),
	}
	for _, r := range recs {
		if out.LastSubmittedAt == nil || r.SubmittedAt.After(*out.LastSubmittedAt) {
			t := r.SubmittedAt
			out.LastSubmittedAt = &t
		}
	}

	for _, q := range Questions {
		fc := FieldCoverage{Field: q.Field, Question: q.Prompt, Total: len(recs)}
		if len(recs) == 0 {
			out.Fields = append(out.Fields, fc)
			continue
		}

		data := make(stats.Float64Data, len(recs))
		for i, r := range recs {
			if r.Answers[q.Field] == AnswerYes {
				data[i] = 1
				fc.Yes++
			}
		}
		mean, err := stats.Mean(data)
		if err != nil {
			return Summary{}, fmt.Errorf("coverage %s: %w", q.Field, err)
		}
		pct, err := stats.Round(mean*100, 1)
		if err != nil {
			return Summary{}, fmt.Errorf("coverage %s: %w", q.Field, err)
		}
		fc.Percent = pct
		out.Fields = append(out.Fields, fc)
	}
	return out, nil
}

// CoverageChart es el Provider del gráfico dinámico de cobertura.
func (s *Service) CoverageChart(ctx context.Context) (charts.Chart, error) {
	sum, err := s.Summary(ctx)
	if err != nil {
		return charts.Chart{}, err
	}

	categories := make([]string, 0, len(sum.Fields))
	values := make([]float64, 0, len(sum.Fields))
	for _, fc := range sum.Fields {
		categories = append(categories, Humanize(string(fc.Field)))
		values = append(values, fc.Percent)
	}

	return charts.Chart{
		ID:         CoverageChartID,
		Title:      fmt.Sprintf("Cobertura das variáveis essenciais (%d diagnósticos)", sum.Submissions),
		Section:    charts.SectionDiagnostic,
		Kind:       charts.KindBar,
		XLabel:     "variavel",
		Categories: categories,
		Series:     []charts.Series{{Name: "Sim", Values: values, Color: "#2E86AB"}},
	}, nil
}
