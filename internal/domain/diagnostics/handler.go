package diagnostics

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SheetWriter serializa header + filas a una planilla (xlsx).
type SheetWriter func(w io.Writer, header []string, rows [][]string) error

func RegisterRoutes(r chi.Router, svc *Service, sheet SheetWriter) {
	r.Route("/api/diagnostics", func(dr chi.Router) {
		dr.Post("/", submitHandler(svc))
		dr.Get("/", listHandler(svc))
		dr.Get("/summary", summaryHandler(svc))
		dr.Get("/export.csv", exportCSVHandler(svc))
		if sheet != nil {
			dr.Get("/export.xlsx", exportXLSXHandler(svc, sheet))
		}
	})
}

// submitRequest: una clave por variable, valor "Sim" o "Não".
type submitRequest map[string]string

type notificationResponse struct {
	Sent      bool   `json:"sent"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
	Error     string `json:"error,omitempty"`
}

type submissionResponse struct {
	ID           string               `json:"id"`
	Record       map[string]string    `json:"record"`
	Persisted    bool                 `json:"persisted"`
	Notification notificationResponse `json:"notification"`
}

type fieldCoverageResponse struct {
	Field    string  `json:"field"`
	Question string  `json:"question"`
	Total    int     `json:"total"`
	Yes      int     `json:"yes"`
	Percent  float64 `json:"percent"`
}

type summaryResponse struct {
	Submissions     int                     `json:"submissions"`
	LastSubmittedAt string                  `json:"last_submitted_at,omitempty"`
	Fields          []fieldCoverageResponse `json:"fields"`
}

// submitHandler godoc
// @Summary      Registra un diagnóstico de Score Collection
// @Description  Agrega una fila al archivo y envía el resumen por e-mail. Un fallo de e-mail no deshace la fila.
// @Tags         diagnostics
// @Accept       json
// @Produce      json
// @Param        body  body  submitRequest  true  "respuestas Sim/Não por variable"
// @Success      201  {object}  submissionResponse
// @Failure      400  {string}  string  "invalid input"
// @Failure      500  {string}  string  "could not persist diagnostic"
// @Router       /api/diagnostics [post]
func submitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := make(SubmitInput, len(req))
		for k, v := range req {
			in[Field(k)] = v
		}

		sub, err := svc.Submit(r.Context(), in)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, ErrPersist.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, submissionResponse{
			ID:        sub.ID,
			Record:    sub.Record.Map(),
			Persisted: true,
			Notification: notificationResponse{
				Sent:      sub.Notification.OK(),
				Kind:      string(sub.Notification.Kind),
				Retryable: sub.Notification.Retryable(),
				Error:     sub.Notification.Reason(),
			},
		})
	}
}

// listHandler godoc
// @Summary      Lista los diagnósticos guardados
// @Tags         diagnostics
// @Produce      json
// @Success      200  {array}  object
// @Router       /api/diagnostics [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]map[string]string, 0, len(recs))
		for _, rec := range recs {
			out = append(out, rec.Map())
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// summaryHandler godoc
// @Summary      Cobertura de cada variable sobre todos los diagnósticos
// @Tags         diagnostics
// @Produce      json
// @Success      200  {object}  summaryResponse
// @Router       /api/diagnostics/summary [get]
func summaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toSummaryResponse(sum))
	}
}

// exportCSVHandler godoc
// @Summary      Descarga el archivo de diagnósticos en CSV
// @Tags         diagnostics
// @Produce      text/csv
// @Success      200
// @Router       /api/diagnostics/export.csv [get]
func exportCSVHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := svc.ExportCSV(r.Context(), &buf); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="diagnostico_score_collection.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// exportXLSXHandler godoc
// @Summary      Descarga los diagnósticos como planilla Excel
// @Tags         diagnostics
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200
// @Router       /api/diagnostics/export.xlsx [get]
func exportXLSXHandler(svc *Service, sheet SheetWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header, rows, err := svc.Rows(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		var buf bytes.Buffer
		if err := sheet(&buf, header, rows); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="diagnostico_score_collection.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func toSummaryResponse(sum Summary) summaryResponse {
	out := summaryResponse{
		Submissions: sum.Submissions,
		Fields:      make([]fieldCoverageResponse, 0, len(sum.Fields)),
	}
	if sum.LastSubmittedAt != nil {
		out.LastSubmittedAt = sum.LastSubmittedAt.Format(TimestampLayout)
	}
	for _, fc := range sum.Fields {
		out.Fields = append(out.Fields, fieldCoverageResponse{
			Field:    string(fc.Field),
			Question: fc.Question,
			Total:    fc.Total,
			Yes:      fc.Yes,
			Percent:  fc.Percent,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

