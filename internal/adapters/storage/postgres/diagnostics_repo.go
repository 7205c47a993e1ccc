package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"loan-default-dashboard/internal/domain/diagnostics"
)

const schema = `
CREATE TABLE IF NOT EXISTS diagnostic_records (
	id                      TEXT PRIMARY KEY,
	data_envio              TIMESTAMP NOT NULL,
	data_negativacao        TEXT NOT NULL,
	tentativas_cobranca     TEXT NOT NULL,
	canal_efetivo           TEXT NOT NULL,
	divida_quitada          TEXT NOT NULL,
	tempo_resposta_cliente  TEXT NOT NULL,
	motivo_inadimplencia    TEXT NOT NULL,
	acordo_anterior         TEXT NOT NULL,
	tentativas_parcelamento TEXT NOT NULL,
	recorded_at             TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// diagnosticRow mapea la tabla con tags db de sqlx.
type diagnosticRow struct {
	ID                     string    `db:"id"`
	DataEnvio              time.Time `db:"data_envio"`
	DataNegativacao        string    `db:"data_negativacao"`
	TentativasCobranca     string    `db:"tentativas_cobranca"`
	CanalEfetivo           string    `db:"canal_efetivo"`
	DividaQuitada          string    `db:"divida_quitada"`
	TempoRespostaCliente   string    `db:"tempo_resposta_cliente"`
	MotivoInadimplencia    string    `db:"motivo_inadimplencia"`
	AcordoAnterior         string    `db:"acordo_anterior"`
	TentativasParcelamento string    `db:"tentativas_parcelamento"`
}

// DiagnosticsRepo es el espejo en Postgres del archivo plano. No es la fuente de verdad.
type DiagnosticsRepo struct {
	db *sqlx.DB
}

func NewDiagnosticsRepo(db *sqlx.DB) *DiagnosticsRepo {
	return &DiagnosticsRepo{db: db}
}

func (r *DiagnosticsRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create diagnostic_records: %w", err)
	}
	return nil
}

func (r *DiagnosticsRepo) Name() string { return "postgres" }

// Mirror inserta el registro; un id repetido no hace nada.
func (r *DiagnosticsRepo) Mirror(ctx context.Context, submissionID string, rec diagnostics.Record) error {
	row := toRow(submissionID, rec)
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO diagnostic_records (
			id, data_envio,
			data_negativacao, tentativas_cobranca, canal_efetivo, divida_quitada,
			tempo_resposta_cliente, motivo_inadimplencia, acordo_anterior, tentativas_parcelamento
		) VALUES (
			:id, :data_envio,
			:data_negativacao, :tentativas_cobranca, :canal_efetivo, :divida_quitada,
			:tempo_resposta_cliente, :motivo_inadimplencia, :acordo_anterior, :tentativas_parcelamento
		)
		ON CONFLICT (id) DO NOTHING
	`, row)
	if err != nil {
		return fmt.Errorf("insert diagnostic %s: %w", submissionID, err)
	}
	return nil
}

func (r *DiagnosticsRepo) List(ctx context.Context) ([]diagnostics.Record, error) {
	var rows []diagnosticRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT
			id, data_envio,
			data_negativacao, tentativas_cobranca, canal_efetivo, divida_quitada,
			tempo_resposta_cliente, motivo_inadimplencia, acordo_anterior, tentativas_parcelamento
		FROM diagnostic_records
		ORDER BY data_envio ASC, recorded_at ASC
	`); err != nil {
		return nil, err
	}

	out := make([]diagnostics.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", row.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func toRow(id string, rec diagnostics.Record) diagnosticRow {
	a := rec.Answers
	return diagnosticRow{
		ID:                     id,
		DataEnvio:              rec.SubmittedAt,
		DataNegativacao:        string(a[diagnostics.FieldDataNegativacao]),
		TentativasCobranca:     string(a[diagnostics.FieldTentativasCobranca]),
		CanalEfetivo:           string(a[diagnostics.FieldCanalEfetivo]),
		DividaQuitada:          string(a[diagnostics.FieldDividaQuitada]),
		TempoRespostaCliente:   string(a[diagnostics.FieldTempoRespostaCliente]),
		MotivoInadimplencia:    string(a[diagnostics.FieldMotivoInadimplencia]),
		AcordoAnterior:         string(a[diagnostics.FieldAcordoAnterior]),
		TentativasParcelamento: string(a[diagnostics.FieldTentativasParcelamento]),
	}
}

func (row diagnosticRow) record() (diagnostics.Record, error) {
	raw := map[diagnostics.Field]string{
		diagnostics.FieldDataNegativacao:        row.DataNegativacao,
		diagnostics.FieldTentativasCobranca:     row.TentativasCobranca,
		diagnostics.FieldCanalEfetivo:           row.CanalEfetivo,
		diagnostics.FieldDividaQuitada:          row.DividaQuitada,
		diagnostics.FieldTempoRespostaCliente:   row.TempoRespostaCliente,
		diagnostics.FieldMotivoInadimplencia:    row.MotivoInadimplencia,
		diagnostics.FieldAcordoAnterior:         row.AcordoAnterior,
		diagnostics.FieldTentativasParcelamento: row.TentativasParcelamento,
	}
	answers := make(map[diagnostics.Field]diagnostics.Answer, len(raw))
	for f, v := range raw {
		a, err := diagnostics.ParseAnswer(v)
		if err != nil {
			return diagnostics.Record{}, err
		}
		answers[f] = a
	}
	return diagnostics.Record{SubmittedAt: row.DataEnvio, Answers: answers}, nil
}
