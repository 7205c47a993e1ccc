package diagnostics

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout es el formato de data_envio en el archivo y en el e-mail.
const TimestampLayout = "2006-01-02 15:04:05"

// KeySubmittedAt es la primera columna del archivo.
const KeySubmittedAt = "data_envio"

// Answer es la respuesta de un radio button.
type Answer string

const (
	AnswerYes Answer = "Sim"
	AnswerNo  Answer = "Não"
)

// ParseAnswer acepta "sim", "não" y "nao" sin importar mayúsculas.
func ParseAnswer(s string) (Answer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sim":
		return AnswerYes, nil
	case "não", "nao":
		return AnswerNo, nil
	default:
		return "", fmt.Errorf("%w: answer must be %q or %q, got %q", ErrInvalidInput, AnswerYes, AnswerNo, s)
	}
}

// Field es una de las ocho variables del diagnóstico.
type Field string

const (
	FieldDataNegativacao        Field = "data_negativacao"
	FieldTentativasCobranca     Field = "tentativas_cobranca"
	FieldCanalEfetivo           Field = "canal_efetivo"
	FieldDividaQuitada          Field = "divida_quitada"
	FieldTempoRespostaCliente   Field = "tempo_resposta_cliente"
	FieldMotivoInadimplencia    Field = "motivo_inadimplencia"
	FieldAcordoAnterior         Field = "acordo_anterior"
	FieldTentativasParcelamento Field = "tentativas_parcelamento"
)

// Fields en orden de columna.
var Fields = []Field{
	FieldDataNegativacao,
	FieldTentativasCobranca,
	FieldCanalEfetivo,
	FieldDividaQuitada,
	FieldTempoRespostaCliente,
	FieldMotivoInadimplencia,
	FieldAcordoAnterior,
	FieldTentativasParcelamento,
}

// Question describe cómo se pregunta cada Field en el formulario.
type Question struct {
	Field  Field
	Prompt string
	// Column 0 = izquierda, 1 = derecha.
	Column int
}

var Questions = []Question{
	{Field: FieldDataNegativacao, Prompt: "Contém data da negativação?", Column: 0},
	{Field: FieldTentativasCobranca, Prompt: "Contém tentativas de cobrança?", Column: 0},
	{Field: FieldCanalEfetivo, Prompt: "Contém canal de contato efetivo?", Column: 0},
	{Field: FieldDividaQuitada, Prompt: "Contém indicador de quitação?", Column: 0},
	{Field: FieldTempoRespostaCliente, Prompt: "Contém tempo de resposta do cliente?", Column: 1},
	{Field: FieldMotivoInadimplencia, Prompt: "Contém motivo da inadimplência?", Column: 1},
	{Field: FieldAcordoAnterior, Prompt: "Contém acordo anterior?", Column: 1},
	{Field: FieldTentativasParcelamento, Prompt: "Contém tentativas de parcelamento?", Column: 1},
}

// Header devuelve las nueve claves en orden de columna.
func Header() []string {
	out := make([]string, 0, len(Fields)+1)
	out = append(out, KeySubmittedAt)
	for _, f := range Fields {
		out = append(out, string(f))
	}
	return out
}

// Record es un DiagnosticRecord: inmutable una vez creado.
type Record struct {
	SubmittedAt time.Time
	Answers     map[Field]Answer
}

// Values devuelve la fila en el mismo orden que Header.
func (r Record) Values() []string {
	out := make([]string, 0, len(Fields)+1)
	out = append(out, r.SubmittedAt.Format(TimestampLayout))
	for _, f := range Fields {
		out = append(out, string(r.Answers[f]))
	}
	return out
}

// Map es la vista clave → valor del registro (útil para JSON).
func (r Record) Map() map[string]string {
	keys := Header()
	values := r.Values()
	out := make(map[string]string, len(keys))
	for i, k := range keys {
		out[k] = values[i]
	}
	return out
}

// ParseRow reconstruye un Record a partir de una fila y su header.
// El header puede venir en cualquier orden pero debe tener las nueve claves.
func ParseRow(header, row []string) (Record, error) {
	if len(header) != len(row) {
		return Record{}, fmt.Errorf("%w: row has %d columns, header has %d", ErrMalformedRow, len(row), len(header))
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	tsPos, ok := idx[KeySubmittedAt]
	if !ok {
		return Record{}, fmt.Errorf("%w: missing column %s", ErrMalformedRow, KeySubmittedAt)
	}
	ts, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(row[tsPos]), time.Local)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedRow, KeySubmittedAt, err)
	}

	answers := make(map[Field]Answer, len(Fields))
	for _, f := range Fields {
		pos, ok := idx[string(f)]
		if !ok {
			return Record{}, fmt.Errorf("%w: missing column %s", ErrMalformedRow, f)
		}
		a, err := ParseAnswer(row[pos])
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedRow, f, err)
		}
		answers[f] = a
	}

	return Record{SubmittedAt: ts, Answers: answers}, nil
}

// Humanize replica el formato del resumen: "data_negativacao" → "Data negativacao".
func Humanize(key string) string {
	s := strings.ToLower(strings.ReplaceAll(key, "_", " "))
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
