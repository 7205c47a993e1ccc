package diagnostics

import (
	"context"
	"time"
)

// Repository es el archivo plano append-only (o un doble en tests).
type Repository interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
}

// Sink recibe cada registro ya persistido (Postgres, Kafka). Sus fallos no afectan el envío.
type Sink interface {
	Name() string
	Mirror(ctx context.Context, submissionID string, rec Record) error
}

// TimestampScanner lo implementan los repos que pueden recuperar el último
// data_envio aunque alguna fila no se pueda parsear.
type TimestampScanner interface {
	LastSubmittedAt(ctx context.Context) (time.Time, error)
}
