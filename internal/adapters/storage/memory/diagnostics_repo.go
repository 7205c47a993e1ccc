package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"loan-default-dashboard/internal/domain/diagnostics"
)

var (
	ErrAppendFailed = errors.New("append failed")
)

// DiagnosticsRepo guarda los registros en memoria (tests y modo dev sin disco).
type DiagnosticsRepo struct {
	mu   sync.RWMutex
	rows []diagnostics.Record

	// FailNext hace fallar el próximo Append.
	failNext error
}

func NewDiagnosticsRepo(seed ...diagnostics.Record) *DiagnosticsRepo {
	r := &DiagnosticsRepo{}
	for _, rec := range seed {
		r.rows = append(r.rows, copyRecord(rec))
	}
	return r
}

func (r *DiagnosticsRepo) Append(ctx context.Context, rec diagnostics.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	r.rows = append(r.rows, copyRecord(rec))
	return nil
}

func (r *DiagnosticsRepo) List(ctx context.Context) ([]diagnostics.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]diagnostics.Record, 0, len(r.rows))
	for _, rec := range r.rows {
		out = append(out, copyRecord(rec))
	}

	// Orden estable por data_envio asc
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

// FailNextAppend programa un error para el próximo Append. nil usa ErrAppendFailed.
func (r *DiagnosticsRepo) FailNextAppend(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		err = ErrAppendFailed
	}
	r.failNext = err
}

func (r *DiagnosticsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func copyRecord(rec diagnostics.Record) diagnostics.Record {
	answers := make(map[diagnostics.Field]diagnostics.Answer, len(rec.Answers))
	for k, v := range rec.Answers {
		answers[k] = v
	}
	return diagnostics.Record{SubmittedAt: rec.SubmittedAt, Answers: answers}
}
