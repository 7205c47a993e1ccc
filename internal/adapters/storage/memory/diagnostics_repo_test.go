package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-default-dashboard/internal/domain/diagnostics"
)

func rec(sec int) diagnostics.Record {
	return diagnostics.Record{
		SubmittedAt: time.Date(2025, 1, 1, 0, 0, sec, 0, time.UTC),
		Answers:     map[diagnostics.Field]diagnostics.Answer{diagnostics.FieldCanalEfetivo: diagnostics.AnswerYes},
	}
}

func TestDiagnosticsRepo_ListSortedAndCopied(t *testing.T) {
	ctx := context.Background()
	r := NewDiagnosticsRepo(rec(5))
	require.NoError(t, r.Append(ctx, rec(1)))

	got, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].SubmittedAt.Second())
	assert.Equal(t, 5, got[1].SubmittedAt.Second())

	// mutar la copia no toca el repo
	got[0].Answers[diagnostics.FieldCanalEfetivo] = diagnostics.AnswerNo
	again, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, diagnostics.AnswerYes, again[0].Answers[diagnostics.FieldCanalEfetivo])
}

func TestDiagnosticsRepo_FailNextAppend(t *testing.T) {
	ctx := context.Background()
	r := NewDiagnosticsRepo()
	r.FailNextAppend(nil)

	assert.ErrorIs(t, r.Append(ctx, rec(1)), ErrAppendFailed)
	assert.NoError(t, r.Append(ctx, rec(2)))
	assert.Equal(t, 1, r.Len())
}
