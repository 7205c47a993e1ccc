package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"loan-default-dashboard/internal/domain/diagnostics"
)

var (
	ErrHeaderMismatch = errors.New("csv header does not match diagnostic keys")
)

// DiagnosticsRepo es el archivo plano append-only diagnostico_score_collection.csv.
// Un solo escritor por proceso: mu serializa los appends; otros procesos no se coordinan.
type DiagnosticsRepo struct {
	mu   sync.Mutex
	path string
}

func NewDiagnosticsRepo(path string) *DiagnosticsRepo {
	return &DiagnosticsRepo{path: path}
}

func (r *DiagnosticsRepo) Path() string {
	return r.path
}

// Append escribe una fila. Si el archivo no existe (o está vacío) escribe antes el header.
func (r *DiagnosticsRepo) Append(ctx context.Context, rec diagnostics.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	needHeader := false
	info, err := os.Stat(r.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		needHeader = true
	case err != nil:
		return fmt.Errorf("stat %s: %w", r.path, err)
	case info.Size() == 0:
		needHeader = true
	}

	if dir := filepath.Dir(r.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.path, err)
	}

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(diagnostics.Header()); err != nil {
			_ = f.Close()
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(rec.Values()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", r.path, err)
	}
	return f.Close()
}

// List relee todo el archivo. Archivo inexistente = sin registros.
func (r *DiagnosticsRepo) List(ctx context.Context) ([]diagnostics.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []diagnostics.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []diagnostics.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	out := make([]diagnostics.Record, 0)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rec, err := diagnostics.ParseRow(header, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// LastSubmittedAt devuelve el data_envio más reciente entre las filas cuya fecha
// se puede leer. A diferencia de List, las filas rotas se saltean.
func (r *DiagnosticsRepo) LastSubmittedAt(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read header: %w", err)
	}
	pos := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == diagnostics.KeySubmittedAt {
			pos = i
			break
		}
	}
	if pos < 0 {
		return time.Time{}, fmt.Errorf("%w: missing %s", ErrHeaderMismatch, diagnostics.KeySubmittedAt)
	}

	var last time.Time
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}
		if err != nil {
			return time.Time{}, err
		}
		if pos >= len(row) {
			continue
		}
		ts, err := time.ParseInLocation(diagnostics.TimestampLayout, strings.TrimSpace(row[pos]), time.Local)
		if err != nil {
			continue
		}
		if ts.After(last) {
			last = ts
		}
	}
	return last, nil
}

func checkHeader(header []string) error {
	want := diagnostics.Header()
	if len(header) != len(want) {
		return fmt.Errorf("%w: got %d columns", ErrHeaderMismatch, len(header))
	}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		// BOM que deja Excel al re-guardar el archivo
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		seen[header[i]] = true
	}
	for _, k := range want {
		if !seen[k] {
			return fmt.Errorf("%w: missing %s", ErrHeaderMismatch, k)
		}
	}
	return nil
}
