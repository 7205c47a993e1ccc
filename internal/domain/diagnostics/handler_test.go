package diagnostics_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-default-dashboard/internal/adapters/storage/memory"
	"loan-default-dashboard/internal/domain/diagnostics"
	"loan-default-dashboard/internal/ports/notifier"
)

func newTestServer(t *testing.T, n notifier.Notifier) (*httptest.Server, *memory.DiagnosticsRepo) {
	t.Helper()
	repo := memory.NewDiagnosticsRepo()
	svc := diagnostics.NewService(repo, n)

	r := chi.NewRouter()
	diagnostics.RegisterRoutes(r, svc, func(w io.Writer, header []string, rows [][]string) error {
		_, err := io.WriteString(w, strings.Join(header, "|"))
		return err
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func answersJSON(v string) map[string]string {
	out := map[string]string{}
	for _, f := range diagnostics.Fields {
		out[string(f)] = v
	}
	return out
}

func TestSubmitEndpointReportsNotificationFailure(t *testing.T) {
	srv, repo := newTestServer(t, &fakeNotifier{result: notifier.Failed(notifier.KindNetwork, errors.New("dial tcp: i/o timeout"))})

	resp := postJSON(t, srv.URL+"/api/diagnostics", answersJSON("Sim"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		ID           string            `json:"id"`
		Record       map[string]string `json:"record"`
		Persisted    bool              `json:"persisted"`
		Notification struct {
			Sent      bool   `json:"sent"`
			Kind      string `json:"kind"`
			Retryable bool   `json:"retryable"`
			Error     string `json:"error"`
		} `json:"notification"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	assert.NotEmpty(t, out.ID)
	assert.True(t, out.Persisted)
	assert.Len(t, out.Record, 9)
	assert.False(t, out.Notification.Sent)
	assert.Equal(t, "network", out.Notification.Kind)
	assert.True(t, out.Notification.Retryable)
	assert.Contains(t, out.Notification.Error, "i/o timeout")
	assert.Equal(t, 1, repo.Len())
}

func TestSubmitEndpointValidation(t *testing.T) {
	srv, repo := newTestServer(t, &fakeNotifier{result: notifier.Sent()})

	body := answersJSON("Sim")
	delete(body, "canal_efetivo")
	resp := postJSON(t, srv.URL+"/api/diagnostics", body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(srv.URL+"/api/diagnostics", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, 0, repo.Len())
}

func TestSubmitEndpointPersistFailure(t *testing.T) {
	srv, repo := newTestServer(t, &fakeNotifier{result: notifier.Sent()})
	repo.FailNextAppend(nil)

	resp := postJSON(t, srv.URL+"/api/diagnostics", answersJSON("Sim"))
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestListSummaryAndExports(t *testing.T) {
	srv, _ := newTestServer(t, &fakeNotifier{result: notifier.Sent()})

	for _, v := range []string{"Sim", "Não"} {
		resp := postJSON(t, srv.URL+"/api/diagnostics", answersJSON(v))
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/api/diagnostics")
	require.NoError(t, err)
	var list []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 2)

	resp, err = http.Get(srv.URL + "/api/diagnostics/summary")
	require.NoError(t, err)
	var sum struct {
		Submissions int `json:"submissions"`
		Fields      []struct {
			Field   string  `json:"field"`
			Yes     int     `json:"yes"`
			Percent float64 `json:"percent"`
		} `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	resp.Body.Close()
	assert.Equal(t, 2, sum.Submissions)
	require.Len(t, sum.Fields, 8)
	assert.Equal(t, 50.0, sum.Fields[0].Percent)

	resp, err = http.Get(srv.URL + "/api/diagnostics/export.csv")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Equal(t, 3, strings.Count(string(b), "\n"))

	resp, err = http.Get(srv.URL + "/api/diagnostics/export.xlsx")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(b), "data_envio|"))
}
