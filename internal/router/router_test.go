package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-default-dashboard/internal/config"
	"loan-default-dashboard/internal/domain/diagnostics"
	"loan-default-dashboard/internal/ports/notifier"
	"loan-default-dashboard/internal/router"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log:     config.LogConfig{App: "dash-test"},
		Storage: config.StorageConfig{DiagnosticsFile: filepath.Join(t.TempDir(), "diagnostico_score_collection.csv")},
		Mail: config.MailConfig{
			Host: config.DefaultSMTPHost,
			Port: config.DefaultSMTPPort,
		},
	}
}

func TestHTTP_EndToEnd_SubmitWithoutMailCredentials(t *testing.T) {
	cfg := testConfig(t)
	h, err := router.NewRouter(router.Options{Config: cfg})
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	defer ts.Close()

	// 1) health
	{
		st, body := doReq(t, ts.URL, "GET", "/health", nil)
		require.Equal(t, http.StatusOK, st)
		assert.Equal(t, "ok", string(body))
	}

	// 2) submit por API: se guarda aunque no haya credenciales
	{
		answers := map[string]string{}
		for _, f := range diagnostics.Fields {
			answers[string(f)] = "Sim"
		}
		st, body := doReq(t, ts.URL, "POST", "/api/diagnostics", answers)
		require.Equal(t, http.StatusCreated, st, string(body))

		var out struct {
			Persisted    bool `json:"persisted"`
			Notification struct {
				Sent  bool   `json:"sent"`
				Kind  string `json:"kind"`
				Error string `json:"error"`
			} `json:"notification"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		assert.True(t, out.Persisted)
		assert.False(t, out.Notification.Sent)
		assert.Equal(t, string(notifier.KindConfig), out.Notification.Kind)
		assert.Contains(t, out.Notification.Error, "EMAIL_USER")
	}

	// 3) submit por formulario
	{
		form := url.Values{}
		for _, f := range diagnostics.Fields {
			form.Set(string(f), "Não")
		}
		resp, err := http.PostForm(ts.URL+"/diagnostico", form)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "Diagnóstico salvo com sucesso!")
		assert.Contains(t, string(body), "Erro ao enviar e-mail")
	}

	// 4) el archivo tiene header + 2 filas
	{
		raw, err := os.ReadFile(cfg.Storage.DiagnosticsFile)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, strings.Join(diagnostics.Header(), ","), lines[0])
		assert.True(t, strings.HasSuffix(lines[2], ",Não,Não,Não,Não,Não,Não,Não,Não"))
	}

	// 5) resumen
	{
		st, body := doReq(t, ts.URL, "GET", "/api/diagnostics/summary", nil)
		require.Equal(t, http.StatusOK, st)
		assert.Contains(t, string(body), `"submissions":2`)
	}
}

func TestHTTP_ChartsAndDashboard(t *testing.T) {
	h, err := router.NewRouter(router.Options{Config: testConfig(t)})
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/api/charts", nil)
	require.Equal(t, http.StatusOK, st)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 8)

	st, body = doReq(t, ts.URL, "GET", "/charts/cobertura_diagnostico.svg", nil)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(body), "<svg")

	st, _ = doReq(t, ts.URL, "GET", "/charts/nope.svg", nil)
	assert.Equal(t, http.StatusNotFound, st)

	st, body = doReq(t, ts.URL, "GET", "/", nil)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(body), "30.043")

	st, _ = doReq(t, ts.URL, "GET", "/swagger/doc.json", nil)
	assert.Equal(t, http.StatusOK, st)
}

func TestNewRouterRequiresConfig(t *testing.T) {
	_, err := router.NewRouter(router.Options{})
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	n, err := router.NewNotifier(config.MailConfig{Host: "smtp.example.com", Port: 465})
	require.ErrorIs(t, err, config.ErrMissingMailConfig)
	_, ok := n.(notifier.Unavailable)
	assert.True(t, ok)

	n, err = router.NewNotifier(config.MailConfig{
		User: "a@example.com", Password: "x", Recipient: "b@example.com",
		Host: "smtp.example.com", Port: 465,
	})
	require.NoError(t, err)
	_, ok = n.(notifier.Unavailable)
	assert.False(t, ok)
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func TestHTTP_BrokenRowDoesNotBlockSubmissions(t *testing.T) {
	cfg := testConfig(t)
	content := strings.Join(diagnostics.Header(), ",") + "\n" +
		"2025-06-03 14:07:01,Sim,Sim,Sim,Sim,Sim,Sim,Sim,Sim\n" +
		"2025-06-03 14:07:02,Sim,Sim,talvez,Sim,Sim,Sim,Sim,Sim\n"
	require.NoError(t, os.WriteFile(cfg.Storage.DiagnosticsFile, []byte(content), 0o644))

	h, err := router.NewRouter(router.Options{Config: cfg})
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	defer ts.Close()

	// 1) submit: la fila se agrega igual
	{
		answers := map[string]string{}
		for _, f := range diagnostics.Fields {
			answers[string(f)] = "Não"
		}
		st, body := doReq(t, ts.URL, "POST", "/api/diagnostics", answers)
		require.Equal(t, http.StatusCreated, st, string(body))

		raw, err := os.ReadFile(cfg.Storage.DiagnosticsFile)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasSuffix(lines[3], ",Não,Não,Não,Não,Não,Não,Não,Não"))
	}

	// 2) la página y el formulario siguen disponibles
	{
		st, body := doReq(t, ts.URL, "GET", "/", nil)
		require.Equal(t, http.StatusOK, st)
		assert.Contains(t, string(body), "30.043")

		st, body = doReq(t, ts.URL, "GET", "/?tab=diagnostico_base", nil)
		require.Equal(t, http.StatusOK, st)
		assert.Contains(t, string(body), `action="/diagnostico"`)
	}
}
