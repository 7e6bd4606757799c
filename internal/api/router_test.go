package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmex-dev/leveldensity/internal/api/handlers"
	"github.com/bmex-dev/leveldensity/internal/dashboard"
	"github.com/bmex-dev/leveldensity/internal/middleware/ratelimit"
	"github.com/bmex-dev/leveldensity/internal/resolver"
	"github.com/bmex-dev/leveldensity/internal/session"
	"github.com/bmex-dev/leveldensity/internal/storage/models"
	"github.com/bmex-dev/leveldensity/internal/view"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

type fakeHistory struct{}

func (fakeHistory) RecentLookups(_ context.Context, limit int) ([]models.LookupRecord, error) {
	return []models.LookupRecord{{ID: 1, Z: 26, A: 56, FolderFound: true}}, nil
}

func newTestApp(t *testing.T, history handlers.HistoryReader) *fiber.App {
	t.Helper()
	logger.InitNop()

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"Arranged_data.csv":     "Z,A,Datafile,Validation,Reference\n26,56,NLD_26_56_1.csv,,Larsen\n26,57,NLD_26_57_1.csv,no,Other\n",
		"26_56/NLD_26_56_1.csv": "# comment\n# comment\n0.5,12.1,1.2,9\n1.0,30.4,2.5,9\n",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { store.Close() })

	r := resolver.NewResolver(fs, resolver.Config{IndexFile: "Arranged_data.csv", Labels: resolver.CompactLabels})
	deps := Dependencies{
		Service:  dashboard.NewService(r, nil),
		Sessions: handlers.NewSessions(store, "ld_session", time.Hour),
		Renderer: renderer,
		History:  history,
	}
	return NewApp(Options{Debug: true, RateLimit: ratelimit.Config{RequestsPerMinute: 6000, Burst: 100}}, deps)
}

func do(t *testing.T, app *fiber.App, target string, cookies ...*http.Cookie) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "ld_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestResolveThenExport(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := do(t, app, "/api/v1/isotopes?Z=26&A=56")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(t, resp)

	var result struct {
		FolderFound  bool `json:"folder_found"`
		Measurements []struct {
			File    string   `json:"file"`
			Columns []string `json:"columns"`
		} `json:"measurements"`
		Index struct {
			Records []map[string]string `json:"records"`
		} `json:"index"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.FolderFound)
	require.Len(t, result.Measurements, 1)
	assert.Equal(t, []string{"E", "NLD", "NLD_unc"}, result.Measurements[0].Columns)
	require.Len(t, result.Index.Records, 1)
	assert.Equal(t, "yes", result.Index.Records[0]["Validation"])
	assert.NotContains(t, result.Index.Records[0], "Datafile")

	resp, body = do(t, app, "/api/v1/export", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `attachment; filename="LDdata-`)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))

	require.True(t, bytes.HasPrefix(body, []byte("\uFEFF")))
	records, err := csv.NewReader(bytes.NewReader(body[len("\uFEFF"):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"E", "NLD", "NLD_unc"}, {"0.5", "12.1", "1.2"}, {"1", "30.4", "2.5"}}, records)
}

func TestExportWithoutPriorResult(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := do(t, app, "/api/v1/export")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)

	// a prompt does not count as a result
	resp, _ = do(t, app, "/api/v1/isotopes?Z=26")
	cookie := sessionCookie(t, resp)
	resp, _ = do(t, app, "/api/v1/export", cookie)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestResolvePromptAndValidation(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := do(t, app, "/api/v1/isotopes")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, resolver.PromptMissingInput, out["prompt"])

	resp, _ = do(t, app, "/api/v1/isotopes?Z=iron&A=56")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, "/api/v1/isotopes?Z=92&A=238")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, false, out["folder_found"])
	assert.Empty(t, out["measurements"])
}

func TestPageRoutes(t *testing.T) {
	app := newTestApp(t, nil)

	for _, target := range []string{"/?A=56&Z=26", "/A=56&Z=26"} {
		resp, body := do(t, app, target)
		require.Equal(t, http.StatusOK, resp.StatusCode, target)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Find("table.measurements tbody tr").Length(), target)
		assert.Equal(t, "26", doc.Find("input#Z").AttrOr("value", ""), target)
	}

	resp, body := do(t, app, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, resolver.PromptMissingInput, doc.Find("#page-content p.prompt").Text())
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
}

func TestHistoryRoute(t *testing.T) {
	resp, _ := do(t, newTestApp(t, nil), "/api/v1/history")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	app := newTestApp(t, fakeHistory{})
	resp, body := do(t, app, "/api/v1/history?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"folder_found":true`)

	resp, _ = do(t, app, "/api/v1/history?limit=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndStatic(t *testing.T) {
	app := newTestApp(t, nil)

	resp, _ := do(t, app, "/api/v1/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, app, "/static/dashboard.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "WebSocket")

	resp, _ = do(t, app, "/ws")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
