package ui

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"sakilahypo/adapters/memory"
	"sakilahypo/app"
	"sakilahypo/domain/core"
	"sakilahypo/domain/dataset"
	idataset "sakilahypo/internal/dataset"
	"sakilahypo/internal/errors"
	"sakilahypo/internal/hypothesis"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	table *dataset.Table
	loads int
}

func (s *staticSource) Name() string { return "static.csv" }

func (s *staticSource) Load(context.Context) (*dataset.Table, error) {
	s.loads++
	return s.table, nil
}

func testTable(t *testing.T) *dataset.Table {
	t.Helper()
	countries := []string{"United States", "Canada", "India", "Japan"}
	ratings := []string{"G", "PG", "PG-13", "R", "NC-17"}

	var rows [][]string
	for i := 0; i < 40; i++ {
		rows = append(rows, []string{
			countries[i%len(countries)],
			ratings[i%len(ratings)],
			strconv.FormatFloat(0.99+float64((i*7)%10), 'f', 2, 64),
		})
	}
	table, err := dataset.FromRecords([]string{"country", "rating", "amount"}, rows)
	require.NoError(t, err)
	return table
}

func newTestApp(t *testing.T) (*App, *staticSource) {
	t.Helper()
	src := &staticSource{table: testTable(t)}
	svc := app.NewAnalysisService(hypothesis.NewAnalyzer(hypothesis.DefaultConfig()), memory.NewAnalysisRepository())
	storage := idataset.NewLocalFileStorageWithPath(t.TempDir())
	return NewApp(svc, NewDatasetCache(src, 0), storage), src
}

func do(t *testing.T, a *App, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	a, _ := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestHypotheses(t *testing.T) {
	a, src := newTestApp(t)

	rec := do(t, a, http.MethodGet, "/api/hypotheses")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, 0.05, body["alpha"])

	results := body["results"].(map[string]interface{})
	for _, name := range hypothesis.Names() {
		res, ok := results[name].(map[string]interface{})
		require.True(t, ok, name)
		assert.NotContains(t, res, "error")
		assert.Contains(t, res, "p_value")
		assert.Contains(t, res, "conclusion")
	}

	do(t, a, http.MethodGet, "/api/hypotheses")
	assert.Equal(t, 1, src.loads, "table is cached")
}

func TestHypothesisByName(t *testing.T) {
	a, _ := newTestApp(t)

	rec := do(t, a, http.MethodGet, "/api/hypotheses/rating")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rating", decode(t, rec)["hypothesis"])

	rec = do(t, a, http.MethodGet, "/api/hypotheses/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
}

func TestCompare(t *testing.T) {
	a, _ := newTestApp(t)

	rec := do(t, a, http.MethodGet, "/api/compare?group=rating")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["code"])

	rec = do(t, a, http.MethodGet, "/api/compare?value=amount&group=rating")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "amount_by_rating", body["hypothesis"])
	assert.Len(t, body["groups"], 5)

	rec = do(t, a, http.MethodGet, "/api/compare?value=amount&group=country&match=Japan&other=Rest")
	require.Equal(t, http.StatusOK, rec.Code)
	groups := decode(t, rec)["groups"].([]interface{})
	require.Len(t, groups, 2)
	assert.Equal(t, "Japan", groups[0].(map[string]interface{})["name"])
	assert.Equal(t, "Rest", groups[1].(map[string]interface{})["name"])

	rec = do(t, a, http.MethodGet, "/api/compare?value=price&group=rating")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "price")
}

func TestCompareRejectsInvalidUTF8(t *testing.T) {
	a, _ := newTestApp(t)

	rec := do(t, a, http.MethodGet, "/api/compare?value=%FF&group=country")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["code"])

	rec = do(t, a, http.MethodGet, "/api/compare?value=amount&group=country&match=%C3%28")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareMissingColumnIsData(t *testing.T) {
	a, _ := newTestApp(t)

	for i := 0; i < 3; i++ {
		rec := do(t, a, http.MethodGet, fmt.Sprintf("/api/compare?value=missing_%d&group=country", i))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, fmt.Sprintf("missing_%d_by_country", i), body["hypothesis"])
		assert.Contains(t, body["error"], fmt.Sprintf("missing_%d", i))
	}
}

func TestColumnsAndDistribution(t *testing.T) {
	a, _ := newTestApp(t)

	rec := do(t, a, http.MethodGet, "/api/columns")
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Len(t, metrics, 3)

	rec = do(t, a, http.MethodGet, "/api/columns/amount/distribution")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, a, http.MethodGet, "/api/columns/country/distribution")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, a, http.MethodGet, "/api/columns/nope/distribution")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_COLUMN", decode(t, rec)["code"])
}

func TestDescribe(t *testing.T) {
	a, _ := newTestApp(t)

	rec := do(t, a, http.MethodGet, "/api/describe")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "static.csv", body["source"])
	assert.EqualValues(t, 40, body["rows"])
}

func TestRunsLifecycle(t *testing.T) {
	a, _ := newTestApp(t)

	rec := do(t, a, http.MethodPost, "/api/runs")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, ok := decode(t, rec)["id"].(string)
	require.True(t, ok)

	rec = do(t, a, http.MethodGet, "/api/runs/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "static.csv", decode(t, rec)["source"])

	rec = do(t, a, http.MethodGet, "/api/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)

	assert.Equal(t, http.StatusBadRequest, do(t, a, http.MethodGet, "/api/runs?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, a, http.MethodGet, "/api/runs?limit=1000").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, a, http.MethodGet, "/api/runs/not-a-uuid").Code)
	assert.Equal(t, http.StatusNotFound, do(t, a, http.MethodGet, "/api/runs/"+uuid.NewString()).Code)

	rec = do(t, a, http.MethodGet, "/report?format=html&run="+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<html")
	assert.Contains(t, rec.Body.String(), id)
}

func TestReport(t *testing.T) {
	a, _ := newTestApp(t)

	rec := do(t, a, http.MethodGet, "/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Analysis report"))

	assert.Equal(t, http.StatusBadRequest, do(t, a, http.MethodGet, "/report?format=pdf").Code)
}

func TestDatasetUpload(t *testing.T) {
	a, _ := newTestApp(t)

	var csv strings.Builder
	csv.WriteString("country,amount\n")
	for i := 0; i < 12; i++ {
		country := "United States"
		if i%2 == 1 {
			country = "Chile"
		}
		fmt.Fprintf(&csv, "%s,%d.99\n", country, i%5)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "upload.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv.String()))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 12, decode(t, rec)["rows"])

	rec = do(t, a, http.MethodGet, "/api/columns")
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Len(t, metrics, 2)

	rec = do(t, a, http.MethodPost, "/api/datasets")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoDataset(t *testing.T) {
	svc := app.NewAnalysisService(hypothesis.NewAnalyzer(hypothesis.DefaultConfig()), nil)
	a := NewApp(svc, NewDatasetCache(nil, 0), nil)

	rec := do(t, a, http.MethodGet, "/api/hypotheses")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode(t, do(t, a, http.MethodGet, "/healthz"))["dataset_loaded"])
}

func TestMetricsEndpoint(t *testing.T) {
	a, _ := newTestApp(t)
	do(t, a, http.MethodGet, "/api/hypotheses")

	rec := do(t, a, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sakilahypo_hypothesis_tests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/hypotheses"`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.NotFound("run"), http.StatusNotFound},
		{errors.WithCode(errors.CodeMissingColumn, core.NewColumnNotFoundError("amount")), http.StatusBadRequest},
		{errors.InsufficientData("too few rows"), http.StatusBadRequest},
		{errors.New(errors.CodeDegenerateSample, "constant"), http.StatusUnprocessableEntity},
		{fmt.Errorf("lookup: %w", core.ErrRunNotFound), http.StatusNotFound},
		{errors.DatabaseError("boom", assert.AnError), http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
