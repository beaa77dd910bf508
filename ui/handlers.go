package ui

import (
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"sakilahypo/adapters/excel"
	"sakilahypo/app"
	"sakilahypo/domain/dataset"
	"sakilahypo/internal/errors"
	"sakilahypo/internal/hypothesis"
	"sakilahypo/internal/profiling"
	"sakilahypo/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxUploadMemory = 32 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type compareQuery struct {
	Value string `validate:"required"`
	Group string `validate:"required"`
	Match string
	Other string
}

type listQuery struct {
	Limit int `validate:"omitempty,min=1,max=500"`
}

func (a *App) table(w http.ResponseWriter, r *http.Request) (*dataset.Table, string, bool) {
	table, source, err := a.cache.Get(r.Context())
	if err != nil {
		respondError(w, err)
		return nil, "", false
	}
	return table, source, true
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"dataset_loaded": a.cache.Loaded(),
	})
}

// handleHypotheses evaluates every built-in hypothesis
func (a *App) handleHypotheses(w http.ResponseWriter, r *http.Request) {
	table, _, ok := a.table(w, r)
	if !ok {
		return
	}

	results := make(map[string]interface{}, len(hypothesis.Names()))
	for _, name := range hypothesis.Names() {
		res, err := a.service.Hypothesis(name, table)
		if err != nil {
			respondError(w, err)
			return
		}
		results[name] = res.Map()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alpha":   a.service.Analyzer().Config().Alpha,
		"results": results,
	})
}

func (a *App) handleHypothesis(w http.ResponseWriter, r *http.Request) {
	table, _, ok := a.table(w, r)
	if !ok {
		return
	}
	res, err := a.service.Hypothesis(chi.URLParam(r, "name"), table)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleCompare runs an ad-hoc comparison described by the query string
func (a *App) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := compareQuery{
		Value: q.Get("value"),
		Group: q.Get("group"),
		Match: q.Get("match"),
		Other: q.Get("other"),
	}
	if err := validate.Struct(query); err != nil {
		respondError(w, errors.ValidationError(err.Error()))
		return
	}
	for _, v := range []string{query.Value, query.Group, query.Match, query.Other} {
		if !utf8.ValidString(v) {
			respondError(w, errors.ValidationError("compare parameters must be valid UTF-8"))
			return
		}
	}

	table, _, ok := a.table(w, r)
	if !ok {
		return
	}
	res := a.service.Compare(table, hypothesis.CompareRequest{
		Value:      query.Value,
		Group:      query.Group,
		Match:      query.Match,
		OtherLabel: query.Other,
	})
	respondJSON(w, http.StatusOK, res)
}

func (a *App) handleColumns(w http.ResponseWriter, r *http.Request) {
	table, _, ok := a.table(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, profiling.Calculate(table))
}

func (a *App) handleDistribution(w http.ResponseWriter, r *http.Request) {
	table, _, ok := a.table(w, r)
	if !ok {
		return
	}
	analyzer := profiling.NewDistributionAnalyzer(a.service.Analyzer().Config().Alpha)
	dist, err := analyzer.AnalyzeColumn(table, chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dist)
}

func (a *App) handleDescribe(w http.ResponseWriter, r *http.Request) {
	table, source, ok := a.table(w, r)
	if !ok {
		return
	}
	desc := profiling.Describe(table)
	desc.Source = source
	respondJSON(w, http.StatusOK, desc)
}

// handleCreateRun runs the full pipeline over the current dataset
func (a *App) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	table, source, ok := a.table(w, r)
	if !ok {
		return
	}
	run, err := a.service.Run(r.Context(), table, source)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, run)
}

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	var query listQuery
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, errors.InvalidInput(fmt.Sprintf("invalid limit %q", raw)))
			return
		}
		query.Limit = limit
	}
	if err := validate.Struct(query); err != nil {
		respondError(w, errors.ValidationError(err.Error()))
		return
	}

	runs, err := a.service.ListRuns(r.Context(), query.Limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errors.InvalidInput("invalid run id"))
		return
	}
	run, err := a.service.GetRun(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// handleReport renders a stored run, or a fresh one when no run is given,
// as Markdown or HTML
func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "md"
	}
	if format != "md" && format != "html" {
		respondError(w, errors.InvalidInput(fmt.Sprintf("unknown report format %q", format)))
		return
	}

	var run *models.AnalysisRun
	if raw := r.URL.Query().Get("run"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, errors.InvalidInput("invalid run id"))
			return
		}
		if run, err = a.service.GetRun(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
	} else {
		table, source, ok := a.table(w, r)
		if !ok {
			return
		}
		var err error
		if run, err = a.service.Run(r.Context(), table, source); err != nil {
			respondError(w, err)
			return
		}
	}

	if format == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(app.RenderHTML(run))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(app.RenderMarkdown(run))
}

// handleDatasetUpload stores an uploaded CSV or XLSX file and makes it the
// current dataset
func (a *App) handleDatasetUpload(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		respondError(w, errors.NotFound("dataset uploads"))
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, errors.InvalidInput("expected a multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, errors.InvalidInput("missing 'file' field"))
		return
	}
	defer file.Close()

	path, err := a.storage.Store(r.Context(), file, header.Filename)
	if err != nil {
		respondError(w, err)
		return
	}
	source := excel.NewFileSource(path)
	table, err := source.Load(r.Context())
	if err != nil {
		_ = a.storage.Delete(r.Context(), path)
		respondError(w, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	a.cache.Replace(source, table)

	a.log.Info().
		Str("file", sanitizeLogValue(header.Filename)).
		Str("path", path).
		Int("rows", table.Rows()).
		Msg("dataset uploaded")
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"source":  path,
		"rows":    table.Rows(),
		"columns": table.ColumnNames(),
	})
}
