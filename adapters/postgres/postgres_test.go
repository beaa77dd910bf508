package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"sakilahypo/domain/core"
	"sakilahypo/domain/dataset"
	"sakilahypo/domain/stats"
	"sakilahypo/internal/errors"
	"sakilahypo/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var rentalDate = time.Date(2005, 5, 25, 11, 30, 37, 0, time.UTC)

// rentalRow builds a result row in RentalColumns order
func rentalRow(paymentID int64, country string, rating, returnDate driver.Value, amount float64) []driver.Value {
	return []driver.Value{
		int64(1), "ACADEMY DINOSAUR", "A Epic Drama", int64(2006), int64(1), int64(6),
		0.99, int64(86), 20.99, rating,
		int64(1), "PENELOPE", "GUINESS",
		int64(130), "CHARLOTTE", "HUNTER", "charlotte.hunter@sakilacustomer.org", int64(1),
		int64(1), rentalDate, returnDate,
		paymentID, amount, rentalDate,
		int64(367),
		int64(1), int64(1),
		int64(1), "Mike", "Hillyer",
		int64(134), "1519 Ilorin Place", nil, "Kerala", "3684",
		int64(394), "Palghat",
		int64(44), country,
		int64(6), "Documentary",
		"English",
		int64(1),
		int64(1),
	}
}

func TestSakilaExtractorLoad(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows(models.RentalColumns).
		AddRow(rentalRow(1, "India", "PG", rentalDate.Add(48*time.Hour), 2.99)...).
		AddRow(rentalRow(2, "United States", nil, nil, 0.99)...)
	mock.ExpectQuery("SELECT (.+) FROM film f").WillReturnRows(rows)

	extractor := NewSakilaExtractor(db)
	assert.Equal(t, "postgres:sakila", extractor.Name())

	table, err := extractor.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 2, table.Rows())
	assert.Equal(t, models.RentalColumns, table.ColumnNames())

	amount, err := table.Numeric("amount")
	require.NoError(t, err)
	assert.Equal(t, []float64{2.99, 0.99}, amount)

	ratings, err := table.Column("rating")
	require.NoError(t, err)
	assert.Equal(t, dataset.KindCategorical, ratings.Kind)
	assert.True(t, ratings.IsMissing(1))

	returns, err := table.Strings("return_date")
	require.NoError(t, err)
	assert.Equal(t, []string{"2005-05-27 11:30:37", ""}, returns)
}

func TestSakilaExtractorQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT (.+) FROM film f").WillReturnError(assert.AnError)

	_, err := NewSakilaExtractor(db).Extract(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDatabaseError))
}

var runCols = []string{
	"id", "source", "row_count", "column_count", "alpha", "seed",
	"results", "metrics", "warnings", "result_hash", "duration_ms", "created_at",
}

func sampleRun() *models.AnalysisRun {
	run := models.NewAnalysisRun("data/optimized_sakila_pg.csv")
	run.RowCount = 10
	run.Columns = 4
	run.Alpha = 0.05
	run.Seed = 42
	run.Results = models.TestResults{{
		Hypothesis: "country",
		Test:       stats.TestWelch,
		PValue:     0.25,
		Conclusion: "Fail to reject H0 (p=0.2500).",
	}}
	run.ComputeHash()
	return run
}

func TestSaveRun(t *testing.T) {
	db, mock := newMockDB(t)
	run := sampleRun()

	mock.ExpectExec("INSERT INTO analysis_runs").
		WithArgs(run.ID, run.Source, run.RowCount, run.Columns, run.Alpha, run.Seed,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			run.ResultHash, run.DurationMS, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewAnalysisRepository(db).SaveRun(context.Background(), run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO analysis_runs").WillReturnError(assert.AnError)

	err := NewAnalysisRepository(db).SaveRun(context.Background(), sampleRun())
	assert.True(t, errors.IsCode(err, errors.CodeDatabaseError))
}

func TestGetRun(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM analysis_runs WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(runCols).AddRow(
			id.String(), "sakila.csv", int64(100), int64(44), 0.05, int64(42),
			[]byte(`[{"hypothesis":"rating","test":"ANOVA","statistic":1.2,"p_value":0.3,"conclusion":"Fail to reject H0 (p=0.3000)."}]`),
			[]byte(`[{"column":"amount","missing_pct":0}]`),
			[]byte(`{"features":"skipped"}`),
			"abc", int64(12), created,
		))

	run, err := NewAnalysisRepository(db).GetRun(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, id, run.ID)
	assert.Equal(t, 44, run.Columns)
	require.Len(t, run.Results, 1)
	assert.Equal(t, stats.TestANOVA, run.Results[0].Test)
	assert.Equal(t, "amount", run.Metrics[0].Column)
	assert.Equal(t, "skipped", run.Warnings["features"])
	assert.Equal(t, created, run.CreatedAt)
}

func TestGetRunNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT (.+) FROM analysis_runs WHERE id").
		WillReturnRows(sqlmock.NewRows(runCols))

	_, err := NewAnalysisRepository(db).GetRun(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestListRunsDefaultLimit(t *testing.T) {
	db, mock := newMockDB(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM analysis_runs ORDER BY created_at DESC LIMIT").
		WithArgs(defaultListLimit).
		WillReturnRows(sqlmock.NewRows(runCols).
			AddRow(uuid.NewString(), "b.csv", int64(2), int64(2), 0.05, int64(42), nil, nil, nil, "h2", int64(1), created).
			AddRow(uuid.NewString(), "a.csv", int64(1), int64(2), 0.05, int64(42), nil, nil, nil, "h1", int64(1), created.Add(-time.Hour)))

	runs, err := NewAnalysisRepository(db).ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, runs, 2)
	assert.Equal(t, "b.csv", runs[0].Source)
	assert.Nil(t, runs[1].Results)
}
