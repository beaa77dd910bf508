package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"sakilahypo/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const rentalsCSV = `,rental_id,country,rating,amount
0,1,United States,PG,4.99
1,2,Canada,G,2.99
2,3,Japan,R,
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadCSVTable(t *testing.T) {
	path := writeTemp(t, "rentals.csv", rentalsCSV)

	table, err := ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, []string{"index", "rental_id", "country", "rating", "amount"}, table.ColumnNames())

	amount, err := table.Column("amount")
	require.NoError(t, err)
	assert.Equal(t, dataset.KindNumeric, amount.Kind)
	assert.True(t, amount.IsMissing(2))

	countries, err := table.Strings("country")
	require.NoError(t, err)
	assert.Equal(t, []string{"United States", "Canada", "Japan"}, countries)
}

func TestReadExcelFirstSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diabetes.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "data"))
	require.NoError(t, f.SetSheetRow("data", "A1", &[]interface{}{"Glucose", "Outcome"}))
	require.NoError(t, f.SetSheetRow("data", "A2", &[]interface{}{148, 1}))
	require.NoError(t, f.SetSheetRow("data", "A3", &[]interface{}{85, 0}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := NewDataReader(path).ReadTable()
	require.NoError(t, err)

	glucose, err := table.Numeric("Glucose")
	require.NoError(t, err)
	assert.Equal(t, []float64{148, 85}, glucose)
}

func TestWriteFileXLSXAndReadBack(t *testing.T) {
	src, err := dataset.FromRecords(
		[]string{"film_id", "title", "amount"},
		[][]string{{"1", "ACADEMY DINOSAUR", "0.99"}, {"2", "ACE GOLDFINGER", ""}},
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "films.xlsx")
	require.NoError(t, WriteFile(path, src))

	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, src.ColumnNames(), table.ColumnNames())

	titles, err := table.Strings("title")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACADEMY DINOSAUR", "ACE GOLDFINGER"}, titles)

	amount, err := table.Column("amount")
	require.NoError(t, err)
	assert.Equal(t, 0.99, amount.Float(0))
	assert.True(t, amount.IsMissing(1))
}

func TestWriteCSV(t *testing.T) {
	table, err := dataset.FromRecords(
		[]string{"country", "amount"},
		[][]string{{"Canada", "2.99"}, {"Japan, Tokyo", ""}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.Equal(t, "country,amount\nCanada,2.99\n\"Japan, Tokyo\",\n", buf.String())
}

func TestReadErrors(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorContains(t, err, "not found")

	_, err = ReadTable(writeTemp(t, "rentals.json", "{}"))
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = ReadTable(writeTemp(t, "header.csv", "a,b\n"))
	assert.ErrorContains(t, err, "at least a header row")

	assert.Error(t, WriteFile(filepath.Join(t.TempDir(), "x.parquet"), dataset.NewTable(0)))
}

func TestFileSource(t *testing.T) {
	path := writeTemp(t, "rentals.csv", rentalsCSV)
	src := NewFileSource(path)
	assert.Equal(t, path, src.Name())

	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, table.Rows())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
