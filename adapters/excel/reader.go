package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sakilahypo/domain/dataset"
	"sakilahypo/internal/logging"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      zerolog.Logger
}

// NewDataReader creates a reader for a .csv or .xlsx file, chosen by extension
func NewDataReader(filePath string) *DataReader {
	return &DataReader{
		filePath: filePath,
		fileType: fileTypeOf(filePath),
		log:      logging.Component("reader"),
	}
}

func fileTypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx":
		return "xlsx"
	}
	return ""
}

// ReadTable reads the file into a typed table
func (r *DataReader) ReadTable() (*dataset.Table, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	table, err := dataset.FromRecords(data.Headers, data.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to build table from %s: %w", r.filePath, err)
	}
	return table, nil
}

// ReadData reads the raw header and records
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.log.Debug().Str("type", r.fileType).Str("path", r.filePath).Msg("reading file")

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(r.filePath))
	}
}

// readExcelData reads Sheet1, or the first sheet when there is no Sheet1
func (r *DataReader) readExcelData() (*ExcelData, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	sheet := sheets[0]
	for _, name := range sheets {
		if name == "Sheet1" {
			sheet = name
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	r.log.Debug().Str("sheet", sheet).Int("rows", len(rows)).Dur("elapsed", time.Since(start)).Msg("sheet read")

	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	start := time.Now()
	rows, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	r.log.Debug().Int("rows", len(rows)).Dur("elapsed", time.Since(start)).Msg("csv read")

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// ReadCSV reads every record of a CSV stream. Rows may have differing lengths.
func ReadCSV(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// processRows trims headers and pads or truncates each record to the header width
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	// pandas-style exports carry an unnamed index column
	if len(headers) > 0 && headers[0] == "" {
		headers[0] = "index"
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make([]string, len(headers))
		for j := range headers {
			if j < len(row) {
				record[j] = strings.TrimSpace(row[j])
			}
		}
		records = append(records, record)
	}

	r.log.Info().
		Str("path", r.filePath).
		Int("columns", len(headers)).
		Int("rows", len(records)).
		Msg("dataset loaded")

	return &ExcelData{
		Headers: headers,
		Records: records,
	}, nil
}

// ReadTable is a convenience wrapper around NewDataReader(path).ReadTable()
func ReadTable(path string) (*dataset.Table, error) {
	return NewDataReader(path).ReadTable()
}
