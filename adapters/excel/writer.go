package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sakilahypo/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// WriteCSV writes the table as CSV with a header row
func WriteCSV(w io.Writer, table *dataset.Table) error {
	headers, rows := table.Records()
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// WriteFile writes the table to path as CSV or XLSX depending on the extension.
// Parent directories are created as needed.
func WriteFile(path string, table *dataset.Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	switch fileTypeOf(path) {
	case "csv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		if err := WriteCSV(f, table); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case "xlsx":
		return writeExcel(path, table)
	}
	return fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
}

func writeExcel(path string, table *dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	headers, rows := table.Records()
	columns := table.Columns()

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, c := range columns {
			if c.Kind == dataset.KindNumeric && !c.IsMissing(i) {
				values[j] = c.Float(i)
			} else {
				values[j] = row[j]
			}
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
