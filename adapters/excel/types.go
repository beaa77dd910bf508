package excel

// ExcelData is a header row plus string records as read from a CSV or XLSX file
type ExcelData struct {
	Headers []string   // Column headers
	Records [][]string // Data rows, aligned with Headers
}

// Rows returns the number of data rows
func (d *ExcelData) Rows() int {
	return len(d.Records)
}
