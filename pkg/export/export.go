// Package export renders tabular ledgers as CSV, PDF or XLSX.
package export

// Format enumerates supported outputs.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Valid reports whether the format is supported.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatPDF || f == FormatXLSX
}

// Dataset defines tabular export content. Numeric headers are right aligned in PDF output.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Numeric map[string]bool
}
