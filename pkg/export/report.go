package export

import "fmt"

// Table is one titled block of tabular content.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Report groups the tables rendered into a single document.
type Report struct {
	Title  string
	Tables []Table
}

// Renderer turns a report into a downloadable document.
type Renderer interface {
	Render(Report) ([]byte, error)
	ContentType() string
	Extension() string
}

// Format identifiers accepted by ForFormat.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ForFormat resolves the renderer for a format name.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "", FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func validate(r Report) error {
	if len(r.Tables) == 0 {
		return fmt.Errorf("report requires at least one table")
	}
	for _, t := range r.Tables {
		if len(t.Headers) == 0 {
			return fmt.Errorf("table %q requires at least one header", t.Title)
		}
	}
	return nil
}
