// Package export writes buylists as CSV or JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
)

// Format represents the export format.
type Format string

const (
	// FormatCSV represents CSV export format.
	FormatCSV Format = "csv"
	// FormatJSON represents JSON export format.
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// Options holds configuration for file exports.
type Options struct {
	Format     Format
	FilePath   string
	PrettyJSON bool
	Overwrite  bool
}

// Filename returns the default file name for a list export,
// "<list>_all.<ext>" or "<list>_unbought.<ext>".
func Filename(list string, includeBought bool, format Format) string {
	if format == "" {
		format = FormatCSV
	}
	suffix := "unbought"
	if includeBought {
		suffix = "all"
	}
	return fmt.Sprintf("%s_%s.%s", sanitize(list), suffix, format)
}

// sanitize replaces path separators so a list name is a single path element.
func sanitize(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", string(os.PathSeparator), "_")
	name = r.Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "list"
	}
	return name
}

// Write writes rows to w. CSV output always carries the header row.
func Write(w io.Writer, format Format, rows []Row, prettyJSON bool) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		if prettyJSON {
			encoder.SetIndent("", "  ")
		}
		if rows == nil {
			rows = []Row{}
		}
		return encoder.Encode(rows)
	case FormatCSV, "":
		return writeCSV(w, rows)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteFile writes rows to opts.FilePath.
func WriteFile(opts Options, rows []Row) (err error) {
	file, fileErr := createFile(opts)
	if fileErr != nil {
		return fileErr
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return Write(file, opts.Format, rows, opts.PrettyJSON)
}

func writeCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Headers()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row.record()); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Headers returns the CSV column headers, taken from Row's csv tags.
func Headers() []string {
	t := reflect.TypeOf(Row{})
	headers := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if csvTag := field.Tag.Get("csv"); csvTag != "" && csvTag != "-" {
			headers = append(headers, csvTag)
		} else if field.IsExported() {
			headers = append(headers, field.Name)
		}
	}
	return headers
}

// createFile creates the output file, handling overwrite settings.
func createFile(opts Options) (*os.File, error) {
	dir := filepath.Dir(opts.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(opts.FilePath); err == nil && !opts.Overwrite {
		return nil, fmt.Errorf("file already exists: %s (use overwrite option to replace)", opts.FilePath)
	}

	file, err := os.Create(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return file, nil
}
