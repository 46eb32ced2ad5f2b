// Package csvfile reads article field sets from datestamped CSV exports.
//
// Export files are named <section>-<YYYY-MM-DD>.csv. The header row maps
// columns by name, so column order does not matter.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/newsmill/blog-ingest/internal/article"
)

var datestamp = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ListDataFiles returns the datestamped CSV files under dir, sorted by name.
func ListDataFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".csv") || !datestamp.MatchString(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// ReadFields parses one export file into raw field sets. The file's base
// name becomes each record's SourceFile.
func ReadFields(path string) ([]article.Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}

	sourceFile := filepath.Base(path)
	var fields []article.Fields
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row of %s: %w", path, err)
		}
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		}
		fields = append(fields, article.Fields{
			Author:       cell("author"),
			Title:        cell("article_title"),
			Body:         cell("article"),
			URL:          cell("url"),
			TopicsRaw:    cell("topics"),
			Section:      cell("source_section"),
			PublishedRaw: cell("published"),
			SourceFile:   sourceFile,
		})
	}
	return fields, nil
}
