package parsers

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Row is one parsed data row keyed by header field
type Row map[string]string

// ParseResult contains the parsed rows and parsing statistics
type ParseResult struct {
	Rows        []Row
	TotalRows   int
	SkippedRows int
	Columns     []string
	Format      string
}

// FileParser is the interface all parsers must implement
type FileParser interface {
	// Parse reads and parses the file from the given path
	Parse(ctx context.Context, filePath string) (*ParseResult, error)

	// ParseStream reads and parses from an io.Reader
	ParseStream(ctx context.Context, reader io.Reader) (*ParseResult, error)

	// SupportedFormats returns the file extensions this parser supports
	SupportedFormats() []string
}

// ParserConfig holds configuration for all parsers
type ParserConfig struct {
	// MaxRowsInMemory is the initial row capacity reserved per document
	MaxRowsInMemory int

	// SkipEmptyRows determines if empty rows should be skipped
	SkipEmptyRows bool

	// TrimWhitespace determines if cell values should be trimmed
	TrimWhitespace bool

	// MaxFileSize is the maximum file size in bytes (0 = unlimited)
	MaxFileSize int64
}

// DefaultParserConfig returns sensible defaults
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		MaxRowsInMemory: 1000,
		SkipEmptyRows:   true,
		TrimWhitespace:  true,
		MaxFileSize:     100 * 1024 * 1024, // 100 MB
	}
}

// buildRow maps cells onto header fields; missing trailing cells become ""
func buildRow(header, cells []string, trim bool) Row {
	row := make(Row, len(header))
	for i, col := range header {
		if i < len(cells) {
			value := cells[i]
			if trim {
				value = strings.TrimSpace(value)
			}
			row[col] = value
		} else {
			row[col] = ""
		}
	}
	return row
}

// isEmptyRow checks if a row contains only empty strings
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cleanHeader(header []string, trim bool) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if trim {
			h = strings.TrimSpace(h)
		}
		out[i] = h
	}
	return out
}

func checkSize(size, max int64) error {
	if max > 0 && size > max {
		return fmt.Errorf("file size %d exceeds maximum %d", size, max)
	}
	return nil
}
